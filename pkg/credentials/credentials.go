// Package credentials resolves the API key, default model, and endpoint URL
// of the generation service.
package credentials

import (
	"fmt"
	"go/token"
	"os"
	"strings"

	"github.com/germanamz/aibindgen/pkg/diag"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is used when no endpoint URL is configured.
const DefaultBaseURL = "https://api.openai.com/v1/"

// Environment variables read by EnvResolver.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvModel   = "OPENAI_API_MODEL"
	EnvBaseURL = "OPENAI_API_URL"
)

// Endpoint is a resolved set of service settings. It is a read-only value
// and safe to share between goroutines.
type Endpoint struct {
	APIKey       string //nolint:gosec // resolved secret, not a hardcoded credential
	DefaultModel string
	BaseURL      string // Always ends with "/".

	// Headers are sent with every request, e.g. OpenAI-Organization.
	Headers map[string]string
}

// Resolver supplies an Endpoint.
type Resolver interface {
	Resolve() (Endpoint, error)
}

// NormalizeBaseURL returns url with a trailing "/" so that relative API paths
// resolve below it.
func NormalizeBaseURL(url string) string {
	if strings.HasSuffix(url, "/") {
		return url
	}
	return url + "/"
}

// EnvResolver reads the endpoint from environment variables.
type EnvResolver struct {
	// Lookup replaces os.LookupEnv when set.
	Lookup func(key string) (string, bool)
}

// Resolve implements Resolver.
func (r EnvResolver) Resolve() (Endpoint, error) {
	return build(r.lookup(EnvAPIKey), r.lookup(EnvModel), r.lookup(EnvBaseURL), nil)
}

func (r EnvResolver) lookup(key string) string {
	lookup := r.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	v, _ := lookup(key)

	return v
}

// Static resolves to a fixed endpoint. The URL is still normalized and the
// required fields still validated.
type Static Endpoint

// Resolve implements Resolver.
func (s Static) Resolve() (Endpoint, error) {
	return build(s.APIKey, s.DefaultModel, s.BaseURL, s.Headers)
}

// FileConfig is the YAML form of an endpoint.
type FileConfig struct {
	APIKey  string `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`

	Headers map[string]string `yaml:"headers"`
}

// LoadFile reads a YAML config file. Environment variables referenced as
// ${VAR} or $VAR are expanded before parsing so secrets can stay in the
// environment.
func LoadFile(path string) (FileConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return FileConfig{}, fmt.Errorf("credentials: load config: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("credentials: parse config: %w", err)
	}

	return cfg, nil
}

// FileResolver reads the endpoint from a YAML config file. Fields left
// empty in the file fall back to Env.
type FileResolver struct {
	Path string
	Env  EnvResolver
}

// Resolve implements Resolver.
func (r FileResolver) Resolve() (Endpoint, error) {
	cfg, err := LoadFile(r.Path)
	if err != nil {
		return Endpoint{}, &diag.Error{Kind: diag.Config, Err: err}
	}

	key := cfg.APIKey
	if key == "" {
		key = r.Env.lookup(EnvAPIKey)
	}

	model := cfg.Model
	if model == "" {
		model = r.Env.lookup(EnvModel)
	}

	url := cfg.BaseURL
	if url == "" {
		url = r.Env.lookup(EnvBaseURL)
	}

	return build(key, model, url, cfg.Headers)
}

func build(key, model, url string, headers map[string]string) (Endpoint, error) {
	if key == "" {
		return Endpoint{}, diag.New(diag.Config, token.Position{}, EnvAPIKey+" environment variable must be defined.")
	}

	if model == "" {
		return Endpoint{}, diag.New(diag.Config, token.Position{}, EnvModel+" environment variable must be defined.")
	}

	if url == "" {
		url = DefaultBaseURL
	}

	return Endpoint{
		APIKey:       key,
		DefaultModel: model,
		BaseURL:      NormalizeBaseURL(url),
		Headers:      headers,
	}, nil
}
