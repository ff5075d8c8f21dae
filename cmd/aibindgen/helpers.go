package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/germanamz/aibindgen/pkg/credentials"
	"github.com/joho/godotenv"
	"github.com/pmezard/go-difflib/difflib"
)

var (
	// errSilent fails the command after its diagnostics were printed.
	errSilent = errors.New("failed")
	// errUsage fails the command after a flag error was printed.
	errUsage = errors.New("usage")
)

// options are the flags shared by every subcommand.
type options struct {
	envFile    string
	configPath string
	verbose    bool
}

func (o *options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.StringVar(&o.configPath, "config", "", "path to a YAML endpoint config (api_key, model, base_url); defaults to the OPENAI_API_* environment")
	fs.BoolVar(&o.verbose, "verbose", false, "log every request at debug level")
}

// setup loads the .env file and returns the logger and endpoint resolver.
func (o *options) setup(stderr io.Writer) (*slog.Logger, credentials.Resolver, error) {
	if err := loadDotEnv(o.envFile); err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", o.envFile, err)
	}

	return newLogger(stderr, o.verbose), resolver(o.configPath), nil
}

// parseFlags parses args into fs. Flag errors other than -help become
// errUsage; the flag package has already printed them.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

func newFlagSet(name, usage string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "%s\n\nFlags:\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// newLogger logs warnings to w, or everything when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolver returns the endpoint source: the config file when given, the
// environment otherwise.
func resolver(configPath string) credentials.Resolver {
	if configPath != "" {
		return credentials.FileResolver{Path: configPath}
	}
	return credentials.EnvResolver{}
}

// targets defaults to the current directory.
func targets(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

// unifiedDiff returns the diff from the existing content of path to next.
func unifiedDiff(path string, prev, next []byte) string {
	from := path
	if prev == nil {
		from = "/dev/null"
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(prev)),
		B:        difflib.SplitLines(string(next)),
		FromFile: from,
		ToFile:   path,
		Context:  3,
	})
	if err != nil {
		return ""
	}

	return text
}

// confirmWrite asks on the terminal whether path should be written.
func confirmWrite(path string) (bool, error) {
	ok := true

	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Write " + path + "?").
			Affirmative("Write").
			Negative("Skip").
			Value(&ok),
	)).Run()

	return ok, err
}

// newMarkdownRenderer returns a glamour renderer, or nil when the terminal
// style cannot be determined.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	if width <= 0 {
		width = 100
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}

	return r
}

// renderMarkdown converts markdown text to terminal-formatted output.
func renderMarkdown(r *glamour.TermRenderer, text string) string {
	if r == nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n") + "\n"
}

// fmtTokens formats a token count for display, using k/M suffixes.
func fmtTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// fmtDuration formats a duration for display.
func fmtDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, sec)
}
