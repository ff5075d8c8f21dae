// Package openai provides a Completer implementation for the OpenAI Chat
// Completions API and compatible services.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/germanamz/aibindgen/pkg/modeladapter"
)

const completionsPath = "chat/completions"

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer for the OpenAI Chat Completions API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter. The baseURL should include the API version and a
// trailing slash, e.g. "https://api.openai.com/v1/".
func New(baseURL, apiKey string) *Adapter {
	a := &Adapter{}
	a.BaseURL = baseURL
	a.Auth = modeladapter.Auth{Key: apiKey}

	return a
}

// Complete sends one chat completion request carrying a single user message
// and returns the content of the first choice. A reply without choices, or
// whose first choice has no content, yields modeladapter.ErrNoChoices.
func (a *Adapter) Complete(ctx context.Context, req modeladapter.Request) (modeladapter.Completion, error) {
	var resp apiResponse
	if err := a.PostJSON(ctx, completionsPath, buildRequest(req), &resp); err != nil {
		return modeladapter.Completion{}, fmt.Errorf("openai: %w", err)
	}

	usage := modeladapter.TokenCount{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}

	// Any choice is acceptable; the first one is used.
	if len(resp.Choices) == 0 {
		return modeladapter.Completion{Usage: usage}, fmt.Errorf("openai: empty choices in response: %w", modeladapter.ErrNoChoices)
	}

	msg := resp.Choices[0].Message
	if msg == nil || msg.Content == nil || strings.TrimSpace(*msg.Content) == "" {
		return modeladapter.Completion{Usage: usage}, fmt.Errorf("openai: choice has no content: %w", modeladapter.ErrNoChoices)
	}

	return modeladapter.Completion{Text: *msg.Content, Usage: usage}, nil
}

// --- request types ---

type apiRequest struct {
	Model            string       `json:"model"`
	Messages         []apiMessage `json:"messages"`
	MaxTokens        *int         `json:"max_tokens,omitempty"`
	Temperature      *float64     `json:"temperature,omitempty"`
	TopP             *float64     `json:"top_p,omitempty"`
	PresencePenalty  *float64     `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64     `json:"frequency_penalty,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- response types ---

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Message      *apiRespMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type apiRespMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

func buildRequest(req modeladapter.Request) apiRequest {
	return apiRequest{
		Model:            req.Model,
		Messages:         []apiMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
	}
}
