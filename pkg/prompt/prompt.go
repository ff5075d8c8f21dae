// Package prompt composes generation requests from a declaration's signature
// and its directive parameters.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/germanamz/aibindgen/pkg/credentials"
	"github.com/germanamz/aibindgen/pkg/modeladapter"
	"github.com/germanamz/aibindgen/pkg/params"
)

// FallbackIntent replaces a missing prompt argument.
const FallbackIntent = "No explanation given, figure it out from the function signature."

//go:embed prompt.tmpl
var messageTemplate string

var tmpl = template.Must(template.New("prompt").Parse(messageTemplate))

// Message renders the request text for a signature and an intent. The result
// depends on nothing but its two arguments.
func Message(signature, intent string) string {
	var b strings.Builder

	err := tmpl.Execute(&b, struct {
		Signature string
		Intent    string
	}{signature, intent})
	if err != nil {
		// The template is fixed and strings.Builder never fails.
		panic(fmt.Sprintf("prompt: render message: %v", err))
	}

	return b.String()
}

// Compose builds the request for one declaration. The model and intent fall
// back to ep.DefaultModel and FallbackIntent; sampling controls pass through
// unchanged, nil meaning the service default.
func Compose(p params.Params, ep credentials.Endpoint, signature string) modeladapter.Request {
	model := ep.DefaultModel
	if p.Model != nil {
		model = *p.Model
	}

	return modeladapter.Request{
		Model:            model,
		Prompt:           Message(signature, Intent(p)),
		Temperature:      p.Temperature,
		TopP:             p.TopP,
		PresencePenalty:  p.PresencePenalty,
		FrequencyPenalty: p.FrequencyPenalty,
		MaxTokens:        p.MaxTokens,
	}
}

// Intent returns the prompt argument, or FallbackIntent when it is unset.
func Intent(p params.Params) string {
	if p.Prompt != nil {
		return *p.Prompt
	}
	return FallbackIntent
}
