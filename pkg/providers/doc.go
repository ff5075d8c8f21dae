// Package providers groups the concrete generation service adapters.
//
// Each sub-package implements [github.com/germanamz/aibindgen/pkg/modeladapter.Completer]
// on top of the embeddable modeladapter.ModelAdapter:
//   - [github.com/germanamz/aibindgen/pkg/providers/openai]: OpenAI-compatible chat completions endpoint
package providers
