package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/germanamz/aibindgen/pkg/credentials"
	"github.com/germanamz/aibindgen/pkg/diag"
	"github.com/germanamz/aibindgen/pkg/transform"
)

const promptUsage = `Usage: aibindgen prompt [flags] [paths...]

Show the request every annotated declaration would send, without contacting
the generation service. No API key is needed.`

func (a *app) runPrompt(ctx context.Context, args []string) error {
	var opts options

	fs := newFlagSet("prompt", promptUsage, a.stderr)
	opts.register(fs)
	model := fs.String("model", "", "default model to show when none is configured")
	suffix := fs.String("suffix", transform.DefaultSuffix, "suffix of generated files to skip")
	plain := fs.Bool("plain", false, "print markdown without terminal styling")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	logger, res, err := opts.setup(a.stderr)
	if err != nil {
		return err
	}

	ep, err := res.Resolve()
	if err != nil {
		// Showing a prompt needs no key; only the model matters.
		logger.DebugContext(ctx, "endpoint not resolved", "error", err)
		ep = credentials.Endpoint{}
	}
	if *model != "" {
		ep.DefaultModel = *model
	}

	files, err := transform.Candidates(targets(fs.Args()), *suffix)
	if err != nil {
		return err
	}

	renderer := newMarkdownRenderer(100)
	if *plain {
		renderer = nil
	}

	failed := false
	for _, path := range files {
		md, err := planMarkdown(path, ep)
		if err != nil {
			diag.Render(a.stderr, err)
			failed = true
		}
		if md != "" {
			_, _ = fmt.Fprint(a.stdout, renderMarkdown(renderer, md))
		}
	}

	if failed {
		return errSilent
	}

	return nil
}

// planMarkdown describes the requests of one file as markdown. Requests that
// could be composed are returned even when others failed.
func planMarkdown(path string, ep credentials.Endpoint) (string, error) {
	src, err := os.ReadFile(path) //nolint:gosec // paths come from the command line
	if err != nil {
		return "", err
	}

	s, err := transform.ParseSource(path, src)
	if err != nil {
		return "", err
	}

	plans, err := transform.Plan(s, ep)

	var b strings.Builder
	for _, p := range plans {
		writePlan(&b, p)
	}

	return b.String(), err
}

func writePlan(b *strings.Builder, p transform.Planned) {
	fmt.Fprintf(b, "## %s\n\n", p.Name)
	fmt.Fprintf(b, "`%s`\n\n", p.Pos)

	model := p.Request.Model
	if model == "" {
		model = "(unset)"
	}
	fmt.Fprintf(b, "| setting | value |\n|---|---|\n| model | %s |\n", model)
	writeSetting(b, "temperature", p.Request.Temperature)
	writeSetting(b, "top_p", p.Request.TopP)
	writeSetting(b, "presence_penalty", p.Request.PresencePenalty)
	writeSetting(b, "frequency_penalty", p.Request.FrequencyPenalty)
	if p.Request.MaxTokens != nil {
		fmt.Fprintf(b, "| max_tokens | %d |\n", *p.Request.MaxTokens)
	}

	fmt.Fprintf(b, "\n```text\n%s\n```\n\n", strings.TrimRight(p.Request.Prompt, "\n"))
}

func writeSetting(b *strings.Builder, name string, v *float64) {
	if v != nil {
		fmt.Fprintf(b, "| %s | %g |\n", name, *v)
	}
}
