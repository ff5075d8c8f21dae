package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/germanamz/aibindgen/pkg/diag"
	"github.com/germanamz/aibindgen/pkg/modeladapter/usage"
	"github.com/germanamz/aibindgen/pkg/transform"
)

const generateUsage = `Usage: aibindgen [generate] [flags] [paths...]

Generate the bodies of //ai:gen annotated functions. Each annotated file x.go
produces x_aigen.go next to it. Paths default to the current directory.`

func (a *app) runGenerate(ctx context.Context, args []string) error {
	var opts options

	fs := newFlagSet("generate", generateUsage, a.stderr)
	opts.register(fs)
	suffix := fs.String("suffix", transform.DefaultSuffix, "suffix appended to the base name of generated files")
	showDiff := fs.Bool("diff", false, "print a unified diff of every changed output file")
	dryRun := fs.Bool("dry-run", false, "generate but do not write any file")
	confirm := fs.Bool("confirm", false, "ask before writing each changed file")
	parallel := fs.Int("parallel", 4, "number of declarations generated at once within a file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	logger, res, err := opts.setup(a.stderr)
	if err != nil {
		return err
	}

	files, err := transform.Candidates(targets(fs.Args()), *suffix)
	if err != nil {
		return err
	}

	tracker := &usage.Tracker{}
	tr := &transform.Transformer{
		Resolver:     res,
		NewCompleter: a.newCompleter,
		Parallel:     *parallel,
		Usage:        tracker,
		Logger:       logger,
	}

	start := time.Now()

	var failed, written int
	for _, path := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ok, err := a.generateFile(ctx, tr, path, *suffix, *showDiff, *dryRun, *confirm)
		if err != nil {
			diag.Render(a.stderr, err)
			failed++
			continue
		}
		if ok {
			written++
		}
	}

	a.printSummary(len(files), written, failed, tracker, time.Since(start), *dryRun)
	if opts.verbose {
		a.printUsage(tracker)
	}

	if failed > 0 {
		return errSilent
	}

	return nil
}

// generateFile transforms one file and writes its output unless the output
// is unchanged, dryRun is set, or the user declines. It reports whether the
// output was written.
func (a *app) generateFile(ctx context.Context, tr *transform.Transformer, path, suffix string, showDiff, dryRun, confirm bool) (bool, error) {
	src, err := os.ReadFile(path) //nolint:gosec // paths come from the command line
	if err != nil {
		return false, err
	}

	out, err := tr.Generate(ctx, path, src)
	if errors.Is(err, transform.ErrNoDirective) {
		tr.Logger.WarnContext(ctx, "skipping file without //ai:gen directive", "file", path)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	dst := transform.OutputPath(path, suffix)

	prev, err := os.ReadFile(dst) //nolint:gosec // derived from a command line path
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	if prev != nil && bytes.Equal(prev, out) {
		tr.Logger.InfoContext(ctx, "output unchanged", "file", dst)
		return false, nil
	}

	if showDiff {
		_, _ = fmt.Fprint(a.stdout, unifiedDiff(dst, prev, out))
	}

	if dryRun {
		return false, nil
	}

	if confirm {
		ok, err := a.confirm(dst)
		if err != nil {
			return false, fmt.Errorf("confirm %s: %w", dst, err)
		}
		if !ok {
			return false, nil
		}
	}

	if err := os.WriteFile(dst, out, 0o644); err != nil { //nolint:gosec // generated source is world-readable like any Go file
		return false, err
	}

	_, _ = fmt.Fprintf(a.stdout, "%s %s\n", writtenStyle.Render("wrote"), dst)

	return true, nil
}

func (a *app) printSummary(files, written, failed int, tracker *usage.Tracker, elapsed time.Duration, dryRun bool) {
	if files == 0 {
		_, _ = fmt.Fprintln(a.stderr, dimStyle.Render("no annotated files found"))
		return
	}

	total := tracker.Total()

	line := fmt.Sprintf("%d file(s), %d written, %d failed · %d declaration(s) · %s in / %s out tokens · %s",
		files, written, failed, tracker.Count(),
		fmtTokens(total.InputTokens), fmtTokens(total.OutputTokens), fmtDuration(elapsed))
	if dryRun {
		line += " · dry run"
	}

	style := summaryStyle
	if failed > 0 {
		style = errorLabelStyle
	}

	_, _ = fmt.Fprintln(a.stderr, style.Render(line))
}

// printUsage lists the cost of every declaration, then the totals per model.
func (a *app) printUsage(tracker *usage.Tracker) {
	counts := make(map[string]int)

	for _, e := range tracker.Entries() {
		counts[e.Model]++
		_, _ = fmt.Fprintln(a.stderr, dimStyle.Render(fmt.Sprintf("  %s (%s): %s in / %s out tokens · %s",
			e.Func, e.Model, fmtTokens(e.Tokens.InputTokens), fmtTokens(e.Tokens.OutputTokens), fmtDuration(e.Duration))))
	}

	byModel := tracker.ByModel()
	for _, model := range slices.Sorted(maps.Keys(byModel)) {
		tc := byModel[model]
		_, _ = fmt.Fprintln(a.stderr, dimStyle.Render(fmt.Sprintf("  %s: %d declaration(s), %s in / %s out tokens",
			model, counts[model], fmtTokens(tc.InputTokens), fmtTokens(tc.OutputTokens))))
	}
}
