package main

import (
	"context"
	"errors"

	"github.com/germanamz/aibindgen/pkg/mcpserver"
	"github.com/germanamz/aibindgen/pkg/transform"
)

const mcpUsage = `Usage: aibindgen mcp [flags]

Serve the generate_function tool over MCP on stdin/stdout.`

func (a *app) runMCP(ctx context.Context, args []string) error {
	var opts options

	fs := newFlagSet("mcp", mcpUsage, a.stderr)
	opts.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	logger, res, err := opts.setup(a.stderr)
	if err != nil {
		return err
	}

	tr := &transform.Transformer{
		Resolver:     res,
		NewCompleter: a.newCompleter,
		Logger:       logger,
	}

	logger.InfoContext(ctx, "serving MCP on stdio", "tool", mcpserver.ToolName, "version", version)

	err = mcpserver.New("aibindgen", version, tr).Serve(ctx, a.stdin, a.stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
