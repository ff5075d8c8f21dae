// Command aibindgen generates the bodies of //ai:gen annotated Go functions.
//
// Usage:
//
//	aibindgen [flags] [paths...]       generate <name>_aigen.go files
//	aibindgen prompt [flags] [paths...] show the requests without sending them
//	aibindgen mcp [flags]              serve generate_function over MCP on stdio
//
// A path is a file, a directory, or a directory followed by "/...".
// Typical use is a go:generate line next to the annotated file:
//
//	//go:generate go run github.com/germanamz/aibindgen/cmd/aibindgen .
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/germanamz/aibindgen/pkg/credentials"
	"github.com/germanamz/aibindgen/pkg/modeladapter"
)

var version = "dev"

// app holds the process boundaries so commands can run under test.
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	// confirm asks whether path should be written.
	confirm func(path string) (bool, error)

	// newCompleter overrides the OpenAI adapter when set.
	newCompleter func(ep credentials.Endpoint) modeladapter.Completer
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := &app{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		confirm: confirmWrite,
	}

	os.Exit(a.run(ctx, os.Args[1:]))
}

// run dispatches to a subcommand and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	if len(args) > 0 {
		switch args[0] {
		case "prompt":
			return a.exit(a.runPrompt(ctx, args[1:]))
		case "mcp":
			return a.exit(a.runMCP(ctx, args[1:]))
		case "version":
			_, _ = fmt.Fprintf(a.stdout, "aibindgen %s\n", version)
			return 0
		case "generate":
			args = args[1:]
		}
	}

	return a.exit(a.runGenerate(ctx, args))
}

// exit maps a command error to an exit code. Diagnostics are already
// printed by the command; errSilent carries no further message.
func (a *app) exit(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errSilent):
		return 1
	case errors.Is(err, errUsage):
		return 2
	}

	_, _ = fmt.Fprintf(a.stderr, "%s %v\n", errorLabelStyle.Render("error:"), err)

	return 1
}
