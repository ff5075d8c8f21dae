// Package transform turns //ai:gen annotated Go source into source whose
// signature-only functions have generated bodies.
//
// An annotated unit is classified into one of three shapes (see [Kind]) and
// handled by the routine for that shape. Every failure is a *diag.Error
// anchored at the most specific known position; nothing is emitted for a
// unit that fails.
package transform

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"time"

	"github.com/germanamz/aibindgen/pkg/credentials"
	"github.com/germanamz/aibindgen/pkg/diag"
	"github.com/germanamz/aibindgen/pkg/directive"
	"github.com/germanamz/aibindgen/pkg/modeladapter"
	"github.com/germanamz/aibindgen/pkg/modeladapter/usage"
	"github.com/germanamz/aibindgen/pkg/params"
	"github.com/germanamz/aibindgen/pkg/prompt"
	"github.com/germanamz/aibindgen/pkg/providers/openai"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidReplacement is the cause of the parse error reported when the
// generated text does not complete the declaration as valid Go.
var ErrInvalidReplacement = errors.New("generated text does not form valid replacement code")

const (
	unsupportedMsg = "this construct is not supported by this transform"
	blockArgsMsg   = "parameters are not supported on a file-level //ai:gen directive"
)

// Transformer generates bodies for annotated units. The zero value reads
// credentials from the environment and talks to the OpenAI API.
type Transformer struct {
	// Resolver supplies the endpoint, once per declaration. Defaults to
	// credentials.EnvResolver.
	Resolver credentials.Resolver

	// NewCompleter creates the client for a resolved endpoint. Defaults to
	// the OpenAI chat completions adapter.
	NewCompleter func(ep credentials.Endpoint) modeladapter.Completer

	// Parallel bounds how many declarations of one block are generated at
	// once. Values below 1 mean one at a time.
	Parallel int

	// Usage, when set, records the token cost of every generated body.
	Usage *usage.Tracker

	// Logger receives progress records. Defaults to discarding them.
	Logger *slog.Logger
}

// Result is the outcome of transforming one unit: edits to the unit's
// source that, applied together, produce the replacement.
type Result struct {
	Kind  Kind
	Edits []Edit
}

// Transform dispatches u to the handler for its shape.
func (t *Transformer) Transform(ctx context.Context, s *Source, u Unit) (Result, error) {
	switch u.Kind {
	case KindBlock:
		return t.block(ctx, s, u)
	case KindDecl:
		return t.decl(ctx, s, u)
	default:
		return Result{}, unsupported(s, u)
	}
}

// block re-emits the declarations of a file. The build constraint that
// hides the signature-only file and the file-level directive are dropped;
// every annotated declaration is transformed independently, so one failing
// declaration does not stop the others.
func (t *Transformer) block(ctx context.Context, s *Source, u Unit) (Result, error) {
	if u.Directive.HasArgs() {
		return Result{}, diag.New(diag.Usage, s.Position(u.Directive.Pos()), blockArgsMsg)
	}

	var edits []Edit
	if u.Directive.Comment != nil {
		edits = append(edits, s.removeComment(u.Directive.Comment))
	}
	for _, c := range directive.BuildConstraints(u.File) {
		edits = append(edits, s.removeComment(c))
	}

	units := annotated(u.File)

	results := make([]Result, len(units))
	errs := make([]error, len(units))

	var g errgroup.Group
	g.SetLimit(max(t.Parallel, 1))

	for i, inner := range units {
		g.Go(func() error {
			results[i], errs[i] = t.Transform(ctx, s, inner)
			return nil
		})
	}
	_ = g.Wait()

	var list diag.List
	for i := range units {
		if errs[i] != nil {
			list.Add(errs[i])
			continue
		}
		edits = append(edits, results[i].Edits...)
	}

	return Result{Kind: KindBlock, Edits: edits}, list.Err()
}

// decl generates the body of a signature-only function and splices it after
// the untouched signature.
func (t *Transformer) decl(ctx context.Context, s *Source, u Unit) (Result, error) {
	fn := u.Func
	pos := s.Position(fn.Pos())

	p, err := parseArgs(s, u)
	if err != nil {
		return Result{}, err
	}

	ep, err := t.resolver().Resolve()
	if err != nil {
		return Result{}, diag.Wrap(err, diag.Config, pos)
	}

	req := prompt.Compose(p, ep, s.Text(fn.Pos(), fn.End()))

	log := t.logger().With("func", funcName(fn), "pos", pos.String())
	log.InfoContext(ctx, "generating body", "model", req.Model)

	start := time.Now()

	completion, err := t.completer(ep).Complete(ctx, req)
	if err != nil {
		log.ErrorContext(ctx, "generation failed", "duration", time.Since(start), "error", err)
		return Result{}, diag.Wrap(err, diag.Service, pos)
	}

	elapsed := time.Since(start)

	log.InfoContext(ctx, "generated body",
		"duration", elapsed,
		"input_tokens", completion.Usage.InputTokens,
		"output_tokens", completion.Usage.OutputTokens,
	)

	if t.Usage != nil {
		t.Usage.Add(usage.Entry{Func: funcName(fn), Model: req.Model, Tokens: completion.Usage, Duration: elapsed})
	}

	body := " {\n" + completion.Text + "\n}"

	// The reply is untrusted: it must complete this exact declaration and
	// nothing else. Errors point at the declaration, never into the reply.
	if err := checkReplacement(s.File.Name.Name, fn.Name.Name, s.Text(fn.Pos(), fn.End())+body); err != nil {
		log.DebugContext(ctx, "generated text rejected", "error", err, "text", completion.Text)
		return Result{}, &diag.Error{Kind: diag.Parse, Pos: pos, Err: ErrInvalidReplacement}
	}

	end := s.offset(fn.End())
	edits := []Edit{{Start: end, End: end, Text: body}}
	if u.Directive.Comment != nil {
		edits = append(edits, s.removeComment(u.Directive.Comment))
	}

	return Result{Kind: KindDecl, Edits: edits}, nil
}

// annotated returns the declaration-level units of f in source order.
func annotated(f *ast.File) []Unit {
	var units []Unit

	for _, decl := range f.Decls {
		if d, ok := directive.FindDecl(decl); ok {
			units = append(units, Classify(decl, d))
		}
	}

	return units
}

func unsupported(s *Source, u Unit) error {
	var pos token.Position
	if u.Node != nil {
		pos = s.Position(u.Node.Pos())
	}
	return diag.New(diag.Usage, pos, unsupportedMsg)
}

// parseArgs parses the directive arguments of a declaration unit. Arguments
// are checked before credentials are resolved.
func parseArgs(s *Source, u Unit) (params.Params, error) {
	if u.Directive.Comment == nil {
		return params.Params{}, nil
	}

	p, err := params.Parse(u.Directive.Args, s.Position(u.Directive.ArgsPos))
	if err != nil {
		return params.Params{}, diag.Wrap(err, diag.Usage, s.Position(u.Func.Pos()))
	}

	return p, nil
}

// request parses the directive of a declaration unit and composes its
// generation request.
func request(s *Source, u Unit, ep credentials.Endpoint) (modeladapter.Request, error) {
	p, err := parseArgs(s, u)
	if err != nil {
		return modeladapter.Request{}, err
	}

	return prompt.Compose(p, ep, s.Text(u.Func.Pos(), u.Func.End())), nil
}

// checkReplacement parses decl as the only declaration of a file in package
// pkg and verifies it is a function named name with a body.
func checkReplacement(pkg, name, decl string) error {
	src := "package " + pkg + "\n\n" + decl + "\n"

	f, err := parser.ParseFile(token.NewFileSet(), "", src, parser.SkipObjectResolution)
	if err != nil {
		return err
	}

	if len(f.Decls) != 1 {
		return fmt.Errorf("got %d declarations, want 1", len(f.Decls))
	}

	fn, ok := f.Decls[0].(*ast.FuncDecl)
	if !ok || fn.Body == nil || fn.Name.Name != name {
		return fmt.Errorf("not a declaration of %s with a body", name)
	}

	return nil
}

func (t *Transformer) resolver() credentials.Resolver {
	if t.Resolver != nil {
		return t.Resolver
	}
	return credentials.EnvResolver{}
}

func (t *Transformer) completer(ep credentials.Endpoint) modeladapter.Completer {
	if t.NewCompleter != nil {
		return t.NewCompleter(ep)
	}
	a := openai.New(ep.BaseURL, ep.APIKey)
	a.Headers = ep.Headers

	return a
}

func (t *Transformer) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.New(slog.DiscardHandler)
}
