package transform

import (
	"context"
	"errors"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strings"

	"github.com/germanamz/aibindgen/pkg/credentials"
	"github.com/germanamz/aibindgen/pkg/diag"
	"github.com/germanamz/aibindgen/pkg/directive"
	"github.com/germanamz/aibindgen/pkg/modeladapter"
	"golang.org/x/tools/imports"
)

// Header is the first line of every generated file.
const Header = "// Code generated by aibindgen. DO NOT EDIT.\n\n"

// ErrNoDirective is returned for a file that carries no //ai:gen directive.
var ErrNoDirective = errors.New("transform: no //ai:gen directive")

// FileUnit returns the unit covering a whole file. A file directive makes it
// an explicit block; a file with only declaration directives is treated as a
// block without one. ok is false when the file has no directive at all.
func FileUnit(s *Source) (u Unit, ok bool) {
	if d, found := directive.FindFile(s.File); found {
		return Classify(s.File, d), true
	}

	if len(annotated(s.File)) == 0 {
		return Unit{}, false
	}

	return Unit{Kind: KindBlock, Node: s.File, File: s.File}, true
}

// Generate transforms an annotated file and returns the formatted source of
// its generated counterpart. On any diagnostic no source is returned and the
// error carries every diagnostic found.
func (t *Transformer) Generate(ctx context.Context, filename string, src []byte) ([]byte, error) {
	s, err := ParseSource(filename, src)
	if err != nil {
		return nil, err
	}

	u, ok := FileUnit(s)
	if !ok {
		return nil, ErrNoDirective
	}

	res, err := t.Transform(ctx, s, u)
	if err != nil {
		return nil, err
	}

	edits := append([]Edit{{Text: Header}}, res.Edits...)

	out, err := imports.Process(filename, Apply(src, edits), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		t.logger().DebugContext(ctx, "formatting failed", "file", filename, "error", err)
		return nil, &diag.Error{Kind: diag.Parse, Pos: s.Position(s.File.Package), Err: ErrInvalidReplacement}
	}

	return out, nil
}

const (
	declFile   = "declaration.go"
	declPrefix = "package main\n//line " + declFile + ":1:1\n"
)

// Declaration completes a single body-less function given as source text,
// with or without a package clause and with or without a directive. The
// result is formatted but imports are left alone.
func (t *Transformer) Declaration(ctx context.Context, src string) (string, error) {
	prefix := ""
	if !hasPackageClause(src) {
		prefix = declPrefix
	}

	s, err := ParseSource(declFile, []byte(prefix+src))
	if err != nil {
		return "", err
	}

	var fn *ast.FuncDecl
	for _, decl := range s.File.Decls {
		if f, ok := decl.(*ast.FuncDecl); ok {
			fn = f
			break
		}
	}

	if fn == nil {
		return "", diag.New(diag.Usage, s.Position(s.File.Package), "no function declaration found")
	}

	d, _ := directive.FindDecl(fn)

	res, err := t.Transform(ctx, s, Classify(fn, d))
	if err != nil {
		return "", err
	}

	out := Apply(s.Src, res.Edits)[len(prefix):]

	formatted, err := format.Source(out)
	if err != nil {
		return "", &diag.Error{Kind: diag.Parse, Pos: s.Position(fn.Pos()), Err: ErrInvalidReplacement}
	}

	return strings.TrimRight(string(formatted), "\n") + "\n", nil
}

func hasPackageClause(src string) bool {
	_, err := parser.ParseFile(token.NewFileSet(), "", src, parser.PackageClauseOnly)
	return err == nil
}

// Planned is the request a declaration would send.
type Planned struct {
	Pos     token.Position
	Name    string
	Request modeladapter.Request
}

// Plan composes the request of every annotated declaration in s against ep
// without contacting the service.
func Plan(s *Source, ep credentials.Endpoint) ([]Planned, error) {
	u, ok := FileUnit(s)
	if !ok {
		return nil, ErrNoDirective
	}

	if u.Directive.HasArgs() {
		return nil, diag.New(diag.Usage, s.Position(u.Directive.Pos()), blockArgsMsg)
	}

	var (
		out  []Planned
		list diag.List
	)

	for _, inner := range annotated(s.File) {
		if inner.Kind != KindDecl {
			list.Add(unsupported(s, inner))
			continue
		}

		req, err := request(s, inner, ep)
		if err != nil {
			list.Add(err)
			continue
		}

		out = append(out, Planned{
			Pos:     s.Position(inner.Func.Pos()),
			Name:    funcName(inner.Func),
			Request: req,
		})
	}

	return out, list.Err()
}

// funcName returns Name or Recv.Name for methods.
func funcName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}

	typ := fn.Recv.List[0].Type
	if star, ok := typ.(*ast.StarExpr); ok {
		typ = star.X
	}

	switch x := typ.(type) {
	case *ast.IndexExpr:
		typ = x.X
	case *ast.IndexListExpr:
		typ = x.X
	}

	if id, ok := typ.(*ast.Ident); ok {
		return id.Name + "." + fn.Name.Name
	}

	return fn.Name.Name
}
