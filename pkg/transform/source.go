package transform

import (
	"bytes"
	"cmp"
	"errors"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"slices"

	"github.com/germanamz/aibindgen/pkg/diag"
)

// Source is a parsed Go file together with the bytes it was parsed from.
// It is not modified by the transform and may be shared between goroutines.
type Source struct {
	Fset *token.FileSet
	File *ast.File
	Src  []byte
}

// ParseSource parses src. Syntax errors come back as a diag.List.
func ParseSource(filename string, src []byte) (*Source, error) {
	fset := token.NewFileSet()

	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, syntaxErrors(err)
	}

	return &Source{Fset: fset, File: f, Src: src}, nil
}

func syntaxErrors(err error) error {
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		return &diag.Error{Kind: diag.Parse, Err: err}
	}

	out := make(diag.List, 0, len(list))
	for _, e := range list {
		out = append(out, diag.New(diag.Parse, e.Pos, e.Msg))
	}

	return out
}

// Position resolves p, honouring //line directives.
func (s *Source) Position(p token.Pos) token.Position {
	return s.Fset.Position(p)
}

func (s *Source) offset(p token.Pos) int {
	return s.Fset.File(p).Offset(p)
}

// Text returns the source bytes between from and to.
func (s *Source) Text(from, to token.Pos) string {
	return string(s.Src[s.offset(from):s.offset(to)])
}

// Edit replaces Src[Start:End] with Text. Start == End inserts.
type Edit struct {
	Start, End int
	Text       string
}

// Apply returns src with edits applied. Edits must not overlap; an insertion
// at the start of a deletion lands before it.
func Apply(src []byte, edits []Edit) []byte {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b Edit) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End))
	})

	var b bytes.Buffer

	last := 0
	for _, e := range sorted {
		b.Write(src[last:e.Start])
		b.WriteString(e.Text)
		last = e.End
	}
	b.Write(src[last:])

	return b.Bytes()
}

// removeComment returns an edit deleting c. When c is alone on its line the
// whole line goes, newline included.
func (s *Source) removeComment(c *ast.Comment) Edit {
	start, end := s.offset(c.Pos()), s.offset(c.End())

	ls := start
	for ls > 0 && isBlank(s.Src[ls-1]) {
		ls--
	}
	if ls > 0 && s.Src[ls-1] != '\n' {
		return Edit{Start: start, End: end}
	}

	le := end
	for le < len(s.Src) && (isBlank(s.Src[le]) || s.Src[le] == '\r') {
		le++
	}
	if le < len(s.Src) && s.Src[le] == '\n' {
		le++
	}

	return Edit{Start: ls, End: le}
}

func isBlank(b byte) bool { return b == ' ' || b == '\t' }
