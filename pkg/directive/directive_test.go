package directive_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/germanamz/aibindgen/pkg/directive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) (*token.FileSet, *ast.File) {
	t.Helper()

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "x.go", src, parser.ParseComments)
	require.NoError(t, err)

	return fset, f
}

func TestParse(t *testing.T) {
	tests := []struct {
		text    string
		ok      bool
		args    string
		hasArgs bool
	}{
		{"//ai:gen", true, "", false},
		{"//ai:gen   ", true, "   ", false},
		{`//ai:gen prompt = "x"`, true, ` prompt = "x"`, true},
		{"//ai:gen\tmodel = \"m\"", true, "\tmodel = \"m\"", true},
		{"//ai:generate", false, "", false},
		{"// ai:gen", false, "", false},
		{"//go:generate", false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			d, ok := directive.Parse(&ast.Comment{Slash: 10, Text: tt.text})
			assert.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.args, d.Args)
			assert.Equal(t, tt.hasArgs, d.HasArgs())
			assert.Equal(t, token.Pos(10), d.Pos())
			assert.Equal(t, token.Pos(18), d.ArgsPos)
		})
	}

	assert.Equal(t, token.NoPos, directive.Directive{}.Pos())
}

func TestFindDecl(t *testing.T) {
	_, f := parse(t, `package x

// F does things.
//ai:gen model = "m"
func F()

// G is plain.
func G() {}

//ai:gen
type T int

var v int
`)

	d, ok := directive.FindDecl(f.Decls[0])
	require.True(t, ok)
	assert.Equal(t, ` model = "m"`, d.Args)

	_, ok = directive.FindDecl(f.Decls[1])
	assert.False(t, ok)

	_, ok = directive.FindDecl(f.Decls[2])
	assert.True(t, ok)

	_, ok = directive.FindDecl(f.Decls[3])
	assert.False(t, ok)
}

func TestFindFile(t *testing.T) {
	fset, f := parse(t, "//go:build aibindgen\n\n// Package x.\n//ai:gen\npackage x\n\n//ai:gen\nfunc F()\n")

	d, ok := directive.FindFile(f)
	require.True(t, ok)
	assert.Equal(t, 4, fset.Position(d.Pos()).Line)

	_, f = parse(t, "package x\n\n//ai:gen\nfunc F()\n")
	_, ok = directive.FindFile(f)
	assert.False(t, ok)
}

func TestBuildConstraints(t *testing.T) {
	_, f := parse(t, "//go:build aibindgen && linux\n\n//ai:gen\npackage x\n")
	cs := directive.BuildConstraints(f)
	require.Len(t, cs, 1)
	assert.Equal(t, "//go:build aibindgen && linux", cs[0].Text)

	_, f = parse(t, "//go:build !aibindgen\n\npackage x\n")
	assert.Len(t, directive.BuildConstraints(f), 1)

	_, f = parse(t, "//go:build linux\n\npackage x\n")
	assert.Empty(t, directive.BuildConstraints(f))
}
