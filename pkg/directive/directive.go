// Package directive locates //ai:gen comments in parsed Go source.
//
// A directive is a line comment of the form
//
//	//ai:gen [name = literal {, name = literal}]
//
// placed in the doc comment of a declaration, or directly above the package
// clause of a file.
package directive

import (
	"go/ast"
	"go/build/constraint"
	"go/token"
	"strings"
)

// Prefix starts every directive comment.
const Prefix = "//ai:gen"

// BuildTag is the build tag that keeps signature-only source files out of
// regular builds.
const BuildTag = "aibindgen"

// Directive is a single //ai:gen comment.
type Directive struct {
	Comment *ast.Comment // Nil for the zero Directive.
	Args    string       // Raw text following Prefix.
	ArgsPos token.Pos    // Position of the first byte of Args.
}

// HasArgs reports whether any argument text follows the prefix.
func (d Directive) HasArgs() bool {
	return strings.TrimSpace(d.Args) != ""
}

// Pos returns the position of the comment, or token.NoPos for the zero Directive.
func (d Directive) Pos() token.Pos {
	if d.Comment == nil {
		return token.NoPos
	}
	return d.Comment.Slash
}

// Parse reports whether c is a directive and returns it.
// Comments such as //ai:generate that merely share the prefix do not match.
func Parse(c *ast.Comment) (Directive, bool) {
	rest, ok := strings.CutPrefix(c.Text, Prefix)
	if !ok {
		return Directive{}, false
	}

	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return Directive{}, false
	}

	return Directive{
		Comment: c,
		Args:    rest,
		ArgsPos: c.Slash + token.Pos(len(Prefix)),
	}, true
}

// Find returns the first directive in cg.
func Find(cg *ast.CommentGroup) (Directive, bool) {
	if cg == nil {
		return Directive{}, false
	}

	for _, c := range cg.List {
		if d, ok := Parse(c); ok {
			return d, true
		}
	}

	return Directive{}, false
}

// FindDecl returns the directive in the doc comment of a top-level declaration.
func FindDecl(decl ast.Decl) (Directive, bool) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		return Find(d.Doc)
	case *ast.GenDecl:
		return Find(d.Doc)
	}
	return Directive{}, false
}

// FindFile returns the file-level directive: one that appears in any comment
// group before the package clause.
func FindFile(f *ast.File) (Directive, bool) {
	for _, cg := range f.Comments {
		if cg.Pos() >= f.Package {
			break
		}
		if d, ok := Find(cg); ok {
			return d, true
		}
	}
	return Directive{}, false
}

// BuildConstraints returns the //go:build comments before the package clause
// that mention BuildTag.
func BuildConstraints(f *ast.File) []*ast.Comment {
	var out []*ast.Comment

	for _, cg := range f.Comments {
		if cg.Pos() >= f.Package {
			break
		}

		for _, c := range cg.List {
			if !constraint.IsGoBuild(c.Text) {
				continue
			}

			expr, err := constraint.Parse(c.Text)
			if err != nil {
				continue
			}

			mentioned := false
			expr.Eval(func(tag string) bool {
				if tag == BuildTag {
					mentioned = true
				}
				return true
			})

			if mentioned {
				out = append(out, c)
			}
		}
	}

	return out
}
