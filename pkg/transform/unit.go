package transform

import (
	"go/ast"

	"github.com/germanamz/aibindgen/pkg/directive"
)

// Kind is the shape of an annotated unit.
type Kind int

const (
	// KindUnsupported is any annotated construct the transform does not handle.
	KindUnsupported Kind = iota
	// KindBlock is a file whose package clause carries the directive. Its
	// declarations are re-emitted, each annotated one as its own unit.
	KindBlock
	// KindDecl is a function or method declaration without a body.
	KindDecl
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindDecl:
		return "declaration"
	}
	return "unsupported"
}

// Unit is an annotated syntactic unit. Exactly one of File and Func is set,
// matching Kind; neither is set for KindUnsupported.
type Unit struct {
	Kind      Kind
	Directive directive.Directive
	Node      ast.Node // The annotated node, used as the fallback span.
	File      *ast.File
	Func      *ast.FuncDecl
}

// Classify determines the shape of node annotated with d.
func Classify(node ast.Node, d directive.Directive) Unit {
	u := Unit{Kind: KindUnsupported, Directive: d, Node: node}

	switch n := node.(type) {
	case *ast.File:
		u.Kind = KindBlock
		u.File = n
	case *ast.FuncDecl:
		if n.Body == nil {
			u.Kind = KindDecl
			u.Func = n
		}
	}

	return u
}
