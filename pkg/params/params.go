// Package params parses the arguments of an //ai:gen directive into typed
// generation parameters.
package params

import (
	"fmt"
	"go/scanner"
	"go/token"
	"strconv"

	"github.com/germanamz/aibindgen/pkg/diag"
)

// Params holds the generation parameters of one declaration.
// A nil field is unset and defers to a resolved or service default.
type Params struct {
	Prompt           *string
	Model            *string
	Temperature      *float64
	TopP             *float64
	PresencePenalty  *float64
	FrequencyPenalty *float64
	MaxTokens        *int
}

// literalKind is the literal a property requires.
type literalKind int

const (
	text literalKind = iota
	float
	integer
)

func (k literalKind) String() string {
	switch k {
	case text:
		return "string literal"
	case float:
		return "float literal"
	default:
		return "integer literal"
	}
}

// properties maps each recognized argument name to its literal kind.
var properties = map[string]literalKind{
	"prompt":            text,
	"model":             text,
	"temperature":       float,
	"top_p":             float,
	"presence_penalty":  float,
	"frequency_penalty": float,
	"max_tokens":        integer,
}

// Names returns the recognized argument names in a stable order.
func Names() []string {
	return []string{"prompt", "model", "temperature", "top_p", "presence_penalty", "frequency_penalty", "max_tokens"}
}

type item struct {
	off int
	tok token.Token
	lit string
}

// Parse parses directive arguments of the form
//
//	name = literal {, name = literal} [,]
//
// base is the position of the first byte of src; the returned *diag.Error
// points at the offending name or literal. Missing arguments stay nil.
// Unknown names and repeated names are usage errors; a literal of the wrong
// kind is a parse error.
func Parse(src string, base token.Position) (Params, error) {
	items, err := scan(src, base)
	if err != nil {
		return Params{}, err
	}

	var (
		p    Params
		seen = make(map[string]bool)
		i    int
	)

	next := func() item {
		it := items[i]
		if it.tok != token.EOF {
			i++
		}
		return it
	}

	for {
		name := next()
		if name.tok == token.EOF {
			return p, nil
		}

		if name.tok != token.IDENT {
			return Params{}, diag.Errorf(diag.Usage, at(base, name.off), "expected property name, found %s", describe(name))
		}

		kind, ok := properties[name.lit]
		if !ok {
			return Params{}, diag.Errorf(diag.Usage, at(base, name.off), "unsupported property %q", name.lit)
		}

		if seen[name.lit] {
			return Params{}, diag.Errorf(diag.Usage, at(base, name.off), "duplicate property %q", name.lit)
		}
		seen[name.lit] = true

		if eq := next(); eq.tok != token.ASSIGN {
			return Params{}, diag.Errorf(diag.Usage, at(base, eq.off), "expected '=' after %s, found %s", name.lit, describe(eq))
		}

		value := next()
		neg := false
		if value.tok == token.SUB {
			neg = true
			value = next()
		}

		if err := p.set(name.lit, kind, value, neg, base); err != nil {
			return Params{}, err
		}

		switch sep := next(); sep.tok {
		case token.COMMA:
		case token.EOF:
			return p, nil
		default:
			return Params{}, diag.Errorf(diag.Usage, at(base, sep.off), "expected ',' after %s, found %s", name.lit, describe(sep))
		}
	}
}

// set stores the literal in the field named by name.
func (p *Params) set(name string, kind literalKind, v item, neg bool, base token.Position) error {
	mismatch := func() error {
		return diag.Errorf(diag.Parse, at(base, v.off), "%s: expected %s, found %s", name, kind, describe(v))
	}

	switch kind {
	case text:
		if neg || v.tok != token.STRING {
			return mismatch()
		}

		s, err := strconv.Unquote(v.lit)
		if err != nil {
			return mismatch()
		}

		switch name {
		case "prompt":
			p.Prompt = &s
		case "model":
			p.Model = &s
		}

	case float:
		if v.tok != token.FLOAT {
			return mismatch()
		}

		f, err := strconv.ParseFloat(v.lit, 64)
		if err != nil {
			return diag.Errorf(diag.Parse, at(base, v.off), "%s: %v", name, err)
		}
		if neg {
			f = -f
		}

		switch name {
		case "temperature":
			p.Temperature = &f
		case "top_p":
			p.TopP = &f
		case "presence_penalty":
			p.PresencePenalty = &f
		case "frequency_penalty":
			p.FrequencyPenalty = &f
		}

	case integer:
		if v.tok != token.INT {
			return mismatch()
		}

		n, err := strconv.ParseInt(v.lit, 0, strconv.IntSize)
		if err != nil {
			return diag.Errorf(diag.Parse, at(base, v.off), "%s: %v", name, err)
		}
		if neg {
			n = -n
		}

		m := int(n)
		p.MaxTokens = &m
	}

	return nil
}

// scan tokenizes src with the Go scanner. Newline-inserted semicolons are
// dropped; the returned slice always ends with an EOF item.
func scan(src string, base token.Position) ([]item, error) {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var scanErr error

	var s scanner.Scanner
	s.Init(file, []byte(src), func(pos token.Position, msg string) {
		if scanErr == nil {
			scanErr = diag.New(diag.Parse, at(base, pos.Offset), msg)
		}
	}, 0)

	var items []item
	for {
		pos, tok, lit := s.Scan()
		if scanErr != nil {
			return nil, scanErr
		}

		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}

		items = append(items, item{off: file.Offset(pos), tok: tok, lit: lit})
		if tok == token.EOF {
			return items, nil
		}
	}
}

// at returns the position offset bytes past base. Directives are single
// line comments, so the column advances with the offset.
func at(base token.Position, offset int) token.Position {
	if !base.IsValid() {
		return token.Position{}
	}

	base.Offset += offset
	base.Column += offset

	return base
}

func describe(it item) string {
	switch {
	case it.tok == token.EOF:
		return "end of directive"
	case it.lit != "":
		return it.lit
	}
	return fmt.Sprintf("'%s'", it.tok)
}
