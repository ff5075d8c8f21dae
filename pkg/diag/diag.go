// Package diag carries positioned diagnostics from the transform pipeline to
// the command line. Diagnostics print as file:line:col: message, the format
// the Go toolchain uses, so editors can jump to the annotated declaration.
package diag

import (
	"errors"
	"fmt"
	"go/token"
	"sort"
	"strings"
)

// Kind classifies a diagnostic.
type Kind int

const (
	// Usage is a malformed or disallowed //ai:gen usage.
	Usage Kind = iota + 1
	// Config is a missing or invalid credential/endpoint setting.
	Config
	// Parse is a literal of the wrong kind or generated text that is not valid Go.
	Parse
	// Service is a failure reported by, or while talking to, the generation service.
	Service
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Usage:
		return "usage"
	case Config:
		return "config"
	case Parse:
		return "parse"
	case Service:
		return "service"
	}
	return "unknown"
}

// Error is a diagnostic anchored to a source position.
type Error struct {
	Kind Kind
	Pos  token.Position // Zero when no position is known.
	Msg  string
	Err  error // Optional cause.
}

// New creates a diagnostic with the given kind, position, and message.
func New(kind Kind, pos token.Position, msg string) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: msg}
}

// Errorf creates a diagnostic with a formatted message.
func Errorf(kind Kind, pos token.Position, format string, args ...any) *Error {
	return New(kind, pos, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return e.Pos.String() + ": " + e.message()
	}
	return e.message()
}

// message is the diagnostic text without its position.
func (e *Error) message() string {
	switch {
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap anchors err at pos. If err already is (or wraps) a positioned
// diagnostic, that diagnostic is returned unchanged so the more specific
// location wins. An unpositioned diagnostic is copied and moved to pos;
// any other error becomes the cause of a new diagnostic of the given kind.
func Wrap(err error, kind Kind, pos token.Position) *Error {
	if err == nil {
		return nil
	}

	var d *Error
	if errors.As(err, &d) {
		if d.Pos.IsValid() {
			return d
		}

		cp := *d
		cp.Pos = pos

		return &cp
	}

	return &Error{Kind: kind, Pos: pos, Err: err}
}

// List is an ordered collection of diagnostics. It implements error so a
// whole batch can travel through a single error return.
type List []*Error

// Add appends err to the list. Lists are flattened and plain errors are
// stored without a position.
func (l *List) Add(err error) {
	if err == nil {
		return
	}

	var list List
	if errors.As(err, &list) {
		*l = append(*l, list...)
		return
	}

	*l = append(*l, Wrap(err, Usage, token.Position{}))
}

// Sort orders the list by file, line, and column.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i].Pos, l[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Err returns nil for an empty list and the list itself otherwise.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}

	lines := make([]string, len(l))
	for i, e := range l {
		lines[i] = e.Error()
	}

	return strings.Join(lines, "\n")
}

// Unwrap exposes the diagnostics to errors.Is and errors.As.
func (l List) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// Flatten returns the diagnostics carried by err, in order. Errors that are
// neither an *Error nor a List come back as a single unpositioned entry.
func Flatten(err error) List {
	var l List
	l.Add(err)
	return l
}
