package diag

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	posStyle  = lipgloss.NewStyle().Bold(true)
	kindStyle = map[Kind]lipgloss.Style{
		Usage:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")), // yellow
		Config:  lipgloss.NewStyle().Foreground(lipgloss.Color("5")), // magenta
		Parse:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // red
		Service: lipgloss.NewStyle().Foreground(lipgloss.Color("6")), // cyan
	}
)

// Render writes every diagnostic carried by err to w, one per line, sorted
// by position.
func Render(w io.Writer, err error) {
	l := Flatten(err)
	l.Sort()

	for _, e := range l {
		msg := e.message()
		kind := kindStyle[e.Kind].Render(e.Kind.String() + " error")

		if e.Pos.IsValid() {
			_, _ = fmt.Fprintf(w, "%s: %s: %s\n", posStyle.Render(e.Pos.String()), kind, msg)
		} else {
			_, _ = fmt.Fprintf(w, "%s: %s\n", kind, msg)
		}
	}
}
