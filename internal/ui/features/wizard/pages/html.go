// Package pages renders the wizard as templ components.
package pages

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// writer accumulates markup. Text and attribute values are escaped; raw
// markup is written as is.
type writer struct {
	strings.Builder
}

func (w *writer) raw(parts ...string) {
	for _, p := range parts {
		w.WriteString(p)
	}
}

func (w *writer) text(s string) {
	w.WriteString(templ.EscapeString(s))
}

// open writes a start tag. attrs are name/value pairs; a pair with an empty
// name is skipped so optional attributes can be passed inline.
func (w *writer) open(tag string, attrs ...string) {
	w.raw("<", tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == "" {
			continue
		}
		fmt.Fprintf(&w.Builder, ` %s="%s"`, attrs[i], templ.EscapeString(attrs[i+1]))
	}
	w.raw(">")
}

func (w *writer) close(tag string) {
	w.raw("</", tag, ">")
}

// element writes a start tag, escaped text and the end tag.
func (w *writer) element(tag, text string, attrs ...string) {
	w.open(tag, attrs...)
	w.text(text)
	w.close(tag)
}

// component adapts a markup function to templ.Component.
func component(fn func(w *writer)) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		var w writer
		fn(&w)
		_, err := io.WriteString(out, w.String())
		return err
	})
}

// when returns name when cond holds and "" otherwise, for optional attributes.
func when(cond bool, name string) string {
	if cond {
		return name
	}
	return ""
}

func classes(names ...string) string {
	var out []string
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, " ")
}
