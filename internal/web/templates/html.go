// Package templates renders the dashboard's HTML as templ components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// html writes markup, remembering the first write error so callers can chain
// calls and check once.
type html struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newHTML(ctx context.Context, w io.Writer) *html {
	return &html{ctx: ctx, w: w}
}

// raw writes trusted markup.
func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// text writes escaped text.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) textf(format string, args ...any) {
	h.text(fmt.Sprintf(format, args...))
}

// open writes a start tag with escaped attribute pairs.
func (h *html) open(tag string, attrs ...string) {
	h.raw("<" + tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		h.raw(" " + attrs[i] + `="`)
		h.text(attrs[i+1])
		h.raw(`"`)
	}
	h.raw(">")
}

func (h *html) close(tag string) {
	h.raw("</" + tag + ">")
}

// elem writes <tag attrs>text</tag>.
func (h *html) elem(tag, text string, attrs ...string) {
	h.open(tag, attrs...)
	h.text(text)
	h.close(tag)
}

func (h *html) component(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

// flag returns the attribute pair for a boolean attribute, or nothing.
func flag(name string, on bool) []string {
	if !on {
		return nil
	}
	return []string{name, name}
}
