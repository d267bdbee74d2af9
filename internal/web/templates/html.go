// Package templates renders the analyser's HTML pages as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// html writes markup to w and keeps the first write error.
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
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// rawf writes formatted trusted markup. Arguments are not escaped.
func (h *html) rawf(format string, args ...any) {
	if h.err == nil {
		_, h.err = fmt.Fprintf(h.w, format, args...)
	}
}

// text writes s HTML-escaped.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// int writes n in decimal.
func (h *html) int(n int64) {
	h.raw(strconv.FormatInt(n, 10))
}

// render writes a child component.
func (h *html) render(c templ.Component) {
	if h.err == nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

// tag writes <name class="class">text</name>.
func (h *html) tag(name, class, text string) {
	if class != "" {
		h.rawf(`<%s class="%s">`, name, templ.EscapeString(class))
	} else {
		h.rawf("<%s>", name)
	}
	h.text(text)
	h.rawf("</%s>", name)
}
