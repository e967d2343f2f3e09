package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// page accumulates the first write error so components read top to bottom.
type page struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newPage(ctx context.Context, w io.Writer) *page {
	return &page{ctx: ctx, w: w}
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *page) int(n int64) {
	p.raw(strconv.FormatInt(n, 10))
}

func (p *page) render(c templ.Component) {
	if p.err == nil && c != nil {
		p.err = c.Render(p.ctx, p.w)
	}
}

func (p *page) hidden(name, value string) {
	p.raw(`<input type="hidden" name="`)
	p.text(name)
	p.raw(`" value="`)
	p.text(value)
	p.raw(`">`)
}

func (p *page) postButton(action, label string) {
	p.raw(`<form method="post" action="`)
	p.text(action)
	p.raw(`"><button type="submit">`)
	p.text(label)
	p.raw(`</button></form>`)
}
