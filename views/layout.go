package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/growwise/pkg/notifications"
)

// Layout wraps body in the document shell and shows queued notices.
func Layout(title string, notices []notifications.Notice, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(title)
		p.raw(` · GrowWise</title>`)
		p.raw(`<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"></script>`)
		p.raw(`</head><body>`)
		p.render(Notices(notices))
		p.render(body)
		p.raw(`</body></html>`)
		return p.err
	})
}

// Notices renders the toast container with any pending notices.
func Notices(list []notifications.Notice) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.raw(`<div id="toasts" class="toasts">`)
		for _, n := range list {
			p.render(Toast(string(n.Type), n.Message))
		}
		p.raw(`</div>`)
		return p.err
	})
}

func Toast(kind, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.raw(`<div class="toast toast-`)
		p.text(kind)
		p.raw(`" role="status">`)
		p.text(message)
		p.raw(`</div>`)
		return p.err
	})
}
