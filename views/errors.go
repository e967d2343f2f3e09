package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/growwise/handler"
)

func NotFound() templ.Component {
	return Layout("Not found", nil, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.raw(`<main class="not-found"><h1>Page not found</h1><a href="/">Back to GrowWise</a></main>`)
		return p.err
	}))
}

func ErrorPage(params handler.ErrorPageParams) templ.Component {
	return Layout("Error", nil, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.raw(`<main class="error-page"><h1>`)
		p.raw(strconv.Itoa(params.StatusCode))
		p.raw(`</h1><p>`)
		p.text(params.Error)
		p.raw(`</p>`)
		if params.RetryURL != "" {
			p.raw(`<a href="`)
			p.text(params.RetryURL)
			p.raw(`">Try again</a>`)
		}
		if params.RequestID != "" {
			p.raw(`<small>Request `)
			p.text(params.RequestID)
			p.raw(`</small>`)
		}
		p.raw(`</main>`)
		return p.err
	}))
}

func ErrorToast(params handler.ErrorToastParams) templ.Component {
	return Toast(params.Type, params.Message)
}
