package views

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"
)

// Loading is the placeholder shown while the profile is fetched. It reloads
// itself every refresh.
func Loading(refresh time.Duration) templ.Component {
	secs := int(refresh.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta http-equiv="refresh" content="` + strconv.Itoa(secs) + `">`)
		p.raw(`<title>Loading · GrowWise</title></head>`)
		p.raw(`<body><main class="loading" aria-busy="true"><p>Loading your profile…</p></main></body></html>`)
		return p.err
	})
}
