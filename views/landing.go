package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/growwise/pkg/session"
)

type LandingData struct {
	SelectedRole string
	Error        string

	// Set when the visitor is already signed in.
	User     *session.Profile
	HomePath string
}

var roleCards = []struct {
	role, title, blurb string
}{
	{"manager", "Manager", "Give feedback and follow your team's progress."},
	{"employee", "Employee", "Read and acknowledge the feedback you receive."},
}

// Landing is the entry page: role cards, sign-in and sign-up forms.
func Landing(d LandingData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.raw(`<main class="landing"><h1>GrowWise</h1>`)

		if d.User != nil {
			p.raw(`<section class="signed-in"><p>Signed in as `)
			p.text(d.User.Name)
			p.raw(`.</p><a href="`)
			p.text(d.HomePath)
			p.raw(`">Go to dashboard</a>`)
			p.postButton("/auth/logout", "Sign out")
			p.raw(`</section></main>`)
			return p.err
		}

		p.raw(`<section class="roles">`)
		for _, c := range roleCards {
			p.raw(`<form method="post" action="/role" class="role-card`)
			if c.role == d.SelectedRole {
				p.raw(` selected`)
			}
			p.raw(`">`)
			p.hidden("role", c.role)
			p.raw(`<h2>`)
			p.text(c.title)
			p.raw(`</h2><p>`)
			p.text(c.blurb)
			p.raw(`</p><button type="submit">Continue as `)
			p.text(c.title)
			p.raw(`</button></form>`)
		}
		p.raw(`</section>`)

		if d.Error != "" {
			p.raw(`<div class="error" role="alert"><span>`)
			p.text(d.Error)
			p.raw(`</span>`)
			p.postButton("/auth/error/clear", "Dismiss")
			p.raw(`</div>`)
		}

		if d.SelectedRole != "" {
			p.raw(`<section class="auth"><form method="post" action="/auth/login"><h2>Sign in</h2>`)
			p.raw(`<label>Email <input type="email" name="email" required></label>`)
			p.raw(`<label>Password <input type="password" name="password" required></label>`)
			p.raw(`<button type="submit">Sign in</button></form>`)

			p.raw(`<form method="post" action="/auth/register"><h2>Create an account</h2>`)
			p.hidden("role", d.SelectedRole)
			p.raw(`<label>Name <input type="text" name="name" required></label>`)
			p.raw(`<label>Email <input type="email" name="email" required></label>`)
			p.raw(`<label>Password <input type="password" name="password" required></label>`)
			p.raw(`<button type="submit">Sign up</button></form></section>`)
		}

		p.raw(`</main>`)
		return p.err
	})
}
