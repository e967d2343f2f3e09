package views

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/growwise/pkg/session"
	"github.com/dmitrymomot/growwise/svc/feedback"
)

// Section is one independently loaded slice of a dashboard. Err is shown
// in place of the data when the load failed.
type Section[T any] struct {
	Data T
	Err  string
}

type ManagerData struct {
	User     *session.Profile
	Overview Section[feedback.Overview]
	Trends   Section[feedback.SentimentTrends]
	Team     Section[[]feedback.Member]
	Feedback Section[[]feedback.Feedback]
}

type EmployeeData struct {
	User          *session.Profile
	Feedback      Section[[]feedback.Feedback]
	Notifications Section[[]feedback.Notification]
}

func header(p *page, title string, user *session.Profile) {
	p.raw(`<header class="dashboard-header"><h1>`)
	p.text(title)
	p.raw(`</h1>`)
	if user != nil {
		p.raw(`<span class="user">`)
		p.text(user.Name)
		p.raw(`</span>`)
	}
	p.postButton("/auth/logout", "Sign out")
	p.raw(`</header>`)
}

func sectionError(p *page, msg string) bool {
	if msg == "" {
		return false
	}
	p.raw(`<p class="section-error">`)
	p.text(msg)
	p.raw(`</p>`)
	return true
}

func ManagerDashboard(d ManagerData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		header(p, "Team overview", d.User)
		p.raw(`<main class="dashboard manager">`)

		p.raw(`<section id="overview"><h2>Feedback per team member</h2>`)
		if !sectionError(p, d.Overview.Err) {
			ids := make([]string, 0, len(d.Overview.Data.TeamFeedbackCounts))
			for id := range d.Overview.Data.TeamFeedbackCounts {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			p.raw(`<ul>`)
			for _, id := range ids {
				c := d.Overview.Data.TeamFeedbackCounts[id]
				p.raw(`<li>`)
				p.text(c.Name)
				p.raw(`: `)
				p.raw(strconv.Itoa(c.FeedbackCount))
				p.raw(`</li>`)
			}
			p.raw(`</ul>`)
		}
		p.raw(`</section>`)

		p.raw(`<section id="trends"><h2>Sentiment this year</h2>`)
		if !sectionError(p, d.Trends.Err) {
			months := make([]string, 0, len(d.Trends.Data.Months))
			for m := range d.Trends.Data.Months {
				months = append(months, m)
			}
			sort.Slice(months, func(i, j int) bool {
				a, _ := strconv.Atoi(months[i])
				b, _ := strconv.Atoi(months[j])
				return a < b
			})
			p.raw(`<table><tr><th>Month</th><th>Positive</th><th>Neutral</th><th>Negative</th></tr>`)
			for _, m := range months {
				counts := d.Trends.Data.Months[m]
				p.raw(`<tr><td>`)
				p.text(m)
				p.raw(fmt.Sprintf(`</td><td>%d</td><td>%d</td><td>%d</td></tr>`,
					counts[feedback.SentimentPositive], counts[feedback.SentimentNeutral], counts[feedback.SentimentNegative]))
			}
			p.raw(`</table>`)
		}
		p.raw(`</section>`)

		p.raw(`<section id="team"><h2>Team</h2>`)
		if !sectionError(p, d.Team.Err) {
			p.raw(`<ul>`)
			for _, m := range d.Team.Data {
				p.raw(`<li>`)
				p.text(m.Name)
				p.raw(` <small>`)
				p.text(m.Email)
				p.raw(`</small></li>`)
			}
			p.raw(`</ul>`)
			p.render(FeedbackForm(d.Team.Data))
		}
		p.raw(`</section>`)

		p.raw(`<section id="given"><h2>Feedback given</h2>`)
		if !sectionError(p, d.Feedback.Err) {
			for _, fb := range d.Feedback.Data {
				p.render(FeedbackCard(fb, false))
			}
		}
		p.raw(`</section></main>`)
		return p.err
	})
}

// FeedbackForm lets a manager write feedback for a team member.
func FeedbackForm(team []feedback.Member) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(team) == 0 {
			return nil
		}
		p := newPage(ctx, w)
		p.raw(`<form method="post" action="/dashboard/manager/feedback" class="feedback-form"><h3>New feedback</h3>`)
		p.raw(`<select name="employee_id" required>`)
		for _, m := range team {
			p.raw(`<option value="`)
			p.int(m.ID)
			p.raw(`">`)
			p.text(m.Name)
			p.raw(`</option>`)
		}
		p.raw(`</select>`)
		p.raw(`<textarea name="strengths" placeholder="Strengths"></textarea>`)
		p.raw(`<textarea name="areas_to_improve" placeholder="Areas to improve"></textarea>`)
		p.raw(`<select name="sentiment">`)
		for _, s := range []feedback.Sentiment{feedback.SentimentPositive, feedback.SentimentNeutral, feedback.SentimentNegative} {
			p.raw(`<option value="`)
			p.text(string(s))
			p.raw(`">`)
			p.text(string(s))
			p.raw(`</option>`)
		}
		p.raw(`</select><button type="submit">Send</button></form>`)
		return p.err
	})
}

// FeedbackCard renders one feedback entry. Its element id lets DataStar
// morph a single card after it was acknowledged.
func FeedbackCard(fb feedback.Feedback, canAcknowledge bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.raw(`<article class="feedback sentiment-`)
		p.text(string(fb.Sentiment))
		p.raw(`" id="feedback-`)
		p.int(fb.ID)
		p.raw(`"><time>`)
		if !fb.CreatedAt.IsZero() {
			p.text(fb.CreatedAt.Format("2 Jan 2006"))
		}
		p.raw(`</time><h3>Strengths</h3><p>`)
		p.text(fb.Strengths)
		p.raw(`</p><h3>Areas to improve</h3><p>`)
		p.text(fb.AreasToImprove)
		p.raw(`</p>`)

		switch {
		case fb.Acknowledged:
			p.raw(`<span class="acknowledged">Acknowledged</span>`)
		case canAcknowledge:
			action := fmt.Sprintf("/dashboard/employee/feedback/%d/acknowledge", fb.ID)
			p.raw(`<form method="post" action="`)
			p.text(action)
			p.raw(`" data-on-submit__prevent="@post('`)
			p.text(action)
			p.raw(`')"><button type="submit">Acknowledge</button></form>`)
		}
		p.raw(`</article>`)
		return p.err
	})
}

func EmployeeDashboard(d EmployeeData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		header(p, "My feedback", d.User)
		p.raw(`<main class="dashboard employee">`)

		p.raw(`<section id="notifications"><h2>Notifications`)
		if d.Notifications.Err == "" {
			if n := feedback.Unread(d.Notifications.Data); n > 0 {
				p.raw(` <span class="badge">`)
				p.raw(strconv.Itoa(n))
				p.raw(`</span>`)
			}
		}
		p.raw(`</h2>`)
		if !sectionError(p, d.Notifications.Err) {
			p.raw(`<ul>`)
			for _, n := range d.Notifications.Data {
				p.raw(`<li class="`)
				if n.Read {
					p.raw(`read`)
				} else {
					p.raw(`unread`)
				}
				p.raw(`">`)
				p.text(n.Message)
				if !n.Read {
					p.postButton(fmt.Sprintf("/dashboard/employee/notifications/%d/read", n.ID), "Mark read")
				}
				p.raw(`</li>`)
			}
			p.raw(`</ul>`)
			if len(d.Notifications.Data) > 0 {
				p.postButton("/dashboard/employee/notifications/clear", "Clear all")
			}
		}
		p.raw(`</section>`)

		p.raw(`<section id="received"><h2>Feedback received</h2>`)
		if !sectionError(p, d.Feedback.Err) {
			if len(d.Feedback.Data) == 0 {
				p.raw(`<p class="empty">No feedback yet.</p>`)
			}
			for _, fb := range d.Feedback.Data {
				p.render(FeedbackCard(fb, true))
			}
		}
		p.raw(`</section></main>`)
		return p.err
	})
}
