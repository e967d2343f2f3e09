package feedback

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/growwise/pkg/sanitizer"
)

// API is the subset of the API client used here.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, out any) error
	PostJSON(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

func (s *Service) ManagerOverview(ctx context.Context) (Overview, error) {
	var out Overview
	if err := s.api.Get(ctx, "/dashboard/manager/overview", &out); err != nil {
		return Overview{}, err
	}
	return out, nil
}

func (s *Service) SentimentTrends(ctx context.Context) (SentimentTrends, error) {
	var out SentimentTrends
	if err := s.api.Get(ctx, "/dashboard/manager/sentiment_trends", &out); err != nil {
		return SentimentTrends{}, err
	}
	return out, nil
}

func (s *Service) TeamMembers(ctx context.Context) ([]Member, error) {
	var out []Member
	if err := s.api.Get(ctx, "/users/team", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ManagerFeedback lists the feedback the signed-in manager has written.
func (s *Service) ManagerFeedback(ctx context.Context) ([]Feedback, error) {
	var out []Feedback
	if err := s.api.Get(ctx, "/feedback/manager", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EmployeeFeedback lists the feedback the signed-in employee has received.
func (s *Service) EmployeeFeedback(ctx context.Context) ([]Feedback, error) {
	var out []Feedback
	if err := s.api.Get(ctx, "/feedback/employee", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in NewFeedback) (Feedback, error) {
	in.Strengths = sanitizer.Text(in.Strengths)
	in.AreasToImprove = sanitizer.Text(in.AreasToImprove)
	if in.EmployeeID <= 0 || !in.Sentiment.Valid() {
		return Feedback{}, ErrInvalidFeedback
	}

	var out Feedback
	if err := s.api.PostJSON(ctx, "/feedback/", in, &out); err != nil {
		return Feedback{}, err
	}
	return out, nil
}

func (s *Service) Acknowledge(ctx context.Context, id int64) (Feedback, error) {
	if id <= 0 {
		return Feedback{}, ErrInvalidID
	}
	var out Feedback
	if err := s.api.Post(ctx, fmt.Sprintf("/feedback/%d/acknowledge", id), &out); err != nil {
		return Feedback{}, err
	}
	return out, nil
}

func (s *Service) Notifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	if err := s.api.Get(ctx, "/feedback/notifications", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return s.api.Post(ctx, fmt.Sprintf("/feedback/notifications/%d/read", id), nil)
}

func (s *Service) ClearNotifications(ctx context.Context) error {
	return s.api.Delete(ctx, "/feedback/notifications/clear-all", nil)
}

// Unread counts notifications not yet marked read.
func Unread(list []Notification) int {
	n := 0
	for _, item := range list {
		if !item.Read {
			n++
		}
	}
	return n
}
