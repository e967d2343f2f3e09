package feedback

import "time"

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Feedback is one review written by a manager for an employee.
type Feedback struct {
	ID             int64     `json:"id"`
	ManagerID      int64     `json:"manager_id"`
	EmployeeID     int64     `json:"employee_id"`
	Strengths      string    `json:"strengths"`
	AreasToImprove string    `json:"areas_to_improve"`
	Sentiment      Sentiment `json:"sentiment"`
	Acknowledged   bool      `json:"acknowledged"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewFeedback is the create payload.
type NewFeedback struct {
	EmployeeID     int64     `json:"employee_id"`
	Strengths      string    `json:"strengths"`
	AreasToImprove string    `json:"areas_to_improve"`
	Sentiment      Sentiment `json:"sentiment"`
}

type Member struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ManagerID *int64 `json:"manager_id,omitempty"`
}

type MemberCount struct {
	Name          string `json:"name"`
	FeedbackCount int    `json:"feedback_count"`
}

// Overview is the manager dashboard summary keyed by employee id.
type Overview struct {
	TeamFeedbackCounts map[string]MemberCount `json:"team_feedback_counts"`
}

// SentimentTrends maps month number to per-sentiment counts for the current year.
type SentimentTrends struct {
	Months map[string]map[Sentiment]int `json:"sentiment_trends"`
}

type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
