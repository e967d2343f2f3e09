package feedback

import "errors"

var (
	ErrInvalidID       = errors.New("feedback.invalid_id")
	ErrInvalidFeedback = errors.New("feedback.invalid_payload")
)
