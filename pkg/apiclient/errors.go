package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("apiclient.unauthorized")
	ErrNotFound     = errors.New("apiclient.not_found")
	ErrTransport    = errors.New("apiclient.transport_failed")
	ErrDecode       = errors.New("apiclient.decode_failed")
	ErrEncode       = errors.New("apiclient.encode_failed")
	ErrInvalidURL   = errors.New("apiclient.invalid_base_url")
)

// Error is a non-2xx API response.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("apiclient: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("apiclient: %d %s", e.Status, e.Detail)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Message returns the API's detail text, or fallback when there is none.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// decodeDetail extracts a human readable message from an error body.
// FastAPI sends either {"detail": "text"} or
// {"detail": [{"loc": [...], "msg": "text", ...}]}.
func decodeDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		for _, item := range items {
			if item.Msg != "" {
				return item.Msg
			}
		}
	}
	return ""
}
