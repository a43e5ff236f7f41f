package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// User-facing messages.
const (
	MsgSessionExpired     = "Session expired. Please sign in again."
	MsgGeneric            = "An error occurred."
	MsgServer             = "Server error"
	MsgNetwork            = "Network error"
	MsgInvalidCredentials = "Incorrect email or password"
)

var (
	// ErrSessionExpired is returned after a 401 cleared the stored token.
	ErrSessionExpired = errors.New(MsgSessionExpired)
	ErrNetwork        = errors.New(MsgNetwork)
)

// Error is a non-2xx answer from the API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Message returns the text to show a user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrSessionExpired):
		return MsgSessionExpired
	case errors.Is(err, ErrNetwork):
		return MsgNetwork
	}
	return MsgGeneric
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Msg string `json:"msg"`
}

// errorMessage extracts a display message from an error body. FastAPI-style
// bodies carry either {"detail": "text"} or {"detail": [{"msg": "..."}]}.
func errorMessage(body []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return MsgServer
	}
	if len(eb.Detail) == 0 || string(eb.Detail) == "null" {
		return fallback
	}

	var text string
	if err := json.Unmarshal(eb.Detail, &text); err == nil {
		if text == "" {
			return fallback
		}
		return text
	}

	var issues []validationIssue
	if err := json.Unmarshal(eb.Detail, &issues); err == nil {
		msgs := make([]string, 0, len(issues))
		for _, is := range issues {
			if is.Msg != "" {
				msgs = append(msgs, is.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fallback
}
