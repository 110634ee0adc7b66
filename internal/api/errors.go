package api

import (
	"encoding/json"
	"net/http"
)

const genericMessage = "Something went wrong. Please try again."

// RequestError is a failed backend call: a transport error, a timeout, or
// a non-2xx response. Messages holds the backend's structured validation
// messages when present; the first one is what gets shown to the user.
type RequestError struct {
	Status   int
	Messages []string
	cause    error
}

func (e *RequestError) Error() string {
	if len(e.Messages) > 0 {
		return e.Messages[0]
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	if e.Status != 0 {
		return "server error: " + http.StatusText(e.Status)
	}
	return genericMessage
}

func (e *RequestError) Unwrap() error { return e.cause }

// UserMessage returns the text to surface in the UI: the first
// server-supplied message, else a generic fallback.
func (e *RequestError) UserMessage() string {
	if len(e.Messages) > 0 {
		return e.Messages[0]
	}
	return genericMessage
}

// errorBody matches the backend's error envelope. detail is either a plain
// string or a list of validation objects with a msg field.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Msg string `json:"msg"`
}

func parseError(status int, raw []byte) *RequestError {
	reqErr := &RequestError{Status: status}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return reqErr
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil && s != "" {
		reqErr.Messages = []string{s}
		return reqErr
	}

	var items []validationItem
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		for _, it := range items {
			if it.Msg != "" {
				reqErr.Messages = append(reqErr.Messages, it.Msg)
			}
		}
	}
	return reqErr
}
