package tui

import (
	"errors"

	"github.com/sona-astrovision/astrochat/internal/api"
)

// userMessage extracts display text from a failed operation: the
// backend's structured message when present, else the error itself.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.UserMessage()
	}
	return err.Error()
}
