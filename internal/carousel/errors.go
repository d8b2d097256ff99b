// Package carousel turns source text into LinkedIn carousel content and
// serves the fetch-url and generate-carousel endpoints.
package carousel

import (
	"fmt"
	"net/http"
)

// Client-facing messages. Upstream detail is logged, never returned.
const (
	MsgURLRequired    = "URL is required"
	MsgFieldsRequired = "input_text and style are required"
	MsgInvalidStyle   = "Invalid style. Must be one of: hormozi, welsh, koe, custom"
	MsgBusy           = "AI service is busy. Please try again in a few moments."
	MsgAuthFailed     = "AI service authentication failed. Please contact support."
	MsgGenerateFailed = "Failed to generate content. Please try again."
	MsgParseFailed    = "Failed to parse AI response. Please try again."
	MsgInternal       = "Internal server error. Please try again."
)

// Error carries the HTTP status and the message a caller may see.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func badRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

func internal(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg, Err: err}
}
