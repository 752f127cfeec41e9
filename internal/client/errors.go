package client

import (
	"errors"
	"fmt"

	"github.com/planpress/planpress/internal/model"
)

// ServerError means the request reached the service and came back non-2xx.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Body)
}

// NetworkError means the request went out but no response arrived.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("no response from server: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError means a response arrived but did not carry the
// expected document shape.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Reason
}

// InvalidURLError means a URL field was present but is not syntactically a
// URL; the viewer must not attempt to render it.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return "invalid document URL: " + e.URL
}

// PollError reports a terminal non-success generation status. It is
// non-fatal; the user may re-check manually.
type PollError struct {
	Status  model.DocumentStatus
	Message string
}

func (e *PollError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("document generation %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("document generation %s", e.Status)
}

// ErrTemplateNotFound is returned when the service has no such template.
var ErrTemplateNotFound = errors.New("template not found")

// UserMessage collapses any request-layer error into the single string shown
// to the user; none of the taxonomy propagates uncaught past the view.
func UserMessage(err error) string {
	var serverErr *ServerError
	var netErr *NetworkError
	var malformed *MalformedResponseError
	var badURL *InvalidURLError
	var pollErr *PollError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTemplateNotFound):
		return "The requested template could not be found."
	case errors.As(err, &serverErr):
		return fmt.Sprintf("The server rejected the request (%d). Please try again.", serverErr.Status)
	case errors.As(err, &netErr):
		return "No response from the server. Check your connection and try again."
	case errors.As(err, &malformed):
		return "The server response did not have the expected format."
	case errors.As(err, &badURL):
		return "The generated document URL is not valid: " + badURL.URL
	case errors.As(err, &pollErr):
		return "Document generation failed. You can re-check the status or resubmit."
	default:
		return "Something went wrong: " + err.Error()
	}
}
