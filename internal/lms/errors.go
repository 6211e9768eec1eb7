package lms

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized means the access token is invalid or expired.
	ErrUnauthorized = errors.New("lms: unauthorized")
	// ErrForbidden means the token's user lacks permission for the resource.
	ErrForbidden = errors.New("lms: forbidden")
	// ErrNotFound means the remote resource does not exist.
	ErrNotFound = errors.New("lms: not found")
)

// RemoteError is a non-2xx response from the LMS. It unwraps to ErrUnauthorized,
// ErrForbidden or ErrNotFound for those statuses.
type RemoteError struct {
	StatusCode int
	// Body is the raw response body.
	Body string
	// Message is the remote-provided detail; for 403 it is passed through verbatim.
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("Canvas error %d: %s", e.StatusCode, e.Message)
}

func (e *RemoteError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// StatusCode returns the remote HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}

type errorBody struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Message string `json:"message"`
}

// classify builds the typed error for a non-2xx response.
func classify(status int, body []byte) error {
	raw := string(body)
	msg := raw
	switch status {
	case http.StatusUnauthorized:
		msg = "Canvas access token invalid or expired"
	default:
		if m := remoteMessage(body); m != "" {
			msg = m
		}
	}
	return &RemoteError{StatusCode: status, Body: raw, Message: msg}
}

// remoteMessage extracts {"errors":[{"message":...}]} or {"message":...} from a Canvas error body.
func remoteMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(eb.Errors))
	for _, e := range eb.Errors {
		if e.Message != "" {
			msgs = append(msgs, e.Message)
		}
	}
	if len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}
	return eb.Message
}
