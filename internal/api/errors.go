package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var errNoToken = errors.New("signin response carried no access_token")

// HTTPError is a non-2xx response from the server. Detail carries the
// server's own message when the error body was decodable; Code and
// RequestID are diagnostic extras the chat service attaches.
type HTTPError struct {
	Status    int
	Detail    string
	Code      string
	RequestID string
}

func (e *HTTPError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = http.StatusText(e.Status)
	}
	return fmt.Sprintf("server error (%d): %s", e.Status, detail)
}

// NetworkError means the request never reached the server (DNS failure,
// refused connection, timeout).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("cannot reach server at %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError means the server answered but the body was not the expected
// shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed server response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// errorBody is the server's error envelope. detail is either a bare string
// (auth and todo endpoints) or a structured object (chat endpoint).
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// newHTTPError shapes a non-2xx response into an HTTPError, tolerating
// every body the server is known to send. An undecodable body yields an
// HTTPError with an empty Detail rather than a second failure.
func newHTTPError(status int, body []byte) *HTTPError {
	he := &HTTPError{Status: status}
	var env errorBody
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return he
	}
	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		he.Detail = s
		return he
	}
	var d errorDetail
	if err := json.Unmarshal(env.Detail, &d); err == nil {
		he.Detail = d.Message
		he.Code = d.Code
		he.RequestID = d.RequestID
	}
	return he
}
