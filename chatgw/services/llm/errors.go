package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"

	httputils "chatgw/chatgw/utils/http"
)

// ErrorKind tells callers why the inference server could not serve a call.
type ErrorKind int

const (
	KindUnreachable ErrorKind = iota
	KindTimeout
	KindHTTPStatus
	KindMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindMalformedResponse:
		return "malformed_response"
	}
	return "unknown"
}

// ErrUnavailable matches every *Error via errors.Is.
var ErrUnavailable = errors.New("ollama unavailable")

// Error is the only error type the client returns. The transport's own
// error is kept as Cause and never surfaces on its own.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	return target == ErrUnavailable
}

// Reason is a short, user-facing description of the failure.
func (e *Error) Reason() string {
	switch e.Kind {
	case KindTimeout:
		return "request timed out"
	case KindHTTPStatus:
		return fmt.Sprintf("HTTP %d", e.Status)
	case KindMalformedResponse:
		return "unexpected response"
	}
	return "connection failed"
}

// classify converts a transport or decode failure into an *Error.
func classify(op string, err error) *Error {
	var se *httputils.StatusError
	if errors.As(err, &se) {
		return &Error{
			Kind:    KindHTTPStatus,
			Message: fmt.Sprintf("%s: ollama returned HTTP %d", op, se.StatusCode),
			Status:  se.StatusCode,
		}
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Message: op + ": request timed out", Cause: err}
	}
	// Transport failures always come wrapped in *url.Error; a bare io.EOF
	// below is an empty 2xx body.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Kind: KindUnreachable, Message: op + ": cannot reach ollama", Cause: err}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &Error{Kind: KindMalformedResponse, Message: op + ": unexpected response shape", Cause: err}
	}
	return &Error{Kind: KindUnreachable, Message: op + ": cannot reach ollama", Cause: err}
}
