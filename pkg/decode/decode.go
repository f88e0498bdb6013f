// Package decode shapes a completed HTTP response into the caller's
// requested result kind. Result shaping is purely a function of the
// requested kind, never inferred from the response bytes.
package decode

import (
	"fmt"
	"io"
	"net/http"

	"github.com/ohler55/ojg/oj"
)

// Kind selects the result shape of an invocation.
type Kind string

// Result kinds.
const (
	// KindValue buffers the body and parses it as JSON.
	KindValue Kind = "value"
	// KindString buffers the body and returns it as literal text.
	KindString Kind = "string"
	// KindStream returns the live response body without buffering.
	KindStream Kind = "stream"
)

// maxErrorBody bounds how much of an error response is captured.
const maxErrorBody = 32 * 1024

// StatusError is returned for any non-2xx response, regardless of the
// requested result kind.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// DecodeError is returned when a value result cannot be parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode converts resp into the requested kind. For KindStream the
// body is returned open and becomes the caller's responsibility to
// close; for every other kind (and every error path) the body is
// drained and closed here.
func Decode(resp *http.Response, kind Kind) (any, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	switch kind {
	case KindStream:
		return resp.Body, nil

	case KindString:
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return string(body), nil

	case KindValue, "":
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if len(body) == 0 {
			return nil, &DecodeError{Err: fmt.Errorf("empty body cannot decode as a value")}
		}
		value, err := oj.Parse(body)
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		return value, nil

	default:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unknown result kind %q", kind)
	}
}
