// Package request assembles concrete HTTP requests from an operation
// definition and a parameter map. All validation happens here, before
// any network I/O: unknown names, missing required parameters, and
// conflicting body parameters are rejected synchronously.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dockhand/dockhand/pkg/catalog"
)

// MissingParameterError names a required parameter that was not
// supplied.
type MissingParameterError struct {
	Operation string
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("operation %s: missing required parameter %q", e.Operation, e.Parameter)
}

// UnknownParameterError rejects a parameter name the operation does
// not declare. Typos fail fast instead of being silently dropped.
type UnknownParameterError struct {
	Operation string
	Parameter string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("operation %s: unknown parameter %q", e.Operation, e.Parameter)
}

// ConflictingBodyError is returned when both a JSON body parameter and
// a stream parameter are supplied; a request has only one body.
type ConflictingBodyError struct {
	Operation string
}

func (e *ConflictingBodyError) Error() string {
	return fmt.Sprintf("operation %s: body and stream parameters are mutually exclusive", e.Operation)
}

// Build constructs the HTTP request for one invocation. The stream
// parameter value must be an io.Reader; its bytes become the request
// body verbatim. A body parameter value is JSON-encoded.
func Build(ctx context.Context, baseURL string, op *catalog.Operation, params map[string]any) (*http.Request, error) {
	path := op.PathTemplate
	query := url.Values{}
	headers := http.Header{}

	var jsonBody any
	var hasJSONBody bool
	var streamBody io.Reader

	for name, value := range params {
		p := op.Param(name)
		if p == nil {
			return nil, &UnknownParameterError{Operation: op.Name, Parameter: name}
		}
		switch p.Kind {
		case catalog.ParamPath:
			path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(stringify(value)))
		case catalog.ParamQuery:
			query.Set(name, stringify(value))
		case catalog.ParamHeader:
			headers.Set(name, stringify(value))
		case catalog.ParamBody:
			jsonBody = value
			hasJSONBody = true
		case catalog.ParamStream:
			r, ok := value.(io.Reader)
			if !ok {
				return nil, fmt.Errorf("operation %s: stream parameter %q must be an io.Reader, got %T", op.Name, name, value)
			}
			streamBody = r
		}
	}

	if hasJSONBody && streamBody != nil {
		return nil, &ConflictingBodyError{Operation: op.Name}
	}

	for _, p := range op.Params {
		if !p.Required {
			continue
		}
		if _, ok := params[p.Name]; !ok {
			return nil, &MissingParameterError{Operation: op.Name, Parameter: p.Name}
		}
	}

	var body io.Reader
	contentType := ""
	switch {
	case streamBody != nil:
		body = streamBody
		contentType = "application/octet-stream"
	case hasJSONBody:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(jsonBody); err != nil {
			return nil, fmt.Errorf("operation %s: encode body: %w", op.Name, err)
		}
		body = &buf
		contentType = "application/json"
	}

	target := baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("operation %s: build request: %w", op.Name, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for name, values := range headers {
		req.Header[name] = values
	}
	return req, nil
}

// stringify renders a parameter value for a path, query, or header
// slot. Maps and slices are JSON-encoded, matching the engine's
// filters convention; everything else uses its natural formatting.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case map[string]any, map[string][]string, []any, []string:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
