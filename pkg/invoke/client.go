// Package invoke executes named engine operations over a transport
// connection, synchronously or through a callback, with cancellation
// of in-flight streaming calls.
package invoke

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/dockhand/dockhand/pkg/catalog"
	"github.com/dockhand/dockhand/pkg/decode"
	"github.com/dockhand/dockhand/pkg/logging"
	"github.com/dockhand/dockhand/pkg/request"
	"github.com/dockhand/dockhand/pkg/transport"
)

// Client binds one operation category of one API version to a
// connection. A connection supports any number of clients and
// concurrent in-flight invocations.
type Client struct {
	conn     *transport.Connection
	cat      *catalog.Catalog
	category string
	version  string
	log      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithVersion pins the client to a specific API version instead of
// the latest known one.
func WithVersion(version string) Option {
	return func(c *Client) { c.version = version }
}

// WithCatalog substitutes the shared process-wide catalog.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *Client) { c.cat = cat }
}

// WithLogger injects a logger for debug-level dispatch tracing.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient binds category on conn. The category must exist in the
// resolved API version.
func NewClient(conn *transport.Connection, category string, opts ...Option) (*Client, error) {
	c := &Client{
		conn:     conn,
		cat:      catalog.Default(),
		category: category,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.version = catalog.Resolve(c.version)

	categories, err := c.cat.Categories(c.version)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(categories, category) {
		return nil, &catalog.UnknownCategoryError{Category: category, Version: c.version}
	}
	return c, nil
}

// Category returns the bound category name.
func (c *Client) Category() string { return c.category }

// Version returns the resolved API version.
func (c *Client) Version() string { return c.version }

// Request describes one invocation of a named operation.
type Request struct {
	// Op is the operation name within the client's category.
	Op string
	// Params maps parameter names to values. Stream parameters carry
	// an io.Reader.
	Params map[string]any
	// Kind selects the result shape; the zero value is decode.KindValue.
	Kind decode.Kind
}

// Invoke executes an operation and blocks until its result is
// available. For decode.KindStream the returned value is a *Stream the
// caller must close. Validation failures (unknown operation, bad
// parameters) surface before any network I/O.
func (c *Client) Invoke(ctx context.Context, req Request) (any, error) {
	call, httpReq, err := c.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := c.execute(call, httpReq, req.Kind)
	if err != nil {
		call.finish()
		return nil, err
	}
	if stream, ok := result.(*Stream); ok {
		// The stream owns the call; resources release on Close.
		call.complete()
		return stream, nil
	}
	call.finish()
	return result, nil
}

// InvokeAsync executes an operation without blocking the caller. The
// outcome is delivered exactly once to fn from another goroutine; the
// returned call token can cancel the exchange before, during, or after
// delivery. Validation failures are returned synchronously and fn is
// never invoked for them.
func (c *Client) InvokeAsync(ctx context.Context, req Request, fn func(any, error)) (*Call, error) {
	if fn == nil {
		return nil, errors.New("invoke: nil callback")
	}
	call, httpReq, err := c.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	go func() {
		result, err := c.execute(call, httpReq, req.Kind)
		if _, ok := result.(*Stream); ok && err == nil {
			call.deliver(fn, result, nil)
			call.complete()
			return
		}
		call.deliver(fn, result, err)
		call.finish()
	}()
	return call, nil
}

// prepare resolves the operation and builds the HTTP request. All
// catalog and parameter validation happens here, synchronously.
func (c *Client) prepare(ctx context.Context, req Request) (*Call, *http.Request, error) {
	op, err := c.cat.Describe(c.category, c.version, req.Op)
	if err != nil {
		return nil, nil, err
	}

	call := newCall(ctx, req.Op, c.conn.CallTimeout())
	httpReq, err := request.Build(call.ctx, c.baseURL(), op, req.Params)
	if err != nil {
		call.finish()
		return nil, nil, err
	}
	return call, httpReq, nil
}

// execute performs the HTTP exchange and decodes the outcome.
func (c *Client) execute(call *Call, httpReq *http.Request, kind decode.Kind) (any, error) {
	c.log.Debug("dispatching operation",
		"call", call.ID(),
		"op", call.Operation(),
		"method", httpReq.Method,
		"url", httpReq.URL.String(),
	)

	resp, err := c.conn.HTTPClient().Do(httpReq)
	if err != nil {
		if terminal := call.classify(err); terminal != err {
			return nil, terminal
		}
		return nil, &InvocationError{Operation: call.Operation(), Err: err}
	}

	result, err := decode.Decode(resp, kind)
	if err != nil {
		c.log.Debug("operation failed", "call", call.ID(), "op", call.Operation(), "error", err)
		return nil, call.classify(err)
	}

	c.log.Debug("operation completed", "call", call.ID(), "op", call.Operation(), "status", resp.StatusCode)
	if kind == decode.KindStream {
		return &Stream{body: result.(io.ReadCloser), call: call}, nil
	}
	return result, nil
}

func (c *Client) baseURL() string {
	return c.conn.BaseURL() + "/" + c.version
}
