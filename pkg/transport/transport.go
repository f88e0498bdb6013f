// Package transport provides the connection layer for the engine API.
// A Connection owns a configured HTTP client bound to a Unix domain
// socket or TCP address. No network I/O happens until the first request
// is issued.
package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default timeouts applied when an option is not supplied. A zero call
// timeout means no overall deadline per invocation.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 30 * time.Second
)

// UnsupportedTransportError is returned by Connect for URI schemes the
// client cannot speak.
type UnsupportedTransportError struct {
	Scheme string
}

func (e *UnsupportedTransportError) Error() string {
	return fmt.Sprintf("unsupported transport scheme %q (supported: unix, tcp, http, https)", e.Scheme)
}

// Connection is an immutable handle to an engine endpoint. It is safe
// for concurrent use; all in-flight requests share its transport.
type Connection struct {
	uri            string
	baseURL        string
	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	callTimeout    time.Duration
	client         *http.Client
}

// Option configures a Connection.
type Option func(*Connection)

// WithConnectTimeout sets the dial timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Connection) { c.connectTimeout = d }
}

// WithReadTimeout sets the per-read socket deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Connection) { c.readTimeout = d }
}

// WithWriteTimeout sets the per-write socket deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Connection) { c.writeTimeout = d }
}

// WithCallTimeout bounds the total lifetime of a single invocation.
// Zero (the default) means unbounded.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Connection) { c.callTimeout = d }
}

// Connect builds a Connection for the given URI. Supported forms:
//
//	unix:///var/run/docker.sock
//	tcp://127.0.0.1:2375
//	http://127.0.0.1:2375
//	https://swarm.example.com:2376
//
// Connectivity is verified lazily on the first invocation.
func Connect(uri string, opts ...Option) (*Connection, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid connection URI %q: %w", uri, err)
	}

	c := &Connection{
		uri:            uri,
		connectTimeout: DefaultConnectTimeout,
		readTimeout:    DefaultReadTimeout,
		writeTimeout:   DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	dialer := &net.Dialer{Timeout: c.connectTimeout}

	switch u.Scheme {
	case "unix":
		socketPath := u.Path
		if u.Host != "" {
			// unix://var/run/docker.sock puts the first segment in Host.
			socketPath = u.Host + u.Path
		}
		if strings.TrimSpace(socketPath) == "" {
			return nil, fmt.Errorf("unix URI %q has no socket path", uri)
		}
		c.baseURL = "http://localhost"
		c.client = &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					conn, err := dialer.DialContext(ctx, "unix", socketPath)
					if err != nil {
						return nil, err
					}
					return c.wrapConn(conn), nil
				},
			},
		}

	case "tcp", "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("URI %q has no host", uri)
		}
		scheme := u.Scheme
		if scheme == "tcp" {
			scheme = "http"
		}
		c.baseURL = scheme + "://" + u.Host
		c.client = &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					conn, err := dialer.DialContext(ctx, network, addr)
					if err != nil {
						return nil, err
					}
					return c.wrapConn(conn), nil
				},
			},
		}

	default:
		return nil, &UnsupportedTransportError{Scheme: u.Scheme}
	}

	return c, nil
}

// wrapConn applies read/write deadlines per socket operation.
func (c *Connection) wrapConn(conn net.Conn) net.Conn {
	if c.readTimeout <= 0 && c.writeTimeout <= 0 {
		return conn
	}
	return &deadlineConn{
		Conn:         conn,
		readTimeout:  c.readTimeout,
		writeTimeout: c.writeTimeout,
	}
}

// URI returns the URI the connection was created with.
func (c *Connection) URI() string { return c.uri }

// BaseURL returns the HTTP base address requests are issued against.
func (c *Connection) BaseURL() string { return c.baseURL }

// HTTPClient returns the underlying HTTP client. The client carries no
// overall timeout; call deadlines belong to the invocation engine.
func (c *Connection) HTTPClient() *http.Client { return c.client }

// ConnectTimeout returns the configured dial timeout.
func (c *Connection) ConnectTimeout() time.Duration { return c.connectTimeout }

// ReadTimeout returns the configured per-read deadline.
func (c *Connection) ReadTimeout() time.Duration { return c.readTimeout }

// WriteTimeout returns the configured per-write deadline.
func (c *Connection) WriteTimeout() time.Duration { return c.writeTimeout }

// CallTimeout returns the configured per-invocation deadline. Zero
// means unbounded.
func (c *Connection) CallTimeout() time.Duration { return c.callTimeout }

// deadlineConn refreshes the socket deadline before every read and
// write so long-lived streams stay open as long as bytes keep flowing.
type deadlineConn struct {
	net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (d *deadlineConn) Read(p []byte) (int, error) {
	if d.readTimeout > 0 {
		if err := d.Conn.SetReadDeadline(time.Now().Add(d.readTimeout)); err != nil {
			return 0, err
		}
	}
	return d.Conn.Read(p)
}

func (d *deadlineConn) Write(p []byte) (int, error) {
	if d.writeTimeout > 0 {
		if err := d.Conn.SetWriteDeadline(time.Now().Add(d.writeTimeout)); err != nil {
			return 0, err
		}
	}
	return d.Conn.Write(p)
}
