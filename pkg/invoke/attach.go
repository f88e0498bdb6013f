package invoke

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/coder/websocket"
)

// AttachWebSocket opens an interactive attach session to a container
// over the engine's websocket attach endpoint and returns it as a
// net.Conn carrying binary frames in both directions. The client must
// be bound to the containers category.
func (c *Client) AttachWebSocket(ctx context.Context, containerID string) (net.Conn, error) {
	if c.category != "containers" {
		return nil, fmt.Errorf("websocket attach requires a containers client, got %q", c.category)
	}

	wsURL := "ws" + strings.TrimPrefix(c.conn.BaseURL(), "http") +
		"/" + c.version +
		"/containers/" + url.PathEscape(containerID) +
		"/attach/ws?stream=1&stdin=1&stdout=1&stderr=1"

	wsConn, resp, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPClient: c.conn.HTTPClient(),
	})
	if err != nil {
		return nil, &InvocationError{Operation: "ContainerAttachWebsocket", Err: err}
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c.log.Debug("websocket attach established", "container", containerID)
	return websocket.NetConn(ctx, wsConn, websocket.MessageBinary), nil
}
