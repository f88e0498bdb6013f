package invoke

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockhand/dockhand/pkg/catalog"
	"github.com/dockhand/dockhand/pkg/transport"
)

func TestAttachWebSocket_Echo(t *testing.T) {
	mux := http.NewServeMux()
	handle(mux, "GET /"+catalog.Latest()+"/containers/web1/attach/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer ws.CloseNow()
		ctx := r.Context()
		for {
			typ, data, err := ws.Read(ctx)
			if err != nil {
				return
			}
			if err := ws.Write(ctx, typ, data); err != nil {
				return
			}
		}
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	conn, err := transport.Connect(ts.URL)
	require.NoError(t, err)
	c, err := NewClient(conn, "containers")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	nc, err := c.AttachWebSocket(ctx, "web1")
	require.NoError(t, err)
	defer func() { _ = nc.Close() }()

	_, err = nc.Write([]byte("echo me"))
	require.NoError(t, err)

	buf := make([]byte, 32)
	n, err := nc.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "echo me", string(buf[:n]))
}

func TestAttachWebSocket_WrongCategory(t *testing.T) {
	conn, err := transport.Connect("tcp://127.0.0.1:2375")
	require.NoError(t, err)
	c, err := NewClient(conn, "images")
	require.NoError(t, err)

	_, err = c.AttachWebSocket(context.Background(), "web1")
	require.Error(t, err)
}

func TestAttachWebSocket_DialFailure(t *testing.T) {
	conn, err := transport.Connect("tcp://127.0.0.1:1")
	require.NoError(t, err)
	c, err := NewClient(conn, "containers")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = c.AttachWebSocket(ctx, "web1")
	var ie *InvocationError
	require.ErrorAs(t, err, &ie)
}
