package server

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textvault/textvault/internal/composer"
	"github.com/textvault/textvault/internal/language"
)

func dialSession(t *testing.T, ts *testServer, query string) (*websocket.Conn, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })

	return conn, ctx
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) map[string]interface{} {
	t.Helper()

	var msg map[string]interface{}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	return msg
}

// readUntil skips messages until one of the given type arrives.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string) map[string]interface{} {
	t.Helper()

	for {
		msg := readMessage(t, ctx, conn)
		if msg["type"] == typ {
			return msg
		}
	}
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, value interface{}) {
	t.Helper()

	msg := map[string]interface{}{"type": typ}
	if value != nil {
		msg["value"] = value
	}
	require.NoError(t, wsjson.Write(ctx, conn, msg))
}

func TestWebSocketSessionHandshake(t *testing.T) {
	ts := newTestServer(t, &composer.Collector{})
	conn, ctx := dialSession(t, ts, "")

	configure := readMessage(t, ctx, conn)
	assert.Equal(t, "configure", configure["type"])
	assert.Equal(t, "plaintext", configure["language"])
	assert.Equal(t, "vs-light", configure["theme"])

	value := readMessage(t, ctx, conn)
	assert.Equal(t, "value", value["type"])

	state := readMessage(t, ctx, conn)
	assert.Equal(t, "state", state["type"])
	assert.Equal(t, false, state["ready"])
	assert.Equal(t, "", state["title"])

	assert.Eventually(t, func() bool { return ts.sessions.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestWebSocketSubmitRoundTrip(t *testing.T) {
	sink := &composer.Collector{}
	ts := newTestServer(t, sink)
	conn, ctx := dialSession(t, ts, "")

	send(t, ctx, conn, "title", "T")
	send(t, ctx, conn, "language", "rust")
	send(t, ctx, conn, "content", "fn main() {}")
	send(t, ctx, conn, "submit", nil)

	outcome := readUntil(t, ctx, conn, "outcome")
	assert.Equal(t, "delivered", outcome["status"])

	require.Len(t, sink.Payloads(), 1)
	assert.Equal(t, composer.Payload{Title: "T", Language: language.Rust, Content: "fn main() {}"}, sink.Payloads()[0])
}

func TestWebSocketReadySignal(t *testing.T) {
	ts := newTestServer(t, &composer.Collector{})
	conn, ctx := dialSession(t, ts, "")

	readUntil(t, ctx, conn, "state")
	send(t, ctx, conn, "ready", nil)

	state := readUntil(t, ctx, conn, "state")
	assert.Equal(t, true, state["ready"])
}

func TestWebSocketThemeForwarding(t *testing.T) {
	ts := newTestServer(t, &composer.Collector{})
	conn, ctx := dialSession(t, ts, "?theme=dark")

	configure := readMessage(t, ctx, conn)
	assert.Equal(t, "vs-dark", configure["theme"])
	readUntil(t, ctx, conn, "state")

	send(t, ctx, conn, "theme", "light")

	reconfigure := readUntil(t, ctx, conn, "configure")
	assert.Equal(t, "vs-light", reconfigure["theme"])
	state := readUntil(t, ctx, conn, "state")
	assert.Equal(t, "vs-light", state["theme"])
}

func TestWebSocketRefusedMessages(t *testing.T) {
	ts := newTestServer(t, &composer.Collector{})
	conn, ctx := dialSession(t, ts, "")
	readUntil(t, ctx, conn, "state")

	send(t, ctx, conn, "language", "typescript")
	msg := readUntil(t, ctx, conn, "error")
	assert.Contains(t, msg["message"], "typescript")

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("not json")))
	msg = readUntil(t, ctx, conn, "error")
	assert.Equal(t, "malformed message", msg["message"])

	send(t, ctx, conn, "explode", nil)
	msg = readUntil(t, ctx, conn, "error")
	assert.Contains(t, msg["message"], "explode")
}

func TestWebSocketCloseReleasesSession(t *testing.T) {
	ts := newTestServer(t, &composer.Collector{})
	conn, ctx := dialSession(t, ts, "")
	readUntil(t, ctx, conn, "state")
	require.Equal(t, 1, ts.sessions.Len())

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	assert.Eventually(t, func() bool { return ts.sessions.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketShutdownClosesConnection(t *testing.T) {
	ts := newTestServer(t, &composer.Collector{})
	conn, ctx := dialSession(t, ts, "")
	readUntil(t, ctx, conn, "state")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ts.server.Shutdown(shutdownCtx))

	for {
		var msg map[string]interface{}
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			break
		}
	}
	assert.Equal(t, 0, ts.sessions.Len())

	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	ts := newTestServer(t, &composer.Collector{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	_, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"https://evil.example.com"}},
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, ts.sessions.Len())
}

func TestWebSocketAcceptsAllowedOrigin(t *testing.T) {
	ts := newTestServer(t, &composer.Collector{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"http://localhost:3000"}},
	})
	require.NoError(t, err)
	defer conn.CloseNow()

	msg := readMessage(t, ctx, conn)
	assert.Equal(t, "configure", msg["type"])
}
