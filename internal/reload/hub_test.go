package reload

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
)

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func readSSEData(t *testing.T, r *bufio.Reader) Message {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
			var msg Message
			require.NoError(t, json.Unmarshal([]byte(data), &msg))
			return msg
		}
	}
}

func TestHub_SSEBroadcast(t *testing.T) {
	hub := NewHub(nil, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	waitForClients(t, hub, 1)
	reader := bufio.NewReader(resp.Body)

	hub.Notify(ModeStyle)
	assert.Equal(t, Message{Mode: ModeStyle, Seq: 1}, readSSEData(t, reader))

	hub.Notify(ModeNone)
	hub.Notify(ModeFull)
	assert.Equal(t, Message{Mode: ModeFull, Seq: 2}, readSSEData(t, reader))
}

func TestHub_WebSocketBroadcast(t *testing.T) {
	hub := NewHub(nil, nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	waitForClients(t, hub, 1)
	hub.Notify(ModeFull)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ModeFull, msg.Mode)
	assert.Equal(t, uint64(1), msg.Seq)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

func TestHub_ShutdownDisconnectsClients(t *testing.T) {
	hub := NewHub(nil, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	waitForClients(t, hub, 1)

	hub.Shutdown()
	assert.Equal(t, 0, hub.Clients())

	// Further notifications are ignored and new clients are refused.
	hub.Notify(ModeFull)
	late, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = late.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, late.StatusCode)
}

func TestHub_NotifyWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(nil, nil)
	done := make(chan struct{})
	go func() {
		for range 100 {
			hub.Notify(ModeStyle)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked")
	}
}

func TestMultiAndNoop(t *testing.T) {
	var got []Mode
	rec := NotifierFunc(func(m Mode) { got = append(got, m) })

	Multi{NoopNotifier{}, rec, nil, rec}.Notify(ModeStyle)
	assert.Equal(t, []Mode{ModeStyle, ModeStyle}, got)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Style")
	require.NoError(t, err)
	assert.Equal(t, ModeStyle, m)

	m, err = ParseMode("full-reload")
	require.NoError(t, err)
	assert.Equal(t, ModeFull, m)

	_, err = ParseMode("partial")
	assert.Error(t, err)
}

func TestNewNATSNotifier_ConnectFailure(t *testing.T) {
	_, err := NewNATSNotifier("nats://127.0.0.1:1", "patternpipe.reload", nil)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotify))
}
