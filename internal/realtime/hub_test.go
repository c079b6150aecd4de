package realtime

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trungdq/restaurant-booking/internal/queue"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	e := echo.New()
	e.GET("/v1/ws", Handler(hub))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_BroadcastReachesConnectedClients(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	sent := queue.NewEvent(queue.TopicTableHoldExpired, queue.HoldExpiredPayload{TableID: 3, UserID: 5})
	hub.Broadcast(sent)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got queue.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, queue.TopicTableHoldExpired, got.Topic)
	assert.JSONEq(t, `{"table_id":3,"user_id":5}`, string(got.Payload))
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)

	// Broadcasting into an empty hub is a no-op.
	hub.Broadcast(queue.NewEvent(queue.TopicUpdateMenu, nil))
}
