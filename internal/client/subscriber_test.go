package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/trungdq/restaurant-booking/internal/queue"
)

// pushServer is a minimal WebSocket endpoint that feeds the subscriber
// whatever frames the test pushes into send.
func pushServer(t *testing.T, send <-chan []byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for msg := range send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}))
}

func TestWSSubscriberDispatchesByTopic(t *testing.T) {
	send := make(chan []byte, 4)
	srv := pushServer(t, send)
	defer srv.Close()

	sub := NewWSSubscriber("ws" + strings.TrimPrefix(srv.URL, "http"))
	sub.Start(context.Background())
	defer sub.Close()

	got := make(chan queue.Event, 4)
	_, err := sub.Subscribe(queue.TopicUpdateMenu, func(ev queue.Event) { got <- ev })
	require.NoError(t, err)

	send <- []byte(`{"topic":"combo_update","payload":null}`)
	send <- []byte(`not json at all`)
	send <- []byte(`{"topic":"update_menu","payload":{"n":1}}`)

	select {
	case ev := <-got:
		require.Equal(t, queue.TopicUpdateMenu, ev.Topic)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribed handler never ran")
	}
	// The combo event and the malformed frame must not reach the
	// update_menu handler.
	select {
	case ev := <-got:
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWSSubscriberUnsubscribeStopsDelivery(t *testing.T) {
	send := make(chan []byte, 2)
	srv := pushServer(t, send)
	defer srv.Close()

	sub := NewWSSubscriber("ws" + strings.TrimPrefix(srv.URL, "http"))
	sub.Start(context.Background())
	defer sub.Close()

	got := make(chan queue.Event, 2)
	handle, err := sub.Subscribe(queue.TopicTableHoldExpired, func(ev queue.Event) { got <- ev })
	require.NoError(t, err)
	handle.Unsubscribe()

	send <- []byte(`{"topic":"table_hold_expired","payload":{"table_id":3,"user_id":5}}`)

	select {
	case ev := <-got:
		t.Fatalf("handler ran after unsubscribe: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}
