package client

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/trungdq/restaurant-booking/internal/queue"
	"github.com/trungdq/restaurant-booking/internal/session"
)

// WSSubscriber consumes the server's WebSocket push channel and fans
// events out to per-topic handlers.  It implements session.Subscriber.
//
// The connection is maintained with automatic reconnects; handlers may
// therefore see duplicated or missed events around a reconnect, which
// is fine because the session layer treats every event as a hint to
// re-fetch, never as state.
type WSSubscriber struct {
	url string

	mu       sync.Mutex
	handlers map[string]map[uint64]func(queue.Event)
	nextID   uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWSSubscriber builds a subscriber for the given WebSocket URL,
// e.g. "ws://localhost:8080/v1/ws".
func NewWSSubscriber(url string) *WSSubscriber {
	return &WSSubscriber{
		url:      url,
		handlers: make(map[string]map[uint64]func(queue.Event)),
	}
}

// Start opens the connection and begins dispatching.  It returns
// immediately; the read loop runs until Close or ctx cancellation.
func (s *WSSubscriber) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
}

// Close stops the read loop and waits for it to finish.
func (s *WSSubscriber) Close() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// Subscribe registers a handler for one topic.  Handlers run on the
// read-loop goroutine, so they must not block for long.
func (s *WSSubscriber) Subscribe(topic string, handler func(queue.Event)) (session.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers[topic] == nil {
		s.handlers[topic] = make(map[uint64]func(queue.Event))
	}
	s.nextID++
	id := s.nextID
	s.handlers[topic][id] = handler
	return &wsSubscription{sub: s, topic: topic, id: id}, nil
}

type wsSubscription struct {
	sub   *WSSubscriber
	topic string
	id    uint64
}

func (w *wsSubscription) Unsubscribe() {
	w.sub.mu.Lock()
	defer w.sub.mu.Unlock()
	delete(w.sub.handlers[w.topic], w.id)
}

func (s *WSSubscriber) run(ctx context.Context) {
	defer close(s.done)
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
		if err != nil {
			log.Printf("push: dial %s failed: %v", s.url, err)
		} else {
			backoff = time.Second
			s.readLoop(ctx, conn)
			_ = conn.Close()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *WSSubscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	// Unblock ReadMessage when the context ends.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("push: connection lost: %v", err)
			}
			return
		}
		var ev queue.Event
		if err := json.Unmarshal(data, &ev); err != nil || ev.Topic == "" {
			log.Printf("push: dropping malformed event: %s", data)
			continue
		}
		s.dispatch(ev)
	}
}

func (s *WSSubscriber) dispatch(ev queue.Event) {
	s.mu.Lock()
	hs := make([]func(queue.Event), 0, len(s.handlers[ev.Topic]))
	for _, h := range s.handlers[ev.Topic] {
		hs = append(hs, h)
	}
	s.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}
