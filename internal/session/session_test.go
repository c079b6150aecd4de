package session

import (
	"context"
	"sync"
	"time"

	"github.com/trungdq/restaurant-booking/internal/queue"
)

// fakeBus is an in-process Subscriber used by the listener and
// coordinator tests.  Emit delivers an event synchronously to every
// handler registered for the topic.
type fakeBus struct {
	mu       sync.Mutex
	handlers map[string][]*fakeSub
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string][]*fakeSub)}
}

func (b *fakeBus) Subscribe(topic string, handler func(queue.Event)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &fakeSub{bus: b, topic: topic, handler: handler}
	b.handlers[topic] = append(b.handlers[topic], s)
	return s, nil
}

func (b *fakeBus) Emit(topic string, payload any) {
	ev := queue.NewEvent(topic, payload)
	b.mu.Lock()
	subs := append([]*fakeSub(nil), b.handlers[topic]...)
	b.mu.Unlock()
	for _, s := range subs {
		s.handler(ev)
	}
}

type fakeSub struct {
	bus     *fakeBus
	topic   string
	handler func(queue.Event)
}

func (s *fakeSub) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	kept := s.bus.handlers[s.topic][:0]
	for _, h := range s.bus.handlers[s.topic] {
		if h != s {
			kept = append(kept, h)
		}
	}
	s.bus.handlers[s.topic] = kept
}

// fakeNotifier records every surfaced message by level.
type fakeNotifier struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (n *fakeNotifier) Info(msg string) { n.mu.Lock(); n.infos = append(n.infos, msg); n.mu.Unlock() }
func (n *fakeNotifier) Warn(msg string) { n.mu.Lock(); n.warns = append(n.warns, msg); n.mu.Unlock() }
func (n *fakeNotifier) Error(msg string) {
	n.mu.Lock()
	n.errors = append(n.errors, msg)
	n.mu.Unlock()
}

// fakeCatalog serves canned active collections and can be told to fail.
type fakeCatalog struct {
	menu   []CatalogItem
	combos []CatalogItem
	err    error
}

func (c *fakeCatalog) ActiveMenuItems(ctx context.Context) ([]CatalogItem, error) {
	return c.menu, c.err
}

func (c *fakeCatalog) ActiveCombos(ctx context.Context) ([]CatalogItem, error) {
	return c.combos, c.err
}

// fakeNavigator records view switches.
type fakeNavigator struct {
	mu    sync.Mutex
	views []string
}

func (n *fakeNavigator) GoTo(view string) {
	n.mu.Lock()
	n.views = append(n.views, view)
	n.mu.Unlock()
}

func (n *fakeNavigator) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.views) == 0 {
		return ""
	}
	return n.views[len(n.views)-1]
}

// fakeHoldService scripts the server side of the hold lifecycle.
type fakeHoldService struct {
	mu          sync.Mutex
	createKey   string
	createTTL   int
	createErr   error
	ttl         int
	ttlErr      error
	releaseErr  error
	ttlCalls    int
	createCalls int
}

func (s *fakeHoldService) CreateHold(ctx context.Context, tableID uint64, reservationTime time.Time, guestCount uint32) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.createErr != nil {
		return "", 0, s.createErr
	}
	return s.createKey, s.createTTL, nil
}

func (s *fakeHoldService) HoldTTL(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttlCalls++
	return s.ttl, s.ttlErr
}

func (s *fakeHoldService) ReleaseHold(ctx context.Context, key string) error {
	return s.releaseErr
}
