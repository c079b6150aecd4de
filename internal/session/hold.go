package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/trungdq/restaurant-booking/internal/queue"
)

// ErrPendingOrder is returned by HoldService.CreateHold when the server
// rejects the hold because the customer already has an open order.  The
// coordinator redirects to booking history instead of retrying.
var ErrPendingOrder = errors.New("pending order exists")

// HoldService is the hold lifecycle the server exposes.  The server is
// the sole owner of hold state; the client never decides expiry itself.
type HoldService interface {
	// CreateHold claims the table and returns the hold key plus the
	// initial TTL in seconds.
	CreateHold(ctx context.Context, tableID uint64, reservationTime time.Time, guestCount uint32) (key string, ttlSeconds int, err error)
	// HoldTTL reports the server-computed remaining seconds for the
	// hold key; zero or less means the hold is gone.
	HoldTTL(ctx context.Context, key string) (int, error)
	// ReleaseHold deletes the hold.
	ReleaseHold(ctx context.Context, key string) error
}

// Views the coordinator navigates between.  The owning UI decides what
// each view looks like.
const (
	ViewTables         = "tables"
	ViewBookingDetail  = "booking_detail"
	ViewBookingHistory = "booking_history"
)

// Navigator switches the visible view.  Implemented by the owning UI.
type Navigator interface {
	GoTo(view string)
}

// HoldInfo is the locally tracked state of the active hold.
type HoldInfo struct {
	Key             string
	TableID         uint64
	ReservationTime time.Time
	GuestCount      uint32
	// deadline is derived from the last TTL the server reported and
	// only drives the visible countdown.  Committed actions are always
	// revalidated server-side.
	deadline time.Time
}

// HoldCoordinator tracks the single table hold a customer session may
// have.  It moves between two states: no hold, and holding exactly one
// table.  The server's table_hold_expired push event is ground truth
// for expiry – when one arrives naming this user and table the local
// state is cleared and the customer is sent back to table selection,
// regardless of what the local countdown still shows.
type HoldCoordinator struct {
	svc      HoldService
	notifier Notifier
	nav      Navigator
	userID   uint64

	mu   sync.Mutex
	hold *HoldInfo
	subs []Subscription
}

// NewHoldCoordinator wires the coordinator for one authenticated user.
func NewHoldCoordinator(svc HoldService, notifier Notifier, nav Navigator, userID uint64) *HoldCoordinator {
	return &HoldCoordinator{svc: svc, notifier: notifier, nav: nav, userID: userID}
}

// Start subscribes to the hold-expiry and table-release topics.  An
// expiry event naming a different table (or user) does not touch local
// state; it only triggers a TTL refresh to resolve any ambiguity.
func (h *HoldCoordinator) Start(ctx context.Context, sub Subscriber) error {
	s, err := sub.Subscribe(queue.TopicTableHoldExpired, func(ev queue.Event) {
		var p queue.HoldExpiredPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		h.onHoldExpired(ctx, p)
	})
	if err != nil {
		return err
	}
	h.subs = append(h.subs, s)

	// A table being reset or released by the backend can also end the
	// hold (e.g. an admin freed the table).  The payload is only a
	// trigger: the server TTL decides whether the hold is really gone.
	onReset := func(ev queue.Event) {
		var p queue.TablePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return
		}
		h.onTableReleased(ctx, p.TableID)
	}
	for _, topic := range []string{queue.TopicResetTableAvailable, queue.TopicDeleteHoldTable} {
		s, err := sub.Subscribe(topic, onReset)
		if err != nil {
			return err
		}
		h.subs = append(h.subs, s)
	}
	return nil
}

// onTableReleased re-checks the hold when the backend announces the
// held table became available; RefreshTTL clears the hold if the
// server no longer has it.
func (h *HoldCoordinator) onTableReleased(ctx context.Context, tableID uint64) {
	h.mu.Lock()
	hold := h.hold
	h.mu.Unlock()
	if hold == nil || hold.TableID != tableID {
		return
	}
	h.RefreshTTL(ctx)
}

// Close releases the topic subscriptions.
func (h *HoldCoordinator) Close() {
	for _, s := range h.subs {
		s.Unsubscribe()
	}
	h.subs = nil
}

// RequestHold validates the booking parameters locally, then asks the
// server to claim the table.  On success the customer moves into the
// booking-detail flow; a pending-order rejection redirects to booking
// history; every other failure is surfaced as a notification and the
// state stays NoHold.
func (h *HoldCoordinator) RequestHold(ctx context.Context, tableID uint64, reservationTime time.Time, guestCount uint32) error {
	// Validation failures never reach the network.
	if tableID == 0 {
		h.notifier.Error("please select a table first")
		return errors.New("no table selected")
	}
	if reservationTime.IsZero() {
		h.notifier.Error("please choose a reservation time")
		return errors.New("reservation time missing")
	}
	if reservationTime.Before(time.Now()) {
		h.notifier.Error("reservation time cannot be in the past")
		return errors.New("reservation time in the past")
	}
	if guestCount == 0 {
		h.notifier.Error("please choose the number of guests")
		return errors.New("guest count missing")
	}

	key, ttl, err := h.svc.CreateHold(ctx, tableID, reservationTime, guestCount)
	if err != nil {
		if errors.Is(err, ErrPendingOrder) {
			h.notifier.Warn("you already have a pending order")
			h.nav.GoTo(ViewBookingHistory)
			return err
		}
		h.notifier.Error(err.Error())
		return err
	}

	h.mu.Lock()
	h.hold = &HoldInfo{
		Key:             key,
		TableID:         tableID,
		ReservationTime: reservationTime,
		GuestCount:      guestCount,
		deadline:        time.Now().Add(time.Duration(ttl) * time.Second),
	}
	h.mu.Unlock()
	h.nav.GoTo(ViewBookingDetail)
	return nil
}

// CancelHold releases the current hold.  A failed release is surfaced
// but not retried – local state is cleared and the customer returns to
// table selection either way, because the server's TTL will evict the
// hold shortly regardless.
func (h *HoldCoordinator) CancelHold(ctx context.Context) {
	h.mu.Lock()
	hold := h.hold
	h.hold = nil
	h.mu.Unlock()
	if hold == nil {
		return
	}
	if err := h.svc.ReleaseHold(ctx, hold.Key); err != nil {
		h.notifier.Error(fmt.Sprintf("could not release table: %v", err))
	}
	h.nav.GoTo(ViewTables)
}

// OrderSubmitted drops local hold state after a successful order
// submission; the server released the hold as part of the submit.
func (h *HoldCoordinator) OrderSubmitted() {
	h.mu.Lock()
	h.hold = nil
	h.mu.Unlock()
}

// RefreshTTL re-reads the server-computed remaining seconds for the
// current hold.  It reports server truth instead of resetting the
// deadline, and treats a non-positive TTL as an already-evicted hold.
// Used after reconnect/focus and after ambiguous expiry signals.
func (h *HoldCoordinator) RefreshTTL(ctx context.Context) {
	h.mu.Lock()
	hold := h.hold
	h.mu.Unlock()
	if hold == nil {
		return
	}
	ttl, err := h.svc.HoldTTL(ctx, hold.Key)
	if err != nil {
		log.Printf("hold: ttl refresh failed: %v", err)
		return
	}
	if ttl <= 0 {
		h.expire()
		return
	}
	h.mu.Lock()
	if h.hold != nil && h.hold.Key == hold.Key {
		h.hold.deadline = time.Now().Add(time.Duration(ttl) * time.Second)
	}
	h.mu.Unlock()
}

// Current returns a copy of the active hold, or nil.
func (h *HoldCoordinator) Current() *HoldInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hold == nil {
		return nil
	}
	cp := *h.hold
	return &cp
}

// RemainingSeconds derives the visible countdown from the last known
// TTL.  Advisory only: the countdown may lag server truth by a few
// seconds, which is acceptable because committed actions revalidate
// against the server.
func (h *HoldCoordinator) RemainingSeconds() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hold == nil {
		return 0
	}
	rem := int(time.Until(h.hold.deadline).Seconds())
	if rem < 0 {
		return 0
	}
	return rem
}

func (h *HoldCoordinator) onHoldExpired(ctx context.Context, p queue.HoldExpiredPayload) {
	h.mu.Lock()
	hold := h.hold
	h.mu.Unlock()
	if hold == nil {
		return
	}
	if p.UserID != h.userID || p.TableID != hold.TableID {
		// Someone else's hold (or another table).  Refresh ours in
		// case the signal raced our own expiry.
		h.RefreshTTL(ctx)
		return
	}
	h.expire()
}

func (h *HoldCoordinator) expire() {
	h.mu.Lock()
	h.hold = nil
	h.mu.Unlock()
	h.notifier.Warn("your table hold has expired, please pick a table again")
	h.nav.GoTo(ViewTables)
}
