package session

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/trungdq/restaurant-booking/internal/model"
)

// Storage keys for the persisted drafts.  The names are part of the
// on-disk contract: a client that restarts picks its state back up
// from these entries.
const (
	KeyOrderDraft   = "orders"
	KeyBookingDraft = "bookingInfo"
	KeyVoucher      = "selectedVoucher"
)

// CartLine is one purchasable line in the draft order.  UnitPrice is
// the last authoritative price the client saw; the SyncListener
// overwrites it when the catalog changes and the server recomputes the
// real total at submission anyway.
type CartLine struct {
	Kind      model.ItemKind `json:"kind"`
	ID        uint64         `json:"id"`
	Name      string         `json:"name"`
	UnitPrice int64          `json:"unit_price"`
	Quantity  int            `json:"quantity"`
}

// OrderDraft wraps the cart lines plus the backend order id once one
// exists.  OrderID 0 means the draft has not been submitted; after a
// successful submission follow-up mutations ("order more") reference
// the assigned id.
type OrderDraft struct {
	OrderID uint64     `json:"order_id"`
	Lines   []CartLine `json:"lines"`
}

// BookingDraft carries the customer-entered reservation details
// captured before table selection.  It is persisted separately from
// the order draft and cleared together with it.
type BookingDraft struct {
	FullName        string    `json:"full_name"`
	Phone           string    `json:"phone"`
	GuestCount      uint32    `json:"guest_count"`
	ReservationTime time.Time `json:"reservation_time"`
	Note            string    `json:"note"`
}

// SelectedVoucher is the voucher code the customer picked, if any.
type SelectedVoucher struct {
	Code    string `json:"code"`
	Percent uint32 `json:"percent"`
}

// CartStore holds the canonical local state of the order in progress.
// It is the single mutation target for both user actions and sync
// corrections.  Lines keep insertion order and there is at most one
// line per (kind, id) pair.  Every mutation re-persists the affected
// draft synchronously, so a restart never loses more than nothing.
type CartStore struct {
	mu      sync.Mutex
	storage Storage
	order   OrderDraft
	booking BookingDraft
	voucher *SelectedVoucher
}

// NewCartStore loads any persisted drafts from storage and returns the
// store.  Corrupted entries (non-object JSON, wrong shape) are
// discarded silently and the store starts empty for that draft.
func NewCartStore(storage Storage) *CartStore {
	s := &CartStore{storage: storage}

	if raw, ok, err := storage.Get(KeyOrderDraft); err == nil && ok {
		var d OrderDraft
		if decodeObject(raw, &d) {
			s.order = d
		}
	}
	if raw, ok, err := storage.Get(KeyBookingDraft); err == nil && ok {
		var d BookingDraft
		if decodeObject(raw, &d) {
			s.booking = d
		}
	}
	if raw, ok, err := storage.Get(KeyVoucher); err == nil && ok {
		var v SelectedVoucher
		if decodeObject(raw, &v) && v.Code != "" {
			s.voucher = &v
		}
	}
	// Persisted quantities must respect the invariants no matter what
	// was on disk.
	kept := s.order.Lines[:0]
	for _, ln := range s.order.Lines {
		if ln.Quantity > 0 {
			kept = append(kept, ln)
		}
	}
	s.order.Lines = kept
	return s
}

// AddLine merges the given quantity into an existing (kind, id) line
// or appends a new one with the provided name/price snapshot.  It
// always succeeds.
func (s *CartStore) AddLine(kind model.ItemKind, id uint64, name string, unitPrice int64, quantity int) {
	if quantity <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.order.Lines {
		if s.order.Lines[i].Kind == kind && s.order.Lines[i].ID == id {
			s.order.Lines[i].Quantity += quantity
			s.persistOrderLocked()
			return
		}
	}
	s.order.Lines = append(s.order.Lines, CartLine{
		Kind:      kind,
		ID:        id,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	})
	s.persistOrderLocked()
}

// SetQuantity updates the quantity of the matching line in place.  A
// quantity of zero or less removes the line.
func (s *CartStore) SetQuantity(kind model.ItemKind, id uint64, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity <= 0 {
		s.removeLineLocked(kind, id)
		s.persistOrderLocked()
		return
	}
	for i := range s.order.Lines {
		if s.order.Lines[i].Kind == kind && s.order.Lines[i].ID == id {
			s.order.Lines[i].Quantity = quantity
			s.persistOrderLocked()
			return
		}
	}
}

// RemoveLine deletes the matching line.  Removing a missing line is a
// no-op.
func (s *CartStore) RemoveLine(kind model.ItemKind, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLineLocked(kind, id)
	s.persistOrderLocked()
}

func (s *CartStore) removeLineLocked(kind model.ItemKind, id uint64) {
	for i := range s.order.Lines {
		if s.order.Lines[i].Kind == kind && s.order.Lines[i].ID == id {
			s.order.Lines = append(s.order.Lines[:i], s.order.Lines[i+1:]...)
			return
		}
	}
}

// UpdatePrice overwrites the price snapshot on the matching line.  It
// is used exclusively by the SyncListener when the authoritative price
// differs; a missing line is a no-op.
func (s *CartStore) UpdatePrice(kind model.ItemKind, id uint64, newPrice int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.order.Lines {
		if s.order.Lines[i].Kind == kind && s.order.Lines[i].ID == id {
			s.order.Lines[i].UnitPrice = newPrice
			s.persistOrderLocked()
			return
		}
	}
}

// BindOrderID records the server-assigned order id on the draft.
func (s *CartStore) BindOrderID(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.OrderID = id
	s.persistOrderLocked()
}

// Lines returns a copy of the cart lines, optionally filtered by kind
// (pass "" for all).
func (s *CartStore) Lines(kind model.ItemKind) []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CartLine, 0, len(s.order.Lines))
	for _, ln := range s.order.Lines {
		if kind == "" || ln.Kind == kind {
			out = append(out, ln)
		}
	}
	return out
}

// Order returns a copy of the current order draft.
func (s *CartStore) Order() OrderDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.order
	d.Lines = append([]CartLine(nil), s.order.Lines...)
	return d
}

// Total sums price*quantity over all lines using the local snapshots.
// Advisory only; the server recomputes the total at submission.
func (s *CartStore) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, ln := range s.order.Lines {
		total += ln.UnitPrice * int64(ln.Quantity)
	}
	return total
}

// SetBooking replaces the booking draft and persists it.
func (s *CartStore) SetBooking(b BookingDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.booking = b
	s.persistLocked(KeyBookingDraft, s.booking)
}

// Booking returns the current booking draft.
func (s *CartStore) Booking() BookingDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.booking
}

// SelectVoucher persists the chosen voucher; a nil voucher clears the
// selection.
func (s *CartStore) SelectVoucher(v *SelectedVoucher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voucher = v
	if v == nil {
		s.deleteLocked(KeyVoucher)
		return
	}
	s.persistLocked(KeyVoucher, v)
}

// Voucher returns the selected voucher or nil.
func (s *CartStore) Voucher() *SelectedVoucher {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voucher == nil {
		return nil
	}
	v := *s.voucher
	return &v
}

// Clear empties the order and booking drafts, drops any selected
// voucher and removes all persisted entries.
func (s *CartStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = OrderDraft{}
	s.booking = BookingDraft{}
	s.voucher = nil
	s.deleteLocked(KeyOrderDraft)
	s.deleteLocked(KeyBookingDraft)
	s.deleteLocked(KeyVoucher)
}

// persistOrderLocked serializes the order draft to storage.  Persist
// failures are logged, not surfaced: the in-memory state stays correct
// and the next successful mutation rewrites the full snapshot.
func (s *CartStore) persistOrderLocked() {
	s.persistLocked(KeyOrderDraft, s.order)
}

func (s *CartStore) persistLocked(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("cart: marshal %s failed: %v", key, err)
		return
	}
	if err := s.storage.Set(key, raw); err != nil {
		log.Printf("cart: persist %s failed: %v", key, err)
	}
}

func (s *CartStore) deleteLocked(key string) {
	if err := s.storage.Delete(key); err != nil {
		log.Printf("cart: delete %s failed: %v", key, err)
	}
}
