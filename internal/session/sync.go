package session

import (
	"context"
	"fmt"
	"log"

	"github.com/trungdq/restaurant-booking/internal/model"
	"github.com/trungdq/restaurant-booking/internal/queue"
)

// Subscriber hands out push-topic subscriptions.  Handlers fire on the
// transport's receive goroutine; the returned Subscription must be
// released when the owner goes away so callbacks cannot fire into a
// torn-down context.
type Subscriber interface {
	Subscribe(topic string, handler func(queue.Event)) (Subscription, error)
}

// Subscription is a handle to an active topic subscription.
type Subscription interface {
	Unsubscribe()
}

// CatalogItem is one active catalog entry as reported by the server.
type CatalogItem struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Catalog fetches the authoritative active collections.  Implemented
// by the REST client against the live server and by fakes in tests.
type Catalog interface {
	ActiveMenuItems(ctx context.Context) ([]CatalogItem, error)
	ActiveCombos(ctx context.Context) ([]CatalogItem, error)
}

// Notifier surfaces user-visible messages.  Corrections from the sync
// pass are notifications, not errors: Warn for removed items, Info for
// price changes.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// PriceChange records one correction applied by a reconcile pass.
type PriceChange struct {
	Line     CartLine
	NewPrice int64
}

// SyncDiff is the outcome of comparing cart lines of one kind against
// a fresh catalog snapshot: lines to remove because their backing item
// is gone or inactive, and price updates to apply.
type SyncDiff struct {
	Removed []CartLine
	Updated []PriceChange
}

// Empty reports whether the diff requires no mutation.
func (d SyncDiff) Empty() bool { return len(d.Removed) == 0 && len(d.Updated) == 0 }

// SyncListener keeps the cart truthful against catalog state that can
// change while the customer is composing an order.  It subscribes to
// the menu and combo push topics; each event only signals "something
// changed" – the listener re-fetches the active collection and diffs
// it against the cart, so missed or duplicated events converge to the
// same result.
type SyncListener struct {
	cart     *CartStore
	catalog  Catalog
	notifier Notifier
	subs     []Subscription
}

// NewSyncListener wires the listener; call Start to subscribe.
func NewSyncListener(cart *CartStore, catalog Catalog, notifier Notifier) *SyncListener {
	return &SyncListener{cart: cart, catalog: catalog, notifier: notifier}
}

// Start subscribes to both catalog topics.  The passed context bounds
// the re-fetches triggered by incoming events.
func (l *SyncListener) Start(ctx context.Context, sub Subscriber) error {
	menuSub, err := sub.Subscribe(queue.TopicUpdateMenu, func(queue.Event) {
		l.Reconcile(ctx, model.KindMenuItem)
	})
	if err != nil {
		return err
	}
	comboSub, err := sub.Subscribe(queue.TopicComboUpdate, func(queue.Event) {
		l.Reconcile(ctx, model.KindCombo)
	})
	if err != nil {
		menuSub.Unsubscribe()
		return err
	}
	l.subs = append(l.subs, menuSub, comboSub)
	return nil
}

// Close releases the topic subscriptions.
func (l *SyncListener) Close() {
	for _, s := range l.subs {
		s.Unsubscribe()
	}
	l.subs = nil
}

// Reconcile fetches the active collection for one kind and corrects
// the cart: lines whose item vanished are removed with a warning,
// lines whose price drifted get the authoritative price with an info
// notification.  A failed or empty fetch skips the pass entirely –
// stale cart data beats a false-positive removal.  Running the pass
// twice against unchanged data is a no-op.
func (l *SyncListener) Reconcile(ctx context.Context, kind model.ItemKind) {
	var (
		items []CatalogItem
		err   error
	)
	switch kind {
	case model.KindMenuItem:
		items, err = l.catalog.ActiveMenuItems(ctx)
	case model.KindCombo:
		items, err = l.catalog.ActiveCombos(ctx)
	default:
		return
	}
	if err != nil {
		log.Printf("sync: fetch %s catalog failed: %v", kind, err)
		return
	}
	if len(items) == 0 {
		return
	}

	diff := Diff(l.cart.Lines(kind), items)
	for _, ln := range diff.Removed {
		l.cart.RemoveLine(ln.Kind, ln.ID)
		l.notifier.Warn(fmt.Sprintf("%q is no longer available and was removed from your cart", ln.Name))
	}
	for _, ch := range diff.Updated {
		l.cart.UpdatePrice(ch.Line.Kind, ch.Line.ID, ch.NewPrice)
		l.notifier.Info(fmt.Sprintf("price of %q changed: %d → %d", ch.Line.Name, ch.Line.UnitPrice, ch.NewPrice))
	}
}

// Diff compares cart lines of a single kind against the authoritative
// active collection.
func Diff(lines []CartLine, active []CatalogItem) SyncDiff {
	byID := make(map[uint64]CatalogItem, len(active))
	for _, it := range active {
		byID[it.ID] = it
	}
	var d SyncDiff
	for _, ln := range lines {
		it, ok := byID[ln.ID]
		if !ok {
			d.Removed = append(d.Removed, ln)
			continue
		}
		if it.Price != ln.UnitPrice {
			d.Updated = append(d.Updated, PriceChange{Line: ln, NewPrice: it.Price})
		}
	}
	return d
}
