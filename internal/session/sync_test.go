package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trungdq/restaurant-booking/internal/model"
	"github.com/trungdq/restaurant-booking/internal/queue"
)

func TestSyncListener_RemovesVanishedItem(t *testing.T) {
	cart := NewCartStore(NewMemoryStorage())
	cart.AddLine(model.KindMenuItem, 42, "Pho Bo", 50000, 2)

	catalog := &fakeCatalog{menu: []CatalogItem{{ID: 1, Name: "Bun Cha", Price: 45000}}}
	notifier := &fakeNotifier{}
	l := NewSyncListener(cart, catalog, notifier)

	l.Reconcile(context.Background(), model.KindMenuItem)

	assert.Empty(t, cart.Lines(model.KindMenuItem))
	require.Len(t, notifier.warns, 1)
	assert.Contains(t, notifier.warns[0], "Pho Bo")
}

func TestSyncListener_UpdatesDriftedPrice(t *testing.T) {
	cart := NewCartStore(NewMemoryStorage())
	cart.AddLine(model.KindMenuItem, 7, "Goi Cuon", 30000, 1)

	catalog := &fakeCatalog{menu: []CatalogItem{{ID: 7, Name: "Goi Cuon", Price: 35000}}}
	notifier := &fakeNotifier{}
	l := NewSyncListener(cart, catalog, notifier)

	l.Reconcile(context.Background(), model.KindMenuItem)

	lines := cart.Lines(model.KindMenuItem)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(35000), lines[0].UnitPrice)
	require.Len(t, notifier.infos, 1)
	assert.Contains(t, notifier.infos[0], "30000 → 35000")
}

func TestSyncListener_ReconcileIsIdempotent(t *testing.T) {
	cart := NewCartStore(NewMemoryStorage())
	cart.AddLine(model.KindMenuItem, 7, "Goi Cuon", 30000, 1)
	cart.AddLine(model.KindMenuItem, 42, "Pho Bo", 50000, 2)

	catalog := &fakeCatalog{menu: []CatalogItem{{ID: 7, Name: "Goi Cuon", Price: 35000}}}
	notifier := &fakeNotifier{}
	l := NewSyncListener(cart, catalog, notifier)

	l.Reconcile(context.Background(), model.KindMenuItem)
	after := cart.Lines("")

	// A second pass against unchanged data mutates nothing and emits
	// no further notifications.
	l.Reconcile(context.Background(), model.KindMenuItem)
	assert.Equal(t, after, cart.Lines(""))
	assert.Len(t, notifier.warns, 1)
	assert.Len(t, notifier.infos, 1)
}

func TestSyncListener_SkipsPassOnFetchFailure(t *testing.T) {
	cart := NewCartStore(NewMemoryStorage())
	cart.AddLine(model.KindMenuItem, 42, "Pho Bo", 50000, 2)

	catalog := &fakeCatalog{err: errors.New("network down")}
	notifier := &fakeNotifier{}
	l := NewSyncListener(cart, catalog, notifier)

	l.Reconcile(context.Background(), model.KindMenuItem)

	// Stale cart data beats a false-positive removal.
	assert.Len(t, cart.Lines(""), 1)
	assert.Empty(t, notifier.warns)
	assert.Empty(t, notifier.infos)
}

func TestSyncListener_SkipsPassOnEmptyFetch(t *testing.T) {
	cart := NewCartStore(NewMemoryStorage())
	cart.AddLine(model.KindCombo, 3, "Family Combo", 250000, 1)

	catalog := &fakeCatalog{combos: nil}
	notifier := &fakeNotifier{}
	l := NewSyncListener(cart, catalog, notifier)

	l.Reconcile(context.Background(), model.KindCombo)
	assert.Len(t, cart.Lines(""), 1)
}

func TestSyncListener_EventsTriggerKindSpecificReconcile(t *testing.T) {
	cart := NewCartStore(NewMemoryStorage())
	cart.AddLine(model.KindMenuItem, 42, "Pho Bo", 50000, 2)
	cart.AddLine(model.KindCombo, 3, "Family Combo", 250000, 1)

	catalog := &fakeCatalog{
		menu:   []CatalogItem{{ID: 42, Name: "Pho Bo", Price: 55000}},
		combos: []CatalogItem{{ID: 9, Name: "Other Combo", Price: 100000}},
	}
	notifier := &fakeNotifier{}
	bus := newFakeBus()

	l := NewSyncListener(cart, catalog, notifier)
	require.NoError(t, l.Start(context.Background(), bus))
	defer l.Close()

	// The payload on catalog topics is advisory and ignored.
	bus.Emit(queue.TopicUpdateMenu, map[string]any{"whatever": true})
	menu := cart.Lines(model.KindMenuItem)
	require.Len(t, menu, 1)
	assert.Equal(t, int64(55000), menu[0].UnitPrice)
	assert.Len(t, cart.Lines(model.KindCombo), 1) // combos untouched

	bus.Emit(queue.TopicComboUpdate, nil)
	assert.Empty(t, cart.Lines(model.KindCombo))
	require.Len(t, notifier.warns, 1)
	assert.Contains(t, notifier.warns[0], "Family Combo")
}

func TestSyncListener_CloseStopsHandling(t *testing.T) {
	cart := NewCartStore(NewMemoryStorage())
	cart.AddLine(model.KindMenuItem, 42, "Pho Bo", 50000, 2)

	catalog := &fakeCatalog{menu: []CatalogItem{{ID: 1, Name: "Bun Cha", Price: 45000}}}
	bus := newFakeBus()
	l := NewSyncListener(cart, catalog, &fakeNotifier{})
	require.NoError(t, l.Start(context.Background(), bus))

	l.Close()
	bus.Emit(queue.TopicUpdateMenu, nil)
	assert.Len(t, cart.Lines(""), 1, "no reconcile after Close")
}

func TestDiff(t *testing.T) {
	lines := []CartLine{
		{Kind: model.KindMenuItem, ID: 1, Name: "A", UnitPrice: 10000, Quantity: 1},
		{Kind: model.KindMenuItem, ID: 2, Name: "B", UnitPrice: 20000, Quantity: 2},
		{Kind: model.KindMenuItem, ID: 3, Name: "C", UnitPrice: 30000, Quantity: 3},
	}
	active := []CatalogItem{
		{ID: 1, Name: "A", Price: 10000}, // unchanged
		{ID: 3, Name: "C", Price: 32000}, // price drifted
	}

	d := Diff(lines, active)
	require.Len(t, d.Removed, 1)
	assert.Equal(t, uint64(2), d.Removed[0].ID)
	require.Len(t, d.Updated, 1)
	assert.Equal(t, uint64(3), d.Updated[0].Line.ID)
	assert.Equal(t, int64(32000), d.Updated[0].NewPrice)

	assert.True(t, Diff(nil, active).Empty())
}
