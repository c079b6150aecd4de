package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trungdq/restaurant-booking/internal/model"
)

func TestCartStore_AddLineMergesByKindAndID(t *testing.T) {
	cart := NewCartStore(NewMemoryStorage())

	cart.AddLine(model.KindMenuItem, 42, "Pho Bo", 50000, 1)
	cart.AddLine(model.KindMenuItem, 42, "Pho Bo", 50000, 2)
	cart.AddLine(model.KindMenuItem, 42, "Pho Bo", 50000, 3)
	// Same id under a different kind is a separate line.
	cart.AddLine(model.KindCombo, 42, "Family Combo", 250000, 1)

	menu := cart.Lines(model.KindMenuItem)
	require.Len(t, menu, 1)
	assert.Equal(t, 6, menu[0].Quantity)
	assert.Len(t, cart.Lines(model.KindCombo), 1)
	assert.Len(t, cart.Lines(""), 2)
}

func TestCartStore_SetQuantity(t *testing.T) {
	cart := NewCartStore(NewMemoryStorage())
	cart.AddLine(model.KindMenuItem, 7, "Goi Cuon", 30000, 4)

	cart.SetQuantity(model.KindMenuItem, 7, 2)
	lines := cart.Lines(model.KindMenuItem)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	// Zero (or less) removes the line regardless of prior quantity.
	cart.SetQuantity(model.KindMenuItem, 7, 0)
	assert.Empty(t, cart.Lines(""))

	cart.AddLine(model.KindMenuItem, 7, "Goi Cuon", 30000, 4)
	cart.SetQuantity(model.KindMenuItem, 7, -1)
	assert.Empty(t, cart.Lines(""))
}

func TestCartStore_RemoveLineMissingIsNoop(t *testing.T) {
	cart := NewCartStore(NewMemoryStorage())
	cart.AddLine(model.KindMenuItem, 1, "Banh Mi", 25000, 1)

	cart.RemoveLine(model.KindCombo, 1)
	cart.RemoveLine(model.KindMenuItem, 99)
	assert.Len(t, cart.Lines(""), 1)

	cart.RemoveLine(model.KindMenuItem, 1)
	assert.Empty(t, cart.Lines(""))
}

func TestCartStore_PersistenceRoundTrip(t *testing.T) {
	storage := NewMemoryStorage()

	cart := NewCartStore(storage)
	cart.AddLine(model.KindMenuItem, 42, "Pho Bo", 50000, 2)
	cart.AddLine(model.KindCombo, 3, "Family Combo", 250000, 1)
	cart.BindOrderID(17)
	cart.SetBooking(BookingDraft{
		FullName:        "Tran Van A",
		Phone:           "0901234567",
		GuestCount:      4,
		ReservationTime: time.Date(2026, 9, 2, 19, 0, 0, 0, time.UTC),
		Note:            "window seat",
	})
	cart.SelectVoucher(&SelectedVoucher{Code: "WELCOME10", Percent: 10})

	// A fresh store over the same storage simulates a reload.
	reloaded := NewCartStore(storage)
	assert.Equal(t, cart.Order(), reloaded.Order())
	assert.Equal(t, cart.Booking(), reloaded.Booking())
	require.NotNil(t, reloaded.Voucher())
	assert.Equal(t, "WELCOME10", reloaded.Voucher().Code)
	assert.Equal(t, int64(350000), reloaded.Total())
}

func TestCartStore_CorruptedStorageStartsEmpty(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"json array", `[{"kind":"MENU_ITEM","id":1}]`},
		{"string primitive", `"orders"`},
		{"number primitive", `42`},
		{"malformed json", `{"order_id": 1,`},
		{"empty value", ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			require.NoError(t, storage.Set(KeyOrderDraft, []byte(tc.raw)))
			require.NoError(t, storage.Set(KeyBookingDraft, []byte(tc.raw)))
			require.NoError(t, storage.Set(KeyVoucher, []byte(tc.raw)))

			cart := NewCartStore(storage)
			assert.Empty(t, cart.Lines(""))
			assert.Zero(t, cart.Order().OrderID)
			assert.Equal(t, BookingDraft{}, cart.Booking())
			assert.Nil(t, cart.Voucher())
		})
	}
}

func TestCartStore_LoadDropsNonPositiveQuantities(t *testing.T) {
	storage := NewMemoryStorage()
	raw := `{"order_id":0,"lines":[
		{"kind":"MENU_ITEM","id":1,"name":"Pho Bo","unit_price":50000,"quantity":2},
		{"kind":"MENU_ITEM","id":2,"name":"Bun Cha","unit_price":45000,"quantity":0},
		{"kind":"COMBO","id":3,"name":"Family Combo","unit_price":250000,"quantity":-4}
	]}`
	require.NoError(t, storage.Set(KeyOrderDraft, []byte(raw)))

	cart := NewCartStore(storage)
	lines := cart.Lines("")
	require.Len(t, lines, 1)
	assert.Equal(t, uint64(1), lines[0].ID)
}

func TestCartStore_ClearPurgesMemoryAndStorage(t *testing.T) {
	storage := NewMemoryStorage()
	cart := NewCartStore(storage)
	cart.AddLine(model.KindMenuItem, 42, "Pho Bo", 50000, 2)
	cart.SetBooking(BookingDraft{FullName: "Tran Van A", GuestCount: 2})
	cart.SelectVoucher(&SelectedVoucher{Code: "WELCOME10", Percent: 10})

	cart.Clear()

	assert.Empty(t, cart.Lines(""))
	assert.Equal(t, BookingDraft{}, cart.Booking())
	assert.Nil(t, cart.Voucher())
	for _, key := range []string{KeyOrderDraft, KeyBookingDraft, KeyVoucher} {
		_, ok, err := storage.Get(key)
		require.NoError(t, err)
		assert.False(t, ok, "persisted entry %q should be gone", key)
	}
}

func TestCartStore_UpdatePriceOnlyTouchesMatch(t *testing.T) {
	cart := NewCartStore(NewMemoryStorage())
	cart.AddLine(model.KindMenuItem, 7, "Goi Cuon", 30000, 1)

	cart.UpdatePrice(model.KindMenuItem, 7, 35000)
	cart.UpdatePrice(model.KindMenuItem, 8, 99999) // missing line, no-op
	cart.UpdatePrice(model.KindCombo, 7, 99999)    // other kind, no-op

	lines := cart.Lines("")
	require.Len(t, lines, 1)
	assert.Equal(t, int64(35000), lines[0].UnitPrice)
}
