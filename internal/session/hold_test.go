package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trungdq/restaurant-booking/internal/queue"
)

func futureTime() time.Time { return time.Now().Add(2 * time.Hour) }

func TestHoldCoordinator_RequestHoldValidation(t *testing.T) {
	cases := []struct {
		name       string
		tableID    uint64
		resTime    time.Time
		guestCount uint32
	}{
		{"no table selected", 0, futureTime(), 2},
		{"missing reservation time", 3, time.Time{}, 2},
		{"reservation time in the past", 3, time.Now().Add(-time.Hour), 2},
		{"missing guest count", 3, futureTime(), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeHoldService{}
			notifier := &fakeNotifier{}
			nav := &fakeNavigator{}
			h := NewHoldCoordinator(svc, notifier, nav, 5)

			err := h.RequestHold(context.Background(), tc.tableID, tc.resTime, tc.guestCount)
			require.Error(t, err)
			assert.Zero(t, svc.createCalls, "validation errors must not reach the network")
			assert.Len(t, notifier.errors, 1)
			assert.Nil(t, h.Current())
			assert.Empty(t, nav.views)
		})
	}
}

func TestHoldCoordinator_RequestHoldSuccess(t *testing.T) {
	svc := &fakeHoldService{createKey: "hold:5:3", createTTL: 300}
	notifier := &fakeNotifier{}
	nav := &fakeNavigator{}
	h := NewHoldCoordinator(svc, notifier, nav, 5)

	require.NoError(t, h.RequestHold(context.Background(), 3, futureTime(), 4))

	hold := h.Current()
	require.NotNil(t, hold)
	assert.Equal(t, "hold:5:3", hold.Key)
	assert.Equal(t, uint64(3), hold.TableID)
	assert.Equal(t, ViewBookingDetail, nav.last())
	rem := h.RemainingSeconds()
	assert.Greater(t, rem, 290)
	assert.LessOrEqual(t, rem, 300)
}

func TestHoldCoordinator_PendingOrderRedirectsToHistory(t *testing.T) {
	svc := &fakeHoldService{createErr: ErrPendingOrder}
	notifier := &fakeNotifier{}
	nav := &fakeNavigator{}
	h := NewHoldCoordinator(svc, notifier, nav, 5)

	err := h.RequestHold(context.Background(), 3, futureTime(), 2)
	require.ErrorIs(t, err, ErrPendingOrder)
	assert.Equal(t, ViewBookingHistory, nav.last())
	assert.Nil(t, h.Current())
	assert.Len(t, notifier.warns, 1)
}

func TestHoldCoordinator_ServerErrorSurfacesMessage(t *testing.T) {
	svc := &fakeHoldService{createErr: errors.New("table already held")}
	notifier := &fakeNotifier{}
	nav := &fakeNavigator{}
	h := NewHoldCoordinator(svc, notifier, nav, 5)

	require.Error(t, h.RequestHold(context.Background(), 3, futureTime(), 2))
	require.Len(t, notifier.errors, 1)
	assert.Contains(t, notifier.errors[0], "table already held")
	assert.Empty(t, nav.views)
}

func TestHoldCoordinator_MatchingExpiryEventClearsAndRedirects(t *testing.T) {
	svc := &fakeHoldService{createKey: "hold:5:3", createTTL: 300}
	notifier := &fakeNotifier{}
	nav := &fakeNavigator{}
	bus := newFakeBus()
	h := NewHoldCoordinator(svc, notifier, nav, 5)
	require.NoError(t, h.Start(context.Background(), bus))
	defer h.Close()
	require.NoError(t, h.RequestHold(context.Background(), 3, futureTime(), 2))

	bus.Emit(queue.TopicTableHoldExpired, queue.HoldExpiredPayload{TableID: 3, UserID: 5})

	assert.Nil(t, h.Current(), "hold state must transition back to no hold")
	assert.Len(t, notifier.warns, 1)
	assert.Equal(t, ViewTables, nav.last())
}

func TestHoldCoordinator_NonMatchingExpiryOnlyRefreshesTTL(t *testing.T) {
	svc := &fakeHoldService{createKey: "hold:5:3", createTTL: 300, ttl: 120}
	notifier := &fakeNotifier{}
	nav := &fakeNavigator{}
	bus := newFakeBus()
	h := NewHoldCoordinator(svc, notifier, nav, 5)
	require.NoError(t, h.Start(context.Background(), bus))
	defer h.Close()
	require.NoError(t, h.RequestHold(context.Background(), 3, futureTime(), 2))

	// Different table, same user: someone else's hold on this account's
	// point of view does not exist, so state stays put.
	bus.Emit(queue.TopicTableHoldExpired, queue.HoldExpiredPayload{TableID: 9, UserID: 5})

	require.NotNil(t, h.Current())
	assert.Equal(t, uint64(3), h.Current().TableID)
	assert.Equal(t, 1, svc.ttlCalls, "ambiguous signal triggers exactly one TTL refresh")
	assert.Equal(t, ViewBookingDetail, nav.last())
	// The refresh adopted the server-reported 120s.
	assert.LessOrEqual(t, h.RemainingSeconds(), 120)
}

func TestHoldCoordinator_TableResetEndsGoneHold(t *testing.T) {
	// The backend freed the held table (admin reset); the TTL re-check
	// finds the hold gone and the state transitions to no hold.
	svc := &fakeHoldService{createKey: "hold:5:3", createTTL: 300, ttl: 0}
	notifier := &fakeNotifier{}
	nav := &fakeNavigator{}
	bus := newFakeBus()
	h := NewHoldCoordinator(svc, notifier, nav, 5)
	require.NoError(t, h.Start(context.Background(), bus))
	defer h.Close()
	require.NoError(t, h.RequestHold(context.Background(), 3, futureTime(), 2))

	bus.Emit(queue.TopicResetTableAvailable, queue.TablePayload{TableID: 3})

	assert.Nil(t, h.Current())
	assert.Equal(t, ViewTables, nav.last())
}

func TestHoldCoordinator_TableResetForOtherTableIsIgnored(t *testing.T) {
	svc := &fakeHoldService{createKey: "hold:5:3", createTTL: 300, ttl: 120}
	notifier := &fakeNotifier{}
	nav := &fakeNavigator{}
	bus := newFakeBus()
	h := NewHoldCoordinator(svc, notifier, nav, 5)
	require.NoError(t, h.Start(context.Background(), bus))
	defer h.Close()
	require.NoError(t, h.RequestHold(context.Background(), 3, futureTime(), 2))

	bus.Emit(queue.TopicResetTableAvailable, queue.TablePayload{TableID: 9})

	require.NotNil(t, h.Current())
	assert.Equal(t, 0, svc.ttlCalls, "unrelated table resets must not hit the server")
}

func TestHoldCoordinator_RefreshTTLTreatsNonPositiveAsExpired(t *testing.T) {
	svc := &fakeHoldService{createKey: "hold:5:3", createTTL: 300, ttl: 0}
	notifier := &fakeNotifier{}
	nav := &fakeNavigator{}
	h := NewHoldCoordinator(svc, notifier, nav, 5)
	require.NoError(t, h.RequestHold(context.Background(), 3, futureTime(), 2))

	h.RefreshTTL(context.Background())

	assert.Nil(t, h.Current())
	assert.Equal(t, ViewTables, nav.last())
}

func TestHoldCoordinator_CancelNavigatesBackEvenOnFailure(t *testing.T) {
	svc := &fakeHoldService{createKey: "hold:5:3", createTTL: 300, releaseErr: errors.New("broker hiccup")}
	notifier := &fakeNotifier{}
	nav := &fakeNavigator{}
	h := NewHoldCoordinator(svc, notifier, nav, 5)
	require.NoError(t, h.RequestHold(context.Background(), 3, futureTime(), 2))

	h.CancelHold(context.Background())

	assert.Nil(t, h.Current())
	assert.Equal(t, ViewTables, nav.last())
	assert.Len(t, notifier.errors, 1)
}

func TestHoldCoordinator_OrderSubmittedConsumesHold(t *testing.T) {
	svc := &fakeHoldService{createKey: "hold:5:3", createTTL: 300}
	h := NewHoldCoordinator(svc, &fakeNotifier{}, &fakeNavigator{}, 5)
	require.NoError(t, h.RequestHold(context.Background(), 3, futureTime(), 2))

	h.OrderSubmitted()
	assert.Nil(t, h.Current())
	assert.Zero(t, h.RemainingSeconds())
}

func TestHoldCoordinator_ExpiryEventWithoutHoldIsIgnored(t *testing.T) {
	svc := &fakeHoldService{}
	nav := &fakeNavigator{}
	bus := newFakeBus()
	h := NewHoldCoordinator(svc, &fakeNotifier{}, nav, 5)
	require.NoError(t, h.Start(context.Background(), bus))
	defer h.Close()

	bus.Emit(queue.TopicTableHoldExpired, queue.HoldExpiredPayload{TableID: 3, UserID: 5})
	assert.Empty(t, nav.views)
	assert.Zero(t, svc.ttlCalls)
}
