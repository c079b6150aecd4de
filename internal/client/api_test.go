package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trungdq/restaurant-booking/internal/session"
)

func TestCreateHoldMapsPendingOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tables/3/hold", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "you already have a pending order",
			"code":  "pending_order",
		})
	}))
	defer srv.Close()

	api := NewAPI(srv.URL)
	_, _, err := api.CreateHold(context.Background(), 3, time.Now().Add(time.Hour), 2)
	assert.ErrorIs(t, err, session.ErrPendingOrder)
}

func TestCreateHoldSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hold_key":    "hold:5:3",
			"ttl_seconds": 300,
		})
	}))
	defer srv.Close()

	api := NewAPI(srv.URL)
	key, ttl, err := api.CreateHold(context.Background(), 3, time.Now().Add(time.Hour), 2)
	require.NoError(t, err)
	assert.Equal(t, "hold:5:3", key)
	assert.Equal(t, 300, ttl)
}

func TestReleaseHoldTreatsMissingAsReleased(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	api := NewAPI(srv.URL)
	assert.NoError(t, api.ReleaseHold(context.Background(), "hold:5:3"))
}

func TestActiveMenuItemsDecodesAndSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": 1, "name": "Pho Bo", "price": 65000},
				{"id": 2, "name": "Bun Cha", "price": 55000},
			},
		})
	}))
	defer srv.Close()

	api := NewAPI(srv.URL)
	api.SetToken("tok-123")
	items, err := api.ActiveMenuItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, session.CatalogItem{ID: 1, Name: "Pho Bo", Price: 65000}, items[0])
}

func TestErrorBodySurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"table_id and items are required"}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.URL)
	_, err := api.SubmitOrder(context.Background(), OrderInput{})
	require.Error(t, err)
	assert.Equal(t, "table_id and items are required", err.Error())
}
