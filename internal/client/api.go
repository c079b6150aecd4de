// Package client is the device-side half of the booking system.  It
// talks to the API server over REST and WebSocket and plugs into the
// session package through its Storage, Catalog, HoldService and
// Subscriber interfaces.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trungdq/restaurant-booking/internal/model"
	"github.com/trungdq/restaurant-booking/internal/session"
)

// API is a thin typed wrapper over the server's REST surface.  It
// implements session.Catalog and session.HoldService.
type API struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewAPI builds a client for the given base URL, e.g.
// "http://localhost:8080".
func NewAPI(baseURL string) *API {
	return &API{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken installs the access token used on authenticated calls.
func (a *API) SetToken(token string) { a.token = token }

// apiError is the server's JSON error body.  Code carries the
// machine-readable reason for 409s, e.g. "pending_order".
type apiError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Code    string `json:"code"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// do issues a request and decodes a 2xx JSON body into out (when out
// is non-nil).  Non-2xx responses come back as *apiError.
func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ----- auth -----

// AuthResult is what login/register hand back to the UI.
type AuthResult struct {
	User struct {
		ID       uint64 `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	} `json:"user"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Login authenticates and installs the returned token on the client.
func (a *API) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	err := a.do(ctx, http.MethodPost, "/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	a.token = res.Token
	return &res, nil
}

// Register creates an account and installs the returned token.
func (a *API) Register(ctx context.Context, email, password, fullName, phone string) (*AuthResult, error) {
	var res AuthResult
	err := a.do(ctx, http.MethodPost, "/v1/auth/register", map[string]string{
		"email":     email,
		"password":  password,
		"full_name": fullName,
		"phone":     phone,
	}, &res)
	if err != nil {
		return nil, err
	}
	a.token = res.Token
	return &res, nil
}

// ----- catalog (session.Catalog) -----

// ActiveMenuItems fetches the active menu from the server.
func (a *API) ActiveMenuItems(ctx context.Context) ([]session.CatalogItem, error) {
	var res struct {
		Items []session.CatalogItem `json:"items"`
	}
	if err := a.do(ctx, http.MethodGet, "/v1/menu-items", nil, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// ActiveCombos fetches the active combos from the server.
func (a *API) ActiveCombos(ctx context.Context) ([]session.CatalogItem, error) {
	var res struct {
		Combos []session.CatalogItem `json:"combos"`
	}
	if err := a.do(ctx, http.MethodGet, "/v1/combos", nil, &res); err != nil {
		return nil, err
	}
	return res.Combos, nil
}

// ----- tables and holds (session.HoldService) -----

// TableView is a floor-map entry: the table plus whether some customer
// currently holds it.
type TableView struct {
	model.Table
	Held bool `json:"held"`
}

// Tables fetches the floor map.
func (a *API) Tables(ctx context.Context) ([]TableView, error) {
	var res struct {
		Tables []TableView `json:"tables"`
	}
	if err := a.do(ctx, http.MethodGet, "/v1/tables", nil, &res); err != nil {
		return nil, err
	}
	return res.Tables, nil
}

// CreateHold claims a table.  A 409 with code "pending_order" maps to
// session.ErrPendingOrder so the coordinator can redirect instead of
// surfacing a raw failure.
func (a *API) CreateHold(ctx context.Context, tableID uint64, reservationTime time.Time, guestCount uint32) (string, int, error) {
	var res struct {
		HoldKey    string `json:"hold_key"`
		TTLSeconds int    `json:"ttl_seconds"`
	}
	err := a.do(ctx, http.MethodPost, fmt.Sprintf("/v1/tables/%d/hold", tableID), map[string]any{
		"reservation_time": reservationTime,
		"guest_count":      guestCount,
	}, &res)
	if err != nil {
		if apiErr, ok := err.(*apiError); ok && apiErr.Code == "pending_order" {
			return "", 0, session.ErrPendingOrder
		}
		return "", 0, err
	}
	return res.HoldKey, res.TTLSeconds, nil
}

// HoldTTL asks the server how long the hold has left.
func (a *API) HoldTTL(ctx context.Context, key string) (int, error) {
	var res struct {
		TTLSeconds int `json:"ttl_seconds"`
	}
	if err := a.do(ctx, http.MethodGet, "/v1/holds/"+key+"/ttl", nil, &res); err != nil {
		return 0, err
	}
	return res.TTLSeconds, nil
}

// ReleaseHold gives the table back early.
func (a *API) ReleaseHold(ctx context.Context, key string) error {
	err := a.do(ctx, http.MethodDelete, "/v1/holds/"+key, nil, nil)
	if apiErr, ok := err.(*apiError); ok && apiErr.Status == http.StatusNotFound {
		// Already expired server-side; the outcome is the same.
		return nil
	}
	return err
}

// ----- orders and vouchers -----

// OrderItemInput is one cart line in an order submission.
type OrderItemInput struct {
	Kind     model.ItemKind `json:"kind"`
	ID       uint64         `json:"id"`
	Quantity uint32         `json:"quantity"`
}

// OrderInput is an order submission body.
type OrderInput struct {
	TableID     uint64           `json:"table_id"`
	Note        string           `json:"note"`
	VoucherCode string           `json:"voucher_code"`
	Items       []OrderItemInput `json:"items"`
}

// SubmitOrder submits a booked order; the server consumes the hold.
func (a *API) SubmitOrder(ctx context.Context, in OrderInput) (*model.Order, error) {
	var order model.Order
	if err := a.do(ctx, http.MethodPost, "/v1/orders", in, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Orders fetches the caller's booking history.
func (a *API) Orders(ctx context.Context) ([]model.Order, error) {
	var res struct {
		Orders []model.Order `json:"orders"`
	}
	if err := a.do(ctx, http.MethodGet, "/v1/orders", nil, &res); err != nil {
		return nil, err
	}
	return res.Orders, nil
}

// CancelOrder cancels one of the caller's orders.
func (a *API) CancelOrder(ctx context.Context, orderID uint64) error {
	return a.do(ctx, http.MethodPost, fmt.Sprintf("/v1/orders/%d/cancel", orderID), nil, nil)
}

// Vouchers lists codes the customer can pick from.
func (a *API) Vouchers(ctx context.Context) ([]model.Voucher, error) {
	var res struct {
		Vouchers []model.Voucher `json:"vouchers"`
	}
	if err := a.do(ctx, http.MethodGet, "/v1/vouchers", nil, &res); err != nil {
		return nil, err
	}
	return res.Vouchers, nil
}
