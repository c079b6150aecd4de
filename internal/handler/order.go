package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trungdq/restaurant-booking/internal/model"
	"github.com/trungdq/restaurant-booking/internal/queue"
	"github.com/trungdq/restaurant-booking/internal/repository"
)

// OrderHandler serves the order lifecycle.  Submission is where the
// client's optimistic cart meets server truth: item names and prices
// are re-read from the catalog at submit time, the hold is consumed,
// and any voucher discount is applied server-side.  The client's price
// snapshots are advisory only.
type OrderHandler struct {
	OrderRepo   *repository.OrderRepo
	MenuRepo    *repository.MenuRepo
	ComboRepo   *repository.ComboRepo
	TableRepo   *repository.TableRepo
	HoldRepo    *repository.HoldRepo
	VoucherRepo *repository.VoucherRepo
	Pub         Publisher
}

// NewOrderHandler constructs an OrderHandler.  All dependencies must
// be non-nil.
func NewOrderHandler(orderRepo *repository.OrderRepo, menuRepo *repository.MenuRepo, comboRepo *repository.ComboRepo, tableRepo *repository.TableRepo, holdRepo *repository.HoldRepo, voucherRepo *repository.VoucherRepo, pub Publisher) *OrderHandler {
	if orderRepo == nil || menuRepo == nil || comboRepo == nil || tableRepo == nil || holdRepo == nil || voucherRepo == nil || pub == nil {
		panic("nil dependency passed to NewOrderHandler")
	}
	return &OrderHandler{
		OrderRepo:   orderRepo,
		MenuRepo:    menuRepo,
		ComboRepo:   comboRepo,
		TableRepo:   tableRepo,
		HoldRepo:    holdRepo,
		VoucherRepo: voucherRepo,
		Pub:         pub,
	}
}

type orderItemBody struct {
	Kind     model.ItemKind `json:"kind"`
	ID       uint64         `json:"id"`
	Quantity uint32         `json:"quantity"`
}

type orderBody struct {
	TableID     uint64          `json:"table_id"`
	Note        string          `json:"note"`
	VoucherCode string          `json:"voucher_code"`
	Items       []orderItemBody `json:"items"`
}

// snapshotItems re-reads every requested item from the catalog and
// builds order-line snapshots with the authoritative name and price.
// Inactive or unknown items fail the whole submission: the client is
// expected to have reconciled already, and a partial order would
// surprise the customer more than a rejection.
func (h *OrderHandler) snapshotItems(ctx context.Context, items []orderItemBody) ([]model.OrderItem, int64, error) {
	if len(items) == 0 {
		return nil, 0, errors.New("order has no items")
	}
	out := make([]model.OrderItem, 0, len(items))
	var total int64
	for _, it := range items {
		if it.Quantity == 0 {
			return nil, 0, errors.New("item quantity must be positive")
		}
		var (
			name   string
			price  int64
			active bool
		)
		switch it.Kind {
		case model.KindMenuItem:
			m, err := h.MenuRepo.GetByID(ctx, it.ID)
			if err != nil {
				return nil, 0, fmt.Errorf("menu item %d is not available", it.ID)
			}
			name, price, active = m.Name, m.Price, m.Active
		case model.KindCombo:
			cb, err := h.ComboRepo.GetByID(ctx, it.ID)
			if err != nil {
				return nil, 0, fmt.Errorf("combo %d is not available", it.ID)
			}
			name, price, active = cb.Name, cb.Price, cb.Active
		default:
			return nil, 0, fmt.Errorf("unknown item kind %q", it.Kind)
		}
		if !active {
			return nil, 0, fmt.Errorf("%s is no longer available", name)
		}
		out = append(out, model.OrderItem{
			Kind:     it.Kind,
			ItemID:   it.ID,
			Name:     name,
			Price:    price,
			Quantity: it.Quantity,
		})
		total += price * int64(it.Quantity)
	}
	return out, total, nil
}

// applyVoucher validates the code and returns the discounted total.
func (h *OrderHandler) applyVoucher(ctx context.Context, code string, total int64) (int64, error) {
	if code == "" {
		return total, nil
	}
	v, err := h.VoucherRepo.GetRedeemable(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, errors.New("voucher is not valid")
	}
	if err != nil {
		return 0, err
	}
	return total - total*int64(v.Percent)/100, nil
}

// CreateOrder handles POST /v1/orders – the booking path.  The caller
// must hold the table; the hold is revalidated against Redis and
// consumed on success, so an expired hold is rejected here no matter
// what countdown the client was still showing.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body orderBody
	if err := c.Bind(&body); err != nil || body.TableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id and items are required"})
	}

	ctx := c.Request().Context()
	holdKey := model.HoldKey(userID, body.TableID)
	hold, err := h.HoldRepo.Get(ctx, holdKey)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "your table hold has expired", "code": "hold_expired"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold store error"})
	}

	items, total, err := h.snapshotItems(ctx, body.Items)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	total, err = h.applyVoucher(ctx, body.VoucherCode, total)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	order := model.Order{
		UserID:          userID,
		TableID:         body.TableID,
		Status:          model.OrderPending,
		ReservationTime: hold.ReservationTime,
		GuestCount:      hold.GuestCount,
		Note:            body.Note,
		VoucherCode:     body.VoucherCode,
		Total:           total,
		Items:           items,
	}
	if err := h.OrderRepo.Create(ctx, &order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// The submission consumes the hold and commits the table.
	if err := h.HoldRepo.Delete(ctx, holdKey); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("orders: consume hold %s failed: %v", holdKey, err)
	}
	if err := h.TableRepo.UpdateStatus(ctx, body.TableID, model.TableReserved); err != nil {
		log.Printf("orders: reserve table %d failed: %v", body.TableID, err)
	}
	h.publish(c, queue.NewEvent(queue.TopicTableUpdate, queue.TablePayload{TableID: body.TableID}))
	return c.JSON(http.StatusCreated, order)
}

// CreateOrderNow handles POST /v1/orders/now – the walk-in path.  No
// hold is involved: the table is taken immediately and the order
// starts checked in.
func (h *OrderHandler) CreateOrderNow(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body orderBody
	if err := c.Bind(&body); err != nil || body.TableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id and items are required"})
	}

	ctx := c.Request().Context()
	table, err := h.TableRepo.GetByID(ctx, body.TableID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if table.Status != model.TableAvailable {
		return c.JSON(http.StatusConflict, echo.Map{"error": "table is not available"})
	}

	items, total, err := h.snapshotItems(ctx, body.Items)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	total, err = h.applyVoucher(ctx, body.VoucherCode, total)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	order := model.Order{
		UserID:          userID,
		TableID:         body.TableID,
		Status:          model.OrderCheckedIn,
		ReservationTime: time.Now().UTC(),
		GuestCount:      table.Seats,
		Note:            body.Note,
		VoucherCode:     body.VoucherCode,
		Total:           total,
		Items:           items,
	}
	if err := h.OrderRepo.Create(ctx, &order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.TableRepo.UpdateStatus(ctx, body.TableID, model.TableOccupied); err != nil {
		log.Printf("orders: occupy table %d failed: %v", body.TableID, err)
	}
	h.publish(c, queue.NewEvent(queue.TopicTableUpdate, queue.TablePayload{TableID: body.TableID}))
	return c.JSON(http.StatusCreated, order)
}

// OrderMore handles POST /v1/orders/:id/items.  Additional items are
// snapshotted at current catalog prices and appended to the open
// order.
func (h *OrderHandler) OrderMore(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var body struct {
		Items []orderItemBody `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	order, err := h.OrderRepo.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if order.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your order"})
	}

	items, _, err := h.snapshotItems(ctx, body.Items)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	err = h.OrderRepo.AddItems(ctx, orderID, items)
	if errors.Is(err, repository.ErrConflict) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order no longer accepts items"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	updated, err := h.OrderRepo.GetByID(ctx, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, updated)
}

// CancelOrder handles POST /v1/orders/:id/cancel.  The table is freed
// and announced so every floor-map client refreshes.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()
	order, err := h.OrderRepo.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if order.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your order"})
	}
	if order.Status != model.OrderPending && order.Status != model.OrderCheckedIn {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order cannot be cancelled"})
	}
	if err := h.OrderRepo.UpdateStatus(ctx, orderID, 0, model.OrderCancelled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if order.TableID != 0 {
		if err := h.TableRepo.UpdateStatus(ctx, order.TableID, model.TableAvailable); err != nil {
			log.Printf("orders: free table %d failed: %v", order.TableID, err)
		}
		h.publish(c, queue.NewEvent(queue.TopicResetTableAvailable, queue.TablePayload{TableID: order.TableID}))
		h.publish(c, queue.NewEvent(queue.TopicTableUpdate, queue.TablePayload{TableID: order.TableID}))
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled": true})
}

// CheckIn handles POST /v1/orders/:id/checkin (admin).  The party has
// arrived: the order moves to CHECKED_IN and the table to OCCUPIED.
func (h *OrderHandler) CheckIn(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()
	order, err := h.OrderRepo.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if order.Status != model.OrderPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order is not pending"})
	}
	if err := h.OrderRepo.UpdateStatus(ctx, orderID, 0, model.OrderCheckedIn); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.TableRepo.UpdateStatus(ctx, order.TableID, model.TableOccupied); err != nil {
		log.Printf("orders: occupy table %d failed: %v", order.TableID, err)
	}
	h.publish(c, queue.NewEvent(queue.TopicTableUpdate, queue.TablePayload{TableID: order.TableID}))
	return c.JSON(http.StatusOK, echo.Map{"checked_in": true})
}

// MoveTable handles POST /v1/orders/:id/move (admin).
func (h *OrderHandler) MoveTable(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var body struct {
		TableID uint64 `json:"table_id"`
	}
	if err := c.Bind(&body); err != nil || body.TableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id is required"})
	}
	ctx := c.Request().Context()
	order, err := h.OrderRepo.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	dest, err := h.TableRepo.GetByID(ctx, body.TableID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if dest.Status != model.TableAvailable {
		return c.JSON(http.StatusConflict, echo.Map{"error": "destination table is not available"})
	}
	if err := h.OrderRepo.MoveTable(ctx, orderID, body.TableID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "order cannot be moved"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Swap table statuses: destination inherits the order's state, the
	// old table is freed.
	newStatus := model.TableReserved
	if order.Status == model.OrderCheckedIn {
		newStatus = model.TableOccupied
	}
	if err := h.TableRepo.UpdateStatus(ctx, body.TableID, newStatus); err != nil {
		log.Printf("orders: update table %d failed: %v", body.TableID, err)
	}
	if order.TableID != 0 {
		if err := h.TableRepo.UpdateStatus(ctx, order.TableID, model.TableAvailable); err != nil {
			log.Printf("orders: free table %d failed: %v", order.TableID, err)
		}
		h.publish(c, queue.NewEvent(queue.TopicResetTableAvailable, queue.TablePayload{TableID: order.TableID}))
	}
	h.publish(c, queue.NewEvent(queue.TopicTableUpdate, queue.TablePayload{TableID: body.TableID}))
	return c.JSON(http.StatusOK, echo.Map{"moved": true})
}

// GetOrder handles GET /v1/orders/:id.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	order, err := h.OrderRepo.GetByID(c.Request().Context(), orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if order.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your order"})
	}
	return c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /v1/orders – the caller's booking history.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.OrderRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleAdmin
}

func (h *OrderHandler) publish(c echo.Context, ev queue.Event) {
	if err := h.Pub.Publish(c.Request().Context(), ev); err != nil {
		log.Printf("orders: publish %s failed: %v", ev.Topic, err)
	}
}
