package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trungdq/restaurant-booking/internal/model"
	"github.com/trungdq/restaurant-booking/internal/queue"
	"github.com/trungdq/restaurant-booking/internal/repository"
)

// TableHandler serves the floor map and the hold lifecycle.  Hold
// state lives in Redis with a TTL; this handler never computes expiry
// itself – it creates holds, reports the server-side remaining TTL,
// and releases holds, while the expiry watcher announces natural
// eviction over the push channel.
type TableHandler struct {
	TableRepo *repository.TableRepo
	HoldRepo  *repository.HoldRepo
	OrderRepo *repository.OrderRepo
	Pub       Publisher
	HoldTTL   time.Duration
}

// NewTableHandler constructs a TableHandler.  All dependencies must be
// non-nil; holdTTL is how long a hold lives without being consumed.
func NewTableHandler(tableRepo *repository.TableRepo, holdRepo *repository.HoldRepo, orderRepo *repository.OrderRepo, pub Publisher, holdTTL time.Duration) *TableHandler {
	if tableRepo == nil || holdRepo == nil || orderRepo == nil || pub == nil {
		panic("nil dependency passed to NewTableHandler")
	}
	if holdTTL <= 0 {
		holdTTL = 5 * time.Minute
	}
	return &TableHandler{TableRepo: tableRepo, HoldRepo: holdRepo, OrderRepo: orderRepo, Pub: pub, HoldTTL: holdTTL}
}

// tableView is a table plus its live hold overlay.
type tableView struct {
	model.Table
	Held bool `json:"held"`
}

// ListTables handles GET /v1/tables.  Each table carries a held flag
// derived from the active holds in Redis at the time of the request.
func (h *TableHandler) ListTables(c echo.Context) error {
	ctx := c.Request().Context()
	tables, err := h.TableRepo.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	held, err := h.HoldRepo.HeldTableIDs(ctx)
	if err != nil {
		// The overlay is best-effort; the listing stays usable.
		log.Printf("tables: hold overlay failed: %v", err)
		held = map[uint64]bool{}
	}
	views := make([]tableView, 0, len(tables))
	for _, t := range tables {
		views = append(views, tableView{Table: t, Held: held[t.ID]})
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": views})
}

type holdBody struct {
	ReservationTime time.Time `json:"reservation_time"`
	GuestCount      uint32    `json:"guest_count"`
}

// CreateHold handles POST /v1/tables/:id/hold.  It validates the
// booking parameters, rejects customers who already have an open order
// with the pending_order code (the client redirects to booking history
// on it), then claims the table in Redis with the configured TTL.
func (h *TableHandler) CreateHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tableID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body holdBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ReservationTime.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_time is required"})
	}
	if body.ReservationTime.Before(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_time cannot be in the past"})
	}
	if body.GuestCount == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_count is required"})
	}

	ctx := c.Request().Context()
	table, err := h.TableRepo.GetByID(ctx, tableID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if table.Status != model.TableAvailable {
		return c.JSON(http.StatusConflict, echo.Map{"error": "table is not available"})
	}
	if body.GuestCount > table.Seats {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "party does not fit this table"})
	}

	open, err := h.OrderRepo.HasOpenOrder(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if open {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "you already have a pending order",
			"code":  "pending_order",
		})
	}

	hold := model.TableHold{
		UserID:          userID,
		TableID:         tableID,
		ReservationTime: body.ReservationTime.UTC(),
		GuestCount:      body.GuestCount,
		CreatedAt:       time.Now().UTC(),
	}
	key, err := h.HoldRepo.Create(ctx, hold, h.HoldTTL)
	if errors.Is(err, repository.ErrConflict) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "table is already held"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold store error"})
	}

	h.publish(c, queue.NewEvent(queue.TopicHoldTable, queue.TablePayload{TableID: tableID}))
	return c.JSON(http.StatusCreated, echo.Map{
		"hold_key":    key,
		"ttl_seconds": int(h.HoldTTL / time.Second),
		"hold":        hold,
	})
}

// HoldTTLHandler handles GET /v1/holds/:key/ttl.  It reports the
// server-computed remaining seconds; a missing or expired hold reports
// held=false with 0 seconds rather than an error, since the client
// treats both the same way.
func (h *TableHandler) HoldTTLHandler(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	key := c.Param("key")
	holderID, _, ok := model.ParseHoldKey(key)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hold key"})
	}
	if holderID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your hold"})
	}
	ttl, err := h.HoldRepo.TTL(c.Request().Context(), key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold store error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ttl_seconds": ttl, "held": ttl > 0})
}

// DeleteHold handles DELETE /v1/holds/:key – an explicit release.
func (h *TableHandler) DeleteHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	key := c.Param("key")
	holderID, tableID, ok := model.ParseHoldKey(key)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hold key"})
	}
	if holderID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your hold"})
	}
	err = h.HoldRepo.Delete(c.Request().Context(), key)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold store error"})
	}
	h.publish(c, queue.NewEvent(queue.TopicDeleteHoldTable, queue.TablePayload{TableID: tableID}))
	h.publish(c, queue.NewEvent(queue.TopicResetTableAvailable, queue.TablePayload{TableID: tableID}))
	return c.NoContent(http.StatusNoContent)
}

// CreateTable handles POST /v1/admin/tables.
func (h *TableHandler) CreateTable(c echo.Context) error {
	var body struct {
		Name  string `json:"name"`
		Seats uint32 `json:"seats"`
	}
	if err := c.Bind(&body); err != nil || body.Name == "" || body.Seats == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and seats are required"})
	}
	t := model.Table{Name: body.Name, Seats: body.Seats, Status: model.TableAvailable}
	if err := h.TableRepo.Create(c.Request().Context(), &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.publish(c, queue.NewEvent(queue.TopicTableUpdate, queue.TablePayload{TableID: t.ID}))
	return c.JSON(http.StatusCreated, t)
}

// SetTableStatus handles PUT /v1/admin/tables/:id/status.  The back
// office uses it to force a table state, e.g. freeing a table after a
// no-show.
func (h *TableHandler) SetTableStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	switch body.Status {
	case model.TableAvailable, model.TableOccupied, model.TableReserved:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown table status"})
	}
	err := h.TableRepo.UpdateStatus(c.Request().Context(), id, body.Status)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if body.Status == model.TableAvailable {
		h.publish(c, queue.NewEvent(queue.TopicResetTableAvailable, queue.TablePayload{TableID: id}))
	}
	h.publish(c, queue.NewEvent(queue.TopicTableUpdate, queue.TablePayload{TableID: id}))
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

func (h *TableHandler) publish(c echo.Context, ev queue.Event) {
	if err := h.Pub.Publish(c.Request().Context(), ev); err != nil {
		log.Printf("tables: publish %s failed: %v", ev.Topic, err)
	}
}
