package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trungdq/restaurant-booking/internal/model"
	"github.com/trungdq/restaurant-booking/internal/queue"
	"github.com/trungdq/restaurant-booking/internal/repository"
)

// Publisher publishes push events after successful mutations.  Publish
// failures never fail the request – the mutation is already committed
// and clients reconcile on the next event.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// CatalogHandler serves the menu-item and combo catalog.  The public
// listings return active entries only: they are the collections
// clients reconcile their carts against.  Admin mutations publish an
// advisory push event so composing customers re-pull.
type CatalogHandler struct {
	MenuRepo  *repository.MenuRepo
	ComboRepo *repository.ComboRepo
	Pub       Publisher
}

// NewCatalogHandler constructs a CatalogHandler.  All dependencies
// must be non-nil.
func NewCatalogHandler(menuRepo *repository.MenuRepo, comboRepo *repository.ComboRepo, pub Publisher) *CatalogHandler {
	if menuRepo == nil || comboRepo == nil || pub == nil {
		panic("nil dependency passed to NewCatalogHandler")
	}
	return &CatalogHandler{MenuRepo: menuRepo, ComboRepo: comboRepo, Pub: pub}
}

// ListMenuItems handles GET /v1/menu-items.
func (h *CatalogHandler) ListMenuItems(c echo.Context) error {
	items, err := h.MenuRepo.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if items == nil {
		items = []model.MenuItem{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListCombos handles GET /v1/combos.
func (h *CatalogHandler) ListCombos(c echo.Context) error {
	combos, err := h.ComboRepo.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if combos == nil {
		combos = []model.Combo{}
	}
	return c.JSON(http.StatusOK, echo.Map{"combos": combos})
}

// AdminListMenuItems handles GET /v1/admin/menu-items (includes
// deactivated entries).
func (h *CatalogHandler) AdminListMenuItems(c echo.Context) error {
	items, err := h.MenuRepo.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type menuItemBody struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// CreateMenuItem handles POST /v1/admin/menu-items.
func (h *CatalogHandler) CreateMenuItem(c echo.Context) error {
	var body menuItemBody
	if err := c.Bind(&body); err != nil || body.Name == "" || body.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive price are required"})
	}
	item := model.MenuItem{Name: body.Name, Price: body.Price, Active: true}
	if err := h.MenuRepo.Create(c.Request().Context(), &item); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.publishMenu(c)
	return c.JSON(http.StatusCreated, item)
}

// UpdateMenuItem handles PUT /v1/admin/menu-items/:id.
func (h *CatalogHandler) UpdateMenuItem(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var body menuItemBody
	if err := c.Bind(&body); err != nil || body.Name == "" || body.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive price are required"})
	}
	err := h.MenuRepo.Update(c.Request().Context(), id, body.Name, body.Price)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.publishMenu(c)
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteMenuItem handles DELETE /v1/admin/menu-items/:id.  Items are
// deactivated, not removed, so existing order snapshots stay valid.
func (h *CatalogHandler) DeleteMenuItem(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	err := h.MenuRepo.SetActive(c.Request().Context(), id, false)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.publishMenu(c)
	return c.NoContent(http.StatusNoContent)
}

// AdminListCombos handles GET /v1/admin/combos.
func (h *CatalogHandler) AdminListCombos(c echo.Context) error {
	combos, err := h.ComboRepo.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"combos": combos})
}

type comboBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

// CreateCombo handles POST /v1/admin/combos.
func (h *CatalogHandler) CreateCombo(c echo.Context) error {
	var body comboBody
	if err := c.Bind(&body); err != nil || body.Name == "" || body.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive price are required"})
	}
	combo := model.Combo{Name: body.Name, Description: body.Description, Price: body.Price, Active: true}
	if err := h.ComboRepo.Create(c.Request().Context(), &combo); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.publishCombo(c)
	return c.JSON(http.StatusCreated, combo)
}

// UpdateCombo handles PUT /v1/admin/combos/:id.
func (h *CatalogHandler) UpdateCombo(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid combo id"})
	}
	var body comboBody
	if err := c.Bind(&body); err != nil || body.Name == "" || body.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive price are required"})
	}
	err := h.ComboRepo.Update(c.Request().Context(), id, body.Name, body.Description, body.Price)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "combo not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.publishCombo(c)
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteCombo handles DELETE /v1/admin/combos/:id.
func (h *CatalogHandler) DeleteCombo(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid combo id"})
	}
	err := h.ComboRepo.SetActive(c.Request().Context(), id, false)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "combo not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.publishCombo(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) publishMenu(c echo.Context) {
	if err := h.Pub.Publish(c.Request().Context(), queue.NewEvent(queue.TopicUpdateMenu, nil)); err != nil {
		log.Printf("catalog: publish %s failed: %v", queue.TopicUpdateMenu, err)
	}
}

func (h *CatalogHandler) publishCombo(c echo.Context) {
	if err := h.Pub.Publish(c.Request().Context(), queue.NewEvent(queue.TopicComboUpdate, nil)); err != nil {
		log.Printf("catalog: publish %s failed: %v", queue.TopicComboUpdate, err)
	}
}
