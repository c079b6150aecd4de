package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trungdq/restaurant-booking/internal/model"
	"github.com/trungdq/restaurant-booking/internal/repository"
)

// VoucherHandler exposes voucher lookups for customers and voucher
// management for admins.
type VoucherHandler struct {
	VoucherRepo *repository.VoucherRepo
}

// NewVoucherHandler constructs a VoucherHandler.
func NewVoucherHandler(repo *repository.VoucherRepo) *VoucherHandler {
	if repo == nil {
		panic("nil repository passed to NewVoucherHandler")
	}
	return &VoucherHandler{VoucherRepo: repo}
}

// ListVouchers handles GET /v1/vouchers – active, unexpired vouchers a
// customer may pick from the cart screen.
func (h *VoucherHandler) ListVouchers(c echo.Context) error {
	vouchers, err := h.VoucherRepo.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if vouchers == nil {
		vouchers = []model.Voucher{}
	}
	return c.JSON(http.StatusOK, echo.Map{"vouchers": vouchers})
}

// CheckVoucher handles GET /v1/vouchers/:code – validates one code so
// the client can show the discount before submitting.
func (h *VoucherHandler) CheckVoucher(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "voucher code is required"})
	}
	v, err := h.VoucherRepo.GetRedeemable(c.Request().Context(), code)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "voucher is not valid"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, v)
}

// CreateVoucher handles POST /v1/admin/vouchers.
func (h *VoucherHandler) CreateVoucher(c echo.Context) error {
	var body struct {
		Code      string    `json:"code"`
		Percent   uint32    `json:"percent"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Code = strings.ToUpper(strings.TrimSpace(body.Code))
	if body.Code == "" || body.Percent == 0 || body.Percent > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and percent (1-100) are required"})
	}
	if body.ExpiresAt.Before(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expires_at must be in the future"})
	}
	v := model.Voucher{
		Code:      body.Code,
		Percent:   body.Percent,
		Active:    true,
		ExpiresAt: body.ExpiresAt,
	}
	if err := h.VoucherRepo.Create(c.Request().Context(), &v); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, v)
}

// DeactivateVoucher handles DELETE /v1/admin/vouchers/:id.
func (h *VoucherHandler) DeactivateVoucher(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid voucher id"})
	}
	err := h.VoucherRepo.SetActive(c.Request().Context(), id, false)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "voucher not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deactivated": true})
}
