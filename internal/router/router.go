package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/trungdq/restaurant-booking/internal/handler"
	"github.com/trungdq/restaurant-booking/internal/middleware"
	"github.com/trungdq/restaurant-booking/internal/model"
	"github.com/trungdq/restaurant-booking/internal/realtime"
)

// Handlers bundles every handler the router wires up.  main builds the
// struct once and hands it over; keeping the list explicit here makes
// the full route surface reviewable in one file.
type Handlers struct {
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Table   *handler.TableHandler
	Order   *handler.OrderHandler
	Voucher *handler.VoucherHandler
	Hub     *realtime.Hub
}

// Register wires all routes onto the Echo instance.
//
// The surface splits into four tiers:
//   - open: health check, auth, the browse catalog and the push
//     channel; guests can window-shop before signing up
//   - customer: holds, orders and profile, behind JWT auth
//   - admin: catalog, table and voucher management
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	// Auth.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	// Public browse endpoints. Guests see the active catalog and the
	// floor map; the WebSocket push channel is open too so the menu
	// screen can live-update before login.
	e.GET("/v1/menu-items", h.Catalog.ListMenuItems)
	e.GET("/v1/combos", h.Catalog.ListCombos)
	e.GET("/v1/tables", h.Table.ListTables)
	e.GET("/v1/vouchers", h.Voucher.ListVouchers)
	e.GET("/v1/vouchers/:code", h.Voucher.CheckVoucher)
	e.GET("/v1/ws", realtime.Handler(h.Hub))

	// Customer endpoints.
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
	v1.GET("/me", h.Auth.Me)
	v1.POST("/tables/:id/hold", h.Table.CreateHold)
	v1.GET("/holds/:key/ttl", h.Table.HoldTTLHandler)
	v1.DELETE("/holds/:key", h.Table.DeleteHold)
	v1.POST("/orders", h.Order.CreateOrder)
	v1.POST("/orders/now", h.Order.CreateOrderNow)
	v1.GET("/orders", h.Order.ListOrders)
	v1.GET("/orders/:id", h.Order.GetOrder)
	v1.POST("/orders/:id/items", h.Order.OrderMore)
	v1.POST("/orders/:id/cancel", h.Order.CancelOrder)

	// Admin endpoints.
	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/menu-items", h.Catalog.AdminListMenuItems)
	admin.POST("/menu-items", h.Catalog.CreateMenuItem)
	admin.PUT("/menu-items/:id", h.Catalog.UpdateMenuItem)
	admin.DELETE("/menu-items/:id", h.Catalog.DeleteMenuItem)
	admin.GET("/combos", h.Catalog.AdminListCombos)
	admin.POST("/combos", h.Catalog.CreateCombo)
	admin.PUT("/combos/:id", h.Catalog.UpdateCombo)
	admin.DELETE("/combos/:id", h.Catalog.DeleteCombo)
	admin.POST("/tables", h.Table.CreateTable)
	admin.PUT("/tables/:id/status", h.Table.SetTableStatus)
	admin.POST("/orders/:id/checkin", h.Order.CheckIn)
	admin.POST("/orders/:id/move", h.Order.MoveTable)
	admin.POST("/vouchers", h.Voucher.CreateVoucher)
	admin.DELETE("/vouchers/:id", h.Voucher.DeactivateVoucher)
}
