package model

import "time"

// MenuItem is a single dish on the restaurant menu.  Prices are stored
// as whole currency units (the menu is priced in VND, which has no
// subunit).  Items are soft-deactivated rather than deleted so that
// historical orders keep a valid reference.
//
// Fields:
//
//	ID        – primary key identifier.
//	Name      – display name shown to customers.
//	Price     – current price in whole currency units.
//	Active    – whether the item can currently be ordered.
//	CreatedAt – when the item was created.
//	UpdatedAt – when the item was last changed.
type MenuItem struct {
	ID        uint64    `json:"id"`         // menu_items.id
	Name      string    `json:"name"`       // menu_items.name
	Price     int64     `json:"price"`      // menu_items.price
	Active    bool      `json:"active"`     // menu_items.active
	CreatedAt time.Time `json:"created_at"` // menu_items.created_at
	UpdatedAt time.Time `json:"updated_at"` // menu_items.updated_at
}
