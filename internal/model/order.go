package model

import "time"

// Order statuses.  PENDING orders are submitted but the party has not
// arrived yet; CHECKED_IN orders have a seated party and may still
// receive additional items ("order more"); COMPLETED and CANCELLED are
// terminal.
const (
	OrderPending   = "PENDING"
	OrderCheckedIn = "CHECKED_IN"
	OrderCompleted = "COMPLETED"
	OrderCancelled = "CANCELLED"
)

// ItemKind distinguishes what an order line refers to.  The same
// numeric identifier space is used by menu items and combos, so every
// line carries its kind alongside the id.
type ItemKind string

const (
	KindMenuItem ItemKind = "MENU_ITEM"
	KindCombo    ItemKind = "COMBO"
)

// Order is a submitted booking/order.  The price and name columns on
// its items are denormalized snapshots taken at submission time so the
// receipt stays stable when the catalog changes later.
//
// Fields:
//
//	ID              – primary key identifier.
//	UserID          – customer who placed the order.
//	TableID         – table assigned to the order (0 for takeaway).
//	Status          – current status (see constants above).
//	ReservationTime – when the party is expected to arrive.
//	GuestCount      – size of the party.
//	Note            – free-form customer note.
//	VoucherCode     – applied voucher code, empty when none.
//	Total           – server-computed total in whole currency units.
//	Items           – order lines (loaded on demand).
//	CreatedAt       – when the order was submitted.
//	UpdatedAt       – when the order was last changed.
type Order struct {
	ID              uint64      `json:"id"`               // orders.id
	UserID          uint64      `json:"user_id"`          // orders.user_id
	TableID         uint64      `json:"table_id"`         // orders.table_id
	Status          string      `json:"status"`           // orders.status
	ReservationTime time.Time   `json:"reservation_time"` // orders.reservation_time
	GuestCount      uint32      `json:"guest_count"`      // orders.guest_count
	Note            string      `json:"note"`             // orders.note
	VoucherCode     string      `json:"voucher_code"`     // orders.voucher_code
	Total           int64       `json:"total"`            // orders.total
	Items           []OrderItem `json:"items,omitempty"`  // order_items rows
	CreatedAt       time.Time   `json:"created_at"`       // orders.created_at
	UpdatedAt       time.Time   `json:"updated_at"`       // orders.updated_at
}

// OrderItem is one line inside a submitted order.  Name and Price are
// snapshots of the catalog at submission time.
type OrderItem struct {
	ID       uint64   `json:"id"`       // order_items.id
	OrderID  uint64   `json:"order_id"` // order_items.order_id
	Kind     ItemKind `json:"kind"`     // order_items.kind
	ItemID   uint64   `json:"item_id"`  // order_items.item_id
	Name     string   `json:"name"`     // order_items.name
	Price    int64    `json:"price"`    // order_items.price
	Quantity uint32   `json:"quantity"` // order_items.quantity
}
