package model

import "time"

// Combo is a fixed bundle of dishes sold at a single price.  Combos are
// priced and activated independently from the menu items they contain;
// the customer-facing catalog treats them as one purchasable unit.
//
// Fields:
//
//	ID          – primary key identifier.
//	Name        – display name shown to customers.
//	Description – optional marketing text.
//	Price       – bundle price in whole currency units.
//	Active      – whether the combo can currently be ordered.
//	CreatedAt   – when the combo was created.
//	UpdatedAt   – when the combo was last changed.
type Combo struct {
	ID          uint64    `json:"id"`          // combos.id
	Name        string    `json:"name"`        // combos.name
	Description string    `json:"description"` // combos.description
	Price       int64     `json:"price"`       // combos.price
	Active      bool      `json:"active"`      // combos.active
	CreatedAt   time.Time `json:"created_at"`  // combos.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // combos.updated_at
}
