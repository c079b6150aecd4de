package model

import "time"

// Voucher is a percentage discount code.  Discounts are applied
// server-side at order submission; the client only carries the code.
//
// Fields:
//
//	ID        – primary key identifier.
//	Code      – customer-entered code, unique.
//	Percent   – discount percentage (1–100).
//	Active    – whether the voucher can currently be redeemed.
//	ExpiresAt – redemption deadline.
//	CreatedAt – when the voucher was created.
type Voucher struct {
	ID        uint64    `json:"id"`         // vouchers.id
	Code      string    `json:"code"`       // vouchers.code
	Percent   uint32    `json:"percent"`    // vouchers.percent
	Active    bool      `json:"active"`     // vouchers.active
	ExpiresAt time.Time `json:"expires_at"` // vouchers.expires_at
	CreatedAt time.Time `json:"created_at"` // vouchers.created_at
}
