package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/trungdq/restaurant-booking/internal/model"
)

// VoucherRepo manages persistence for discount vouchers.
type VoucherRepo struct {
	db *sql.DB
}

// NewVoucherRepo constructs a VoucherRepo with the given DB handle.
func NewVoucherRepo(db *sql.DB) *VoucherRepo { return &VoucherRepo{db: db} }

// ListActive returns redeemable vouchers (active and not expired).
func (r *VoucherRepo) ListActive(ctx context.Context) ([]model.Voucher, error) {
	const q = `SELECT id, code, percent, active, expires_at, created_at
	           FROM vouchers WHERE active = 1 AND expires_at > UTC_TIMESTAMP() ORDER BY expires_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var vouchers []model.Voucher
	for rows.Next() {
		var v model.Voucher
		if err := rows.Scan(&v.ID, &v.Code, &v.Percent, &v.Active, &v.ExpiresAt, &v.CreatedAt); err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

// GetRedeemable returns the voucher for a code when it is active and
// not expired, otherwise ErrNotFound.  Codes are matched
// case-insensitively.
func (r *VoucherRepo) GetRedeemable(ctx context.Context, code string) (*model.Voucher, error) {
	const q = `SELECT id, code, percent, active, expires_at, created_at
	           FROM vouchers WHERE code = ? AND active = 1 AND expires_at > UTC_TIMESTAMP()`
	var v model.Voucher
	err := r.db.QueryRowContext(ctx, q, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&v.ID, &v.Code, &v.Percent, &v.Active, &v.ExpiresAt, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a new voucher and assigns the generated ID back to
// the struct.  The code is stored upper-cased.
func (r *VoucherRepo) Create(ctx context.Context, v *model.Voucher) error {
	v.Code = strings.ToUpper(strings.TrimSpace(v.Code))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO vouchers (code, percent, active, expires_at) VALUES (?, ?, 1, ?)`,
		v.Code, v.Percent, v.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// SetActive toggles redeemability.
func (r *VoucherRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE vouchers SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
