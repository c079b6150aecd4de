package repository

import (
	"context"
	"database/sql"

	"github.com/trungdq/restaurant-booking/internal/model"
)

// MenuRepo manages persistence for menu items.
type MenuRepo struct {
	db *sql.DB
}

// NewMenuRepo constructs a MenuRepo with the given DB handle.
func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *MenuRepo) DB() *sql.DB { return r.db }

// ListActive returns every active menu item.  This is the collection
// clients reconcile their carts against, so it must reflect committed
// state only.
func (r *MenuRepo) ListActive(ctx context.Context) ([]model.MenuItem, error) {
	const q = `SELECT id, name, price, active, created_at, updated_at
	           FROM menu_items WHERE active = 1 ORDER BY id`
	return r.scanList(ctx, q)
}

// ListAll returns every menu item including deactivated ones, for the
// admin back office.
func (r *MenuRepo) ListAll(ctx context.Context) ([]model.MenuItem, error) {
	const q = `SELECT id, name, price, active, created_at, updated_at
	           FROM menu_items ORDER BY id`
	return r.scanList(ctx, q)
}

func (r *MenuRepo) scanList(ctx context.Context, q string) ([]model.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// GetByID returns one menu item or ErrNotFound.
func (r *MenuRepo) GetByID(ctx context.Context, id uint64) (*model.MenuItem, error) {
	const q = `SELECT id, name, price, active, created_at, updated_at
	           FROM menu_items WHERE id = ?`
	var m model.MenuItem
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Name, &m.Price, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new active menu item and assigns the generated ID
// back to the struct.
func (r *MenuRepo) Create(ctx context.Context, m *model.MenuItem) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO menu_items (name, price, active) VALUES (?, ?, 1)`,
		m.Name, m.Price)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Update overwrites name and price.  Returns ErrNotFound when the item
// does not exist.
func (r *MenuRepo) Update(ctx context.Context, id uint64, name string, price int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE menu_items SET name = ?, price = ? WHERE id = ?`,
		name, price, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetActive toggles the active flag.  Deactivation is how items are
// "deleted" from the customer-facing catalog; existing order snapshots
// keep their reference.
func (r *MenuRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE menu_items SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow converts a zero-rows-affected result into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
