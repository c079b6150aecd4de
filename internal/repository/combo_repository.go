package repository

import (
	"context"
	"database/sql"

	"github.com/trungdq/restaurant-booking/internal/model"
)

// ComboRepo manages persistence for combos.
type ComboRepo struct {
	db *sql.DB
}

// NewComboRepo constructs a ComboRepo with the given DB handle.
func NewComboRepo(db *sql.DB) *ComboRepo { return &ComboRepo{db: db} }

// ListActive returns every active combo, the collection clients
// reconcile their carts against.
func (r *ComboRepo) ListActive(ctx context.Context) ([]model.Combo, error) {
	const q = `SELECT id, name, description, price, active, created_at, updated_at
	           FROM combos WHERE active = 1 ORDER BY id`
	return r.scanList(ctx, q)
}

// ListAll returns every combo including deactivated ones.
func (r *ComboRepo) ListAll(ctx context.Context) ([]model.Combo, error) {
	const q = `SELECT id, name, description, price, active, created_at, updated_at
	           FROM combos ORDER BY id`
	return r.scanList(ctx, q)
}

func (r *ComboRepo) scanList(ctx context.Context, q string) ([]model.Combo, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var combos []model.Combo
	for rows.Next() {
		var c model.Combo
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Price, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		combos = append(combos, c)
	}
	return combos, rows.Err()
}

// GetByID returns one combo or ErrNotFound.
func (r *ComboRepo) GetByID(ctx context.Context, id uint64) (*model.Combo, error) {
	const q = `SELECT id, name, description, price, active, created_at, updated_at
	           FROM combos WHERE id = ?`
	var c model.Combo
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Description, &c.Price, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new active combo and assigns the generated ID back
// to the struct.
func (r *ComboRepo) Create(ctx context.Context, c *model.Combo) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO combos (name, description, price, active) VALUES (?, ?, ?, 1)`,
		c.Name, c.Description, c.Price)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Update overwrites name, description and price.
func (r *ComboRepo) Update(ctx context.Context, id uint64, name, description string, price int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE combos SET name = ?, description = ?, price = ? WHERE id = ?`,
		name, description, price, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetActive toggles the active flag.
func (r *ComboRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE combos SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
