package repository

import (
	"context"
	"database/sql"

	"github.com/trungdq/restaurant-booking/internal/model"
)

// OrderRepo manages persistence for orders and their item snapshots.
// Writes that touch both tables run inside a transaction.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo constructs an OrderRepo with the given DB handle.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts the order and its item snapshots atomically and
// assigns the generated ID back to the struct.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, table_id, status, reservation_time, guest_count, note, voucher_code, total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.UserID, o.TableID, o.Status, o.ReservationTime.UTC().Format("2006-01-02 15:04:05"),
		o.GuestCount, o.Note, o.VoucherCode, o.Total)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)

	if err := insertItemsTx(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func insertItemsTx(ctx context.Context, tx *sql.Tx, orderID uint64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, kind, item_id, name, price, quantity) VALUES `
	args := make([]interface{}, 0, len(items)*6)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, orderID, it.Kind, it.ItemID, it.Name, it.Price, it.Quantity)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// AddItems appends item snapshots to an open order ("order more") and
// bumps the stored total by their sum.  ErrConflict is returned when
// the order is not in a state that accepts more items.
func (r *OrderRepo) AddItems(ctx context.Context, orderID uint64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ? FOR UPDATE`, orderID).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if status != model.OrderPending && status != model.OrderCheckedIn {
		return ErrConflict
	}
	if err := insertItemsTx(ctx, tx, orderID, items); err != nil {
		return err
	}
	var extra int64
	for _, it := range items {
		extra += it.Price * int64(it.Quantity)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET total = total + ? WHERE id = ?`, extra, orderID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateStatus moves an order to a new status when owned by userID.
// Pass userID 0 to skip the ownership check (admin operations).
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID, userID uint64, status string) error {
	q := `UPDATE orders SET status = ? WHERE id = ?`
	args := []interface{}{status, orderID}
	if userID != 0 {
		q += ` AND user_id = ?`
		args = append(args, userID)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MoveTable reassigns an open order to another table.
func (r *OrderRepo) MoveTable(ctx context.Context, orderID, tableID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET table_id = ? WHERE id = ? AND status IN (?, ?)`,
		tableID, orderID, model.OrderPending, model.OrderCheckedIn)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetByID returns the order with its items, or ErrNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, orderID uint64) (*model.Order, error) {
	const q = `SELECT id, user_id, table_id, status, reservation_time, guest_count, note, voucher_code, total, created_at, updated_at
	           FROM orders WHERE id = ?`
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(
		&o.ID, &o.UserID, &o.TableID, &o.Status, &o.ReservationTime,
		&o.GuestCount, &o.Note, &o.VoucherCode, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := r.itemsByOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *OrderRepo) itemsByOrder(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	const q = `SELECT id, order_id, kind, item_id, name, price, quantity
	           FROM order_items WHERE order_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Kind, &it.ItemID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListByUser returns a user's orders newest first, without items.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	const q = `SELECT id, user_id, table_id, status, reservation_time, guest_count, note, voucher_code, total, created_at, updated_at
	           FROM orders WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TableID, &o.Status, &o.ReservationTime,
			&o.GuestCount, &o.Note, &o.VoucherCode, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// HasOpenOrder reports whether the user has a PENDING or CHECKED_IN
// order.  Hold requests are rejected with a pending_order code while
// this is true.
func (r *OrderRepo) HasOpenOrder(ctx context.Context, userID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM orders WHERE user_id = ? AND status IN (?, ?))`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, userID, model.OrderPending, model.OrderCheckedIn).Scan(&exists)
	return exists, err
}
