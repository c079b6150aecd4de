package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Customers book tables and place orders; admins manage the
// catalog, tables and vouchers from the back office.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address.
//	FullName     – display name used on bookings.
//	Phone        – contact phone number.
//	PasswordHash – bcrypt hashed password.
//	Role         – role name (CUSTOMER or ADMIN).
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	FullName     string    // users.full_name
	Phone        string    // users.phone
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Role names accepted by the role middleware.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)
