// Package repository defines data access for the restaurant domain:
// catalog (menu items, combos), tables, vouchers, orders and users in
// MySQL, plus short-lived table holds in Redis.  This file collects the
// sentinel errors shared across repositories so handlers can translate
// failure scenarios into specific HTTP responses with errors.Is.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as holding a table that is already held.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrPendingOrder is returned when a customer tries to take a hold
// while they already have an open order.  Handlers surface it with the
// error code the client redirects on.
var ErrPendingOrder = errors.New("pending order exists")

// ErrEmailExists is returned when registering with an email that is
// already taken.
var ErrEmailExists = errors.New("email already exists")
