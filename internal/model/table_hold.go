package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TableHold is a temporary claim on a table while a customer finishes
// the booking flow.  Holds prevent two customers from booking the same
// table at the same moment.  They are stored in Redis under the key
// returned by HoldKey with a server-side TTL and evicted automatically
// when the TTL runs out; expiry is announced to clients over the push
// channel.
//
// Fields:
//
//	UserID          – customer holding the table.
//	TableID         – table being held.
//	ReservationTime – requested arrival time.
//	GuestCount      – size of the party.
//	CreatedAt       – when the hold was taken.
type TableHold struct {
	UserID          uint64    `json:"user_id"`
	TableID         uint64    `json:"table_id"`
	ReservationTime time.Time `json:"reservation_time"`
	GuestCount      uint32    `json:"guest_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// HoldKey builds the Redis key for a hold.  The format is stable
// because clients keep the key to query TTL and release the hold, and
// the expiry watcher parses it back out of keyspace notifications.
func HoldKey(userID, tableID uint64) string {
	return fmt.Sprintf("hold:%d:%d", userID, tableID)
}

// ParseHoldKey extracts the user and table IDs from a hold key.  It
// returns ok=false for keys that are not holds.
func ParseHoldKey(key string) (userID, tableID uint64, ok bool) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != "hold" {
		return 0, 0, false
	}
	uid, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	tid, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return uid, tid, true
}
