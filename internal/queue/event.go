// Package queue defines the push topics and message payloads exchanged
// over the message broker.  Every message is an Event envelope carrying
// a topic name and a JSON payload; the WebSocket hub forwards events to
// connected clients as-is.  Payloads are advisory – clients treat an
// event as a "something changed, re-pull" signal and re-fetch
// authoritative data instead of trusting the payload, except for the
// minimal identity fields on table_hold_expired used for routing.
package queue

import "encoding/json"

// Topic names published by the server and consumed by clients.
const (
	TopicUpdateMenu          = "update_menu"           // menu item created/changed/deactivated
	TopicComboUpdate         = "combo_update"          // combo created/changed/deactivated
	TopicTableHoldExpired    = "table_hold_expired"    // a hold's TTL ran out server-side
	TopicHoldTable           = "hold_table"            // a table was just held
	TopicResetTableAvailable = "reset_table_available" // a table became available again
	TopicDeleteHoldTable     = "delete_hold_table"     // a hold was explicitly released
	TopicTableUpdate         = "table_update"          // table status changed (admin floor map)
)

// Event is the envelope sent over the broker and the WebSocket bridge.
type Event struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent marshals the payload and wraps it in an Event.  A payload
// that fails to marshal yields an event with an empty payload; topics
// are advisory so the event is still worth delivering.
func NewEvent(topic string, payload any) Event {
	if payload == nil {
		return Event{Topic: topic}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{Topic: topic}
	}
	return Event{Topic: topic, Payload: raw}
}

// HoldExpiredPayload identifies which hold was evicted.  These are the
// only payload fields clients may rely on: the coordinator matches
// table_id and user_id against its own hold before reacting.
type HoldExpiredPayload struct {
	TableID uint64 `json:"table_id"`
	UserID  uint64 `json:"user_id"`
}

// TablePayload names a table on the availability topics.
type TablePayload struct {
	TableID uint64 `json:"table_id"`
}
