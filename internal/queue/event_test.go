package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventMarshalsPayload(t *testing.T) {
	ev := NewEvent(TopicTableHoldExpired, HoldExpiredPayload{TableID: 3, UserID: 5})
	assert.Equal(t, TopicTableHoldExpired, ev.Topic)
	assert.JSONEq(t, `{"table_id":3,"user_id":5}`, string(ev.Payload))
}

func TestNewEventNilPayload(t *testing.T) {
	ev := NewEvent(TopicUpdateMenu, nil)
	assert.Equal(t, TopicUpdateMenu, ev.Topic)
	assert.Empty(t, ev.Payload)
}

func TestEventWireFormat(t *testing.T) {
	ev := NewEvent(TopicResetTableAvailable, TablePayload{TableID: 9})
	wire, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"topic":"reset_table_available","payload":{"table_id":9}}`, string(wire))

	var back Event
	require.NoError(t, json.Unmarshal(wire, &back))
	assert.Equal(t, ev.Topic, back.Topic)

	var p TablePayload
	require.NoError(t, json.Unmarshal(back.Payload, &p))
	assert.Equal(t, uint64(9), p.TableID)
}
