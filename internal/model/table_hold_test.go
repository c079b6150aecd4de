package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHoldKeyRoundTrip(t *testing.T) {
	key := HoldKey(42, 7)
	assert.Equal(t, "hold:42:7", key)

	uid, tid, ok := ParseHoldKey(key)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, uint64(7), tid)
}

func TestParseHoldKeyRejectsForeignKeys(t *testing.T) {
	for _, key := range []string{
		"",
		"hold:42",
		"hold:42:7:extra",
		"held:table:7",
		"hold:abc:7",
		"hold:42:xyz",
		"cache:af39b2",
	} {
		_, _, ok := ParseHoldKey(key)
		assert.False(t, ok, "key %q should not parse", key)
	}
}
