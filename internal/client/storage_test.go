package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBadgerStorageRoundTrip(t *testing.T) {
	st, err := OpenStorage(t.TempDir())
	require.NoError(t, err)
	defer st.Close()

	_, exists, err := st.Get("orders")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, st.Set("orders", []byte(`{"order_id":0}`)))
	val, exists, err := st.Get("orders")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, `{"order_id":0}`, string(val))

	require.NoError(t, st.Delete("orders"))
	_, exists, err = st.Get("orders")
	require.NoError(t, err)
	require.False(t, exists)

	// Deleting a missing key is not an error.
	require.NoError(t, st.Delete("orders"))
}

func TestBadgerStoragePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	st, err := OpenStorage(dir)
	require.NoError(t, err)
	require.NoError(t, st.Set("bookingInfo", []byte(`{"guest_count":4}`)))
	require.NoError(t, st.Close())

	st, err = OpenStorage(dir)
	require.NoError(t, err)
	defer st.Close()
	val, exists, err := st.Get("bookingInfo")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, `{"guest_count":4}`, string(val))
}
