package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCursorEmpty(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)

	// The empty cursor must sort after every existing order.
	assert.True(t, cursor.OrderDate.After(time.Now()))
	assert.Equal(t, int64(1<<63-1), cursor.ID)
}

func TestCursorRoundTrip(t *testing.T) {
	original := OrderCursor{
		OrderDate: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		ID:        42,
	}

	decoded, err := DecodeCursor(EncodeCursor(original))
	require.NoError(t, err)
	assert.True(t, original.OrderDate.Equal(decoded.OrderDate))
	assert.Equal(t, original.ID, decoded.ID)
}

func TestDecodeCursorGarbage(t *testing.T) {
	_, err := DecodeCursor("not-base64!!")
	assert.Error(t, err)
}
