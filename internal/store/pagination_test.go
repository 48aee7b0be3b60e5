package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	encoded := EncodeCursor(OrderCursor{CreatedAt: at, ID: "ord-7"})

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.True(t, at.Equal(decoded.CreatedAt))
	assert.Equal(t, "ord-7", decoded.ID)
}

func TestEmptyCursorStartsAfterEverything(t *testing.T) {
	decoded, err := DecodeCursor("")
	require.NoError(t, err)
	assert.True(t, decoded.CreatedAt.After(time.Now().AddDate(100, 0, 0)))
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("%%%")
	assert.Error(t, err)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 0, TotalPages(5, 0))
}
