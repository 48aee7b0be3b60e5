package bulletin

import (
	"context"
	"testing"

	"github.com/safar/store-admin/internal/store/memory"
	"github.com/safar/store-admin/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostAndList(t *testing.T) {
	ctx := context.Background()
	s := NewService(memory.NewUpdates())

	_, err := s.Post(ctx, UpdateInput{Title: "Maintenance", Body: "Checkout offline at 2am"})
	require.NoError(t, err)
	u, err := s.Post(ctx, UpdateInput{Title: " New courier ", Body: "Deliveries now same-day"})
	require.NoError(t, err)
	assert.Equal(t, "New courier", u.Title)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, u.ID, list[0].ID)
}

func TestPostRequiresTitleAndBody(t *testing.T) {
	s := NewService(memory.NewUpdates())

	_, err := s.Post(context.Background(), UpdateInput{Title: "   "})
	require.ErrorIs(t, err, validation.ErrInvalid)

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title is required", verr.Fields["title"])
	assert.Equal(t, "body is required", verr.Fields["body"])
}
