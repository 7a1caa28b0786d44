package reaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "openchat/pkg/errors"
)

func TestRepositoryMalformedIDs(t *testing.T) {
	repo := NewRepository(nil)
	ctx := context.Background()

	list, err := repo.ListByMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = repo.Get(ctx, "m1", ayla.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = repo.Delete(ctx, "0b5e3f4a-3333-4c1d-9000-00000000000c", "u1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
