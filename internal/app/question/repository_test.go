package question

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "openchat/pkg/errors"
)

func TestGetByIDMalformedIDIsNotFound(t *testing.T) {
	_, err := NewRepository(nil).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
