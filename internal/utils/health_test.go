package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheckerDegradedWhenStorageDown(t *testing.T) {
	h := &HealthChecker{Storage: pingFunc(func(context.Context) error { return errors.New("bucket missing") })}

	status := h.Check(context.Background())

	assert.Equal(t, "degraded", status.Status)
	require.Len(t, status.Services, 1)
	assert.Equal(t, Service{Name: "MinIO", Status: "down", Message: "bucket missing"}, status.Services[0])
}

func TestHealthCheckerHealthy(t *testing.T) {
	h := &HealthChecker{Storage: pingFunc(func(context.Context) error { return nil })}

	status := h.Check(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "up", status.Services[0].Status)
}
