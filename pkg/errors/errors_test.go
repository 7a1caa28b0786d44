package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("delete message: %w", ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("create: %w", ErrEmptyMessage), http.StatusBadRequest},
		{ErrNicknameTaken, http.StatusConflict},
		{fmt.Errorf("cooldown: %w", ErrTooManyRequests), http.StatusTooManyRequests},
		{ErrInvalidToken, http.StatusUnauthorized},
		{NewAPIError("teapot", http.StatusTeapot), http.StatusTeapot},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatusFromError(tc.err), tc.err.Error())
	}
}
