package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "openchat/pkg/errors"
)

// retryAfter is implemented by errors that carry a wait time.
type retryAfter interface {
	RetryAfter() time.Duration
}

// RespondError writes {"error": ...} with the status mapped from err.
// Rate-limit errors also carry retry_after_ms and a Retry-After header.
func RespondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatusFromError(err)
	body := gin.H{"error": err.Error()}

	var ra retryAfter
	if errors.As(err, &ra) {
		wait := ra.RetryAfter()
		body["retry_after_ms"] = wait.Milliseconds()
		secs := int((wait + time.Second - 1) / time.Second)
		c.Header("Retry-After", strconv.Itoa(secs))
	}
	if status >= 500 {
		body["error"] = "internal server error"
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}
