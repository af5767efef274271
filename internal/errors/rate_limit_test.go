package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitError("finding API rate limited")
	assert.Equal(t, "finding API rate limited", err.Error())

	wrapped := fmt.Errorf("query failed: %w", err)
	var rateErr *RateLimitError
	assert.True(t, stderrors.As(wrapped, &rateErr))
}
