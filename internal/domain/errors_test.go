package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRejectMatchesSentinel(t *testing.T) {
	err := Reject(ErrInsufficientStock, "only 3 units left")

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindInsufficientStock, KindOf(err))
	assert.Equal(t, "only 3 units left", PublicReason(err))
}

func TestWrapKeepsCauseOutOfPublicReason(t *testing.T) {
	cause := errors.New(`pq: relation "ledger_entries" does not exist`)
	err := Wrap(ErrStorageUnavailable, "storage unavailable", cause)

	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ledger_entries")
	assert.Equal(t, "storage unavailable", PublicReason(err))
	assert.Equal(t, KindStorageUnavailable, KindOf(err))
}

func TestKindOfWrappedSentinel(t *testing.T) {
	err := fmt.Errorf("update balance: %w", ErrConflict)

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Retryable(err))
	assert.Equal(t, ErrConflict.Error(), PublicReason(err))
}

func TestUnknownErrorIsInternal(t *testing.T) {
	err := errors.New("dial tcp 10.0.0.1:5432: connection refused")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.False(t, Retryable(err))
	assert.Equal(t, "internal error", PublicReason(err))
	assert.Equal(t, Kind(""), KindOf(nil))
}
