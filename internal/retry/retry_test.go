package retry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mapperinfluences/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", filepath.Join("testdata", "retry_test.log"))
	m.Run()
}

func TestFibBackoffSequence(t *testing.T) {
	backoff := newFibBackoff()

	expected := []uint32{1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 60, 60, 60}
	for i, want := range expected {
		got := backoff.next(60)
		assert.Equal(t, want, got, "cooldown %d", i)
	}
}

func TestFibBackoffCapBelowStart(t *testing.T) {
	backoff := newFibBackoff()

	// a cap smaller than any Fibonacci step pins the sequence immediately
	assert.Equal(t, uint32(1), backoff.next(1))
	assert.Equal(t, uint32(1), backoff.next(1))
	assert.Equal(t, uint32(1), backoff.next(1))
}

func TestUntilSuccessReturnsFirstValue(t *testing.T) {
	calls := 0
	value, err := UntilSuccess(context.Background(), 60, "should not log", func() (int, error) {
		calls++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, 1, calls)
}

func TestUntilSuccessStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := UntilSuccess(ctx, 60, "expected failure", func() (int, error) {
		calls++
		return 0, errors.New("transient")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
