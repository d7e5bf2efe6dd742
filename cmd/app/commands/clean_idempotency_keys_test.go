package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIdempotencyKeyCleaner is a mock implementation of IdempotencyKeyCleaner.
type MockIdempotencyKeyCleaner struct {
	mock.Mock
}

func (m *MockIdempotencyKeyCleaner) ClearExpiredIdempotencyKeys(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestCleanIdempotencyKeys(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("text-output", func(t *testing.T) {
		mockCleaner := &MockIdempotencyKeyCleaner{}
		mockCleaner.On("ClearExpiredIdempotencyKeys", ctx).Return(int64(7), nil)

		var out bytes.Buffer
		err := cleanIdempotencyKeys(ctx, mockCleaner, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Successfully cleared 7 expired idempotency key(s)")
		mockCleaner.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockCleaner := &MockIdempotencyKeyCleaner{}
		mockCleaner.On("ClearExpiredIdempotencyKeys", ctx).Return(int64(3), nil)

		var out bytes.Buffer
		err := cleanIdempotencyKeys(ctx, mockCleaner, logger, &out, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"count": 3`)
		mockCleaner.AssertExpectations(t)
	})

	t.Run("cleaner-error", func(t *testing.T) {
		mockCleaner := &MockIdempotencyKeyCleaner{}
		mockCleaner.On("ClearExpiredIdempotencyKeys", ctx).Return(int64(0), context.DeadlineExceeded)

		err := cleanIdempotencyKeys(ctx, mockCleaner, logger, &bytes.Buffer{}, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to clean idempotency keys")
		mockCleaner.AssertExpectations(t)
	})
}
