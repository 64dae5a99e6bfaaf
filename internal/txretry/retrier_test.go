package txretry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/nursery/internal/store"
)

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	r := New(3, time.Millisecond, nil)

	calls := 0
	err := r.Do(context.Background(), "test", func(context.Context) error {
		calls++
		if calls < 3 {
			return &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsLastErrorWhenExhausted(t *testing.T) {
	r := New(3, time.Millisecond, nil)

	calls := 0
	err := r.Do(context.Background(), "test", func(context.Context) error {
		calls++
		return fmt.Errorf("attempt %d: %w", calls, store.ErrConflict)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Contains(t, err.Error(), "attempt 3")
	assert.Equal(t, 3, calls)
}

func TestDo_DoesNotRetryOtherErrors(t *testing.T) {
	r := New(3, time.Millisecond, nil)
	boom := errors.New("constraint violated")

	calls := 0
	err := r.Do(context.Background(), "test", func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDo_BackoffGrowsLinearly(t *testing.T) {
	base := 20 * time.Millisecond
	r := New(3, base, nil)

	var stamps []time.Time
	_ = r.Do(context.Background(), "test", func(context.Context) error {
		stamps = append(stamps, time.Now())
		return store.ErrConflict
	})

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), base)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 2*base)
}

func TestDo_SingleAttemptWhenBoundIsOne(t *testing.T) {
	r := New(0, time.Millisecond, nil)
	assert.Equal(t, 1, r.MaxAttempts())

	calls := 0
	err := r.Do(context.Background(), "test", func(context.Context) error {
		calls++
		return store.ErrConflict
	})
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, 1, calls)
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	r := New(3, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := r.Do(ctx, "test", func(context.Context) error {
		calls++
		cancel()
		return store.ErrConflict
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"store conflict", fmt.Errorf("wrapped: %w", store.ErrConflict), true},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, true},
		{"mysql lock wait", fmt.Errorf("tx: %w", &mysql.MySQLError{Number: 1205}), true},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, false},
		{"not found", store.ErrNotFound, false},
		{"plain", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}
