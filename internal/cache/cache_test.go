package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/config"
)

type recordingStore struct {
	data map[string][]byte
	err  error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{data: map[string][]byte{}}
}

func (r *recordingStore) Get(_ context.Context, key string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	v, ok := r.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (r *recordingStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	r.data[key] = value
	return nil
}

func (r *recordingStore) Delete(_ context.Context, key string) error {
	delete(r.data, key)
	return nil
}

func TestNewStore_DisabledOrNoop(t *testing.T) {
	cases := map[string]config.Cache{
		"disabled": {Enabled: false, Driver: "redis"},
		"noop":     {Enabled: true, Driver: "noop"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			store, err := NewStore(fxtest.NewLifecycle(t), config.Config{Cache: c}, zap.NewNop())
			require.NoError(t, err)
			assert.IsType(t, noopStore{}, store)

			require.NoError(t, store.Set(context.Background(), OrderKey(1), []byte("x"), 0))
			_, err = store.Get(context.Background(), OrderKey(1))
			assert.ErrorIs(t, err, ErrCacheMiss)
		})
	}
}

func TestNewStore_UnknownDriver(t *testing.T) {
	_, err := NewStore(fxtest.NewLifecycle(t), config.Config{Cache: config.Cache{Enabled: true, Driver: "memcached"}}, zap.NewNop())
	require.Error(t, err)
}

func TestWithPrefix(t *testing.T) {
	ctx := context.Background()
	inner := newRecordingStore()
	store := WithPrefix(inner, " nursery: ")

	require.NoError(t, store.Set(ctx, OrderKey(7), []byte("order"), time.Minute))
	assert.Contains(t, inner.data, "nursery:orders:7")

	got, err := store.Get(ctx, OrderKey(7))
	require.NoError(t, err)
	assert.Equal(t, []byte("order"), got)

	require.NoError(t, store.Delete(ctx, OrderKey(7)))
	assert.Empty(t, inner.data)

	assert.Same(t, inner, WithPrefix(inner, ""))
}

func TestInstrument_PassesThrough(t *testing.T) {
	ctx := context.Background()
	inner := newRecordingStore()
	store := Instrument(inner, nil)

	_, err := store.Get(ctx, ReportSummaryKey)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, store.Set(ctx, ReportSummaryKey, []byte("{}"), 0))
	got, err := store.Get(ctx, ReportSummaryKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), got)

	boom := errors.New("connection refused")
	inner.err = boom
	_, err = store.Get(ctx, ReportSummaryKey)
	assert.ErrorIs(t, err, boom)
}
