package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	first := New("first")
	first.Started = time.Unix(100, 0).UTC()
	first.Record(3)
	first.Record(2)
	second := New("second")
	second.Started = time.Unix(200, 0).UTC()
	second.Record(1)

	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Save(ctx, first))
	assert.Error(t, store.Save(ctx, &History{}))

	got, err := store.Load(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, first.Epochs, got.Epochs)
	assert.True(t, first.Started.Equal(got.Started))

	first.Record(1)
	require.NoError(t, store.Save(ctx, first))
	got, err = store.Load(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Steps())

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, ids)
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStoreKeepsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	h := New("run")
	h.Record(1)
	require.NoError(t, s.Save(ctx, h))
	h.Record(2)

	got, err := s.Load(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Steps())
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, WithPrefix("test:"))
	defer store.Close()

	runStoreContract(t, store)
	assert.True(t, mr.Exists("test:first"))
}

func TestRedisStoreTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := OpenRedisStore("redis://"+mr.Addr()+"/0", WithTTL(time.Minute))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, New("run")))
	assert.Equal(t, time.Minute, mr.TTL(DefaultRedisPrefix+"run"))

	mr.FastForward(2 * time.Minute)
	_, err = store.Load(ctx, "run")
	assert.True(t, errors.Is(err, ErrNotFound))
}
