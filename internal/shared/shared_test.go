package shared

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(7)
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
	require.Equal(t, 0, km.Len())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	unlockA := km.Lock(1)
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock(2)
		unlockB()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
	unlockA()
}

func TestRedisIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisIdempotencyStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "purchase:abc", "inventory"))
	require.ErrorIs(t, store.CheckAndInsert(ctx, "purchase:abc", "inventory"), ErrIdempotencyConflict)
	require.ErrorIs(t, store.CheckAndInsert(ctx, "purchase:abc", "inventory"), ErrConflict)

	require.NoError(t, store.Delete(ctx, "purchase:abc"))
	require.NoError(t, store.CheckAndInsert(ctx, "purchase:abc", "inventory"))

	require.Error(t, store.CheckAndInsert(ctx, "", "inventory"))
	require.Error(t, store.CheckAndInsert(ctx, "k", ""))
}
