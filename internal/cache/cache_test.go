package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var (
	_ Cache = Nop{}
	_ Cache = (*Memory)(nil)
	_ Cache = (*Redis)(nil)
)

func TestMemoryGetSetExpire(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "posts:list", []byte("a"), time.Minute))
	got, ok, err := m.Get(ctx, "posts:list")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("a"), got)

	got[0] = 'z'
	again, _, _ := m.Get(ctx, "posts:list")
	require.Equal(t, []byte("a"), again, "callers receive copies")

	now = now.Add(time.Minute)
	_, ok, err = m.Get(ctx, "posts:list")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, m.Len())
}

func TestMemoryNoTTLNeverExpires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	m.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryDeletePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	for _, k := range []string{"sanity:post:a", "sanity:post:b", "sanity:slugs", "other"} {
		require.NoError(t, m.Set(ctx, k, []byte(k), time.Hour))
	}
	require.NoError(t, m.DeletePrefix(ctx, "sanity:post:"))
	require.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "sanity:slugs")
	require.True(t, ok)
}

func TestNopAlwaysMisses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.NoError(t, Nop{}.Set(ctx, "k", []byte("v"), time.Hour))
	_, ok, err := Nop{}.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, Nop{}.DeletePrefix(ctx, ""))
}

func TestRedisSurfacesConnectionErrors(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	r := NewRedisWithClient(client, "test:")
	t.Cleanup(func() { _ = r.Close() })

	ctx := context.Background()
	_, ok, err := r.Get(ctx, "k")
	require.Error(t, err)
	require.False(t, ok)
	require.Error(t, r.Set(ctx, "k", []byte("v"), time.Minute))
	require.Error(t, r.DeletePrefix(ctx, "k"))
}
