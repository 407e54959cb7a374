package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowEnforcesBurstPerKey(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: PerMinute(1), Burst: 2})

	require.True(t, l.Allow("visitor-a"))
	require.True(t, l.Allow("visitor-a"))
	require.False(t, l.Allow("visitor-a"), "third call exceeds burst")
	require.True(t, l.Allow("visitor-b"), "other keys have their own bucket")
}

func TestUnlimitedRate(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("k"))
	}
}

func TestWaitHonorsContext(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: PerMinute(1), Burst: 1})
	require.NoError(t, l.Wait(context.Background(), "k"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, l.Wait(ctx, "k"))
}

func TestIdleKeysArePruned(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 1, Burst: 1, MaxKeys: 2, IdleTTL: time.Minute})
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	require.Equal(t, 2, l.Len())

	now = now.Add(2 * time.Minute)
	l.Allow("c")
	require.Equal(t, 1, l.Len())
}

func TestPerMinute(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 0.1, PerMinute(6), 1e-9)
}
