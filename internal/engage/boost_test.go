package engage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBoostGainInsideWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	b := NewBoostStore(DefaultConfig())
	b.now = func() time.Time { return now }

	b.NotifyEngaged("direct:42")

	gain, ok := b.Gain("direct:42")
	require.True(t, ok)
	require.Equal(t, 0.85, gain)

	_, ok = b.Gain("direct:99")
	require.False(t, ok, "other conversations are unaffected")
}

func TestBoostExpiresAfterWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	b := NewBoostStore(DefaultConfig())
	b.now = func() time.Time { return now }

	b.NotifyEngaged("direct:42")
	now = now.Add(6 * time.Minute)

	_, ok := b.Gain("direct:42")
	require.False(t, ok)

	// Expired entry was pruned, not just hidden.
	require.Empty(t, b.sentAt)
}

func TestBoostReengageRefreshesWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	b := NewBoostStore(DefaultConfig())
	b.now = func() time.Time { return now }

	b.NotifyEngaged("direct:42")
	now = now.Add(4 * time.Minute)
	b.NotifyEngaged("direct:42")
	now = now.Add(4 * time.Minute)

	_, ok := b.Gain("direct:42")
	require.True(t, ok, "second send restarts the clock")
}
