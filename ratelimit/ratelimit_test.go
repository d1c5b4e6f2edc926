package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pxrave/zotify/ratelimit"
)

func TestPacingDelay(t *testing.T) {
	t.Parallel()

	// Half the bytes of a 200s track downloaded in 40s leaves 60s owed.
	d := ratelimit.PacingDelay(500, 1000, 200_000, 40*time.Second)
	require.Equal(t, 60*time.Second, d)

	// Already slower than playback: nothing owed.
	d = ratelimit.PacingDelay(100, 1000, 200_000, 30*time.Second)
	require.Equal(t, time.Duration(0), d)

	// Unknown total size disables pacing.
	d = ratelimit.PacingDelay(100, 0, 200_000, 0)
	require.Equal(t, time.Duration(0), d)
}
