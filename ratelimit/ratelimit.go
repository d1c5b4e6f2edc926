// Package ratelimit holds the deliberate sleeps a download run performs: the
// configurable pause between bulk items and the real-time pacing that caps a
// stream download at playback speed.
package ratelimit

import (
	"time"
)

// PacingDelay is the sleep owed after writing a chunk when real-time pacing is
// enabled. The target wall time is the downloaded fraction of the total bytes
// scaled by the track duration; the delay is the positive gap between target
// and elapsed, or zero when the transfer is already slower than playback.
func PacingDelay(downloaded, totalSize int64, durationMS int, elapsed time.Duration) time.Duration {
	if totalSize <= 0 {
		return 0
	}
	want := time.Duration(float64(downloaded) / float64(totalSize) * float64(durationMS) * float64(time.Millisecond))
	if want > elapsed {
		return want - elapsed
	}
	return 0
}

// BulkWait pauses between successive bulk downloads. A non-positive configured
// wait disables it.
func BulkWait(seconds int) {
	if seconds > 0 {
		time.Sleep(time.Duration(seconds) * time.Second)
	}
}
