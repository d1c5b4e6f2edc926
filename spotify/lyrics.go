package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var ErrLyricsUnavailable = errors.New("lyrics are not available")

// Lyrics fetches the lyric lines for a track. Line-synced lyrics are rendered
// with LRC [mm:ss.xx] timestamps, unsynced lyrics as plain lines. Each
// returned line includes its trailing newline.
func (c *Client) Lyrics(ctx context.Context, trackID string) ([]string, error) {
	body, err := c.Invoke(ctx, fmt.Sprintf(lyricsURLFormat, trackID))
	if nil != err {
		return nil, err
	}
	if _, _, ok := ErrorBody(body); ok {
		return nil, fmt.Errorf("%w: track %s", ErrLyricsUnavailable, trackID)
	}

	lyrics := gjson.GetBytes(body, "lyrics")
	lines := lyrics.Get("lines")
	if !lines.Exists() {
		return nil, fmt.Errorf("%w: track %s", ErrLyricsUnavailable, trackID)
	}

	var out []string
	switch syncType := lyrics.Get("syncType").String(); syncType {
	case "UNSYNCED":
		for _, line := range lines.Array() {
			out = append(out, line.Get("words").String()+"\n")
		}
	case "LINE_SYNCED":
		for _, line := range lines.Array() {
			ts := line.Get("startTimeMs").Int()
			minutes := ts / 60_000
			seconds := (ts % 60_000) / 1000
			centis := centiseconds(ts % 1000)
			out = append(out, fmt.Sprintf("[%02d:%02d.%02d]%s\n", minutes, seconds, centis, line.Get("words").String()))
		}
	default:
		return nil, fmt.Errorf("%w: unexpected sync type %q for track %s", ErrLyricsUnavailable, syncType, trackID)
	}
	return out, nil
}

// centiseconds keeps the first two digits of a 0-999 millisecond remainder,
// zero-padding single digits the way the LRC timestamps expect.
func centiseconds(millis int64) int64 {
	if millis >= 100 {
		return millis / 10
	}
	return millis
}
