package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	partnerExtensions  = `{"persistedQuery":{"version":1,"sha256Hash":"224ba0fd89fcfdfb3a15fa2d82a6112d3f4e2ac88fba5c6713de04d1b72cf482"}}`
	anonPodcastCDNHost = "anon-podcast.scdn.co"
)

var (
	episodesURL     = apiBaseURL + "/episodes"
	partnerQueryURL = "https://api-partner.spotify.com/pathfinder/v1/query"
)

// Episode is the metadata needed to download one podcast episode.
type Episode struct {
	ID         string
	ShowName   string
	Name       string
	DurationMS int
}

// EpisodeInfo fetches episode metadata. A response carrying an error field
// yields ErrMetadataFetch after the client's retries are exhausted.
func (c *Client) EpisodeInfo(ctx context.Context, episodeID string) (*Episode, error) {
	body, err := c.Invoke(ctx, episodesURL+"/"+episodeID)
	if nil != err {
		return nil, err
	}
	if status, message, ok := ErrorBody(body); ok {
		return nil, fmt.Errorf("%w: (%s) %s", ErrMetadataFetch, status, message)
	}

	name := gjson.GetBytes(body, "name")
	showName := gjson.GetBytes(body, "show.name")
	durationMS := gjson.GetBytes(body, "duration_ms")
	if !name.Exists() || !showName.Exists() || !durationMS.Exists() {
		return nil, &MetadataParseError{Reason: "missing episode fields", RawBody: body}
	}

	return &Episode{
		ID:         episodeID,
		ShowName:   showName.String(),
		Name:       name.String(),
		DurationMS: int(durationMS.Int()),
	}, nil
}

// EpisodeDirectURL resolves the provider's direct audio URL for an episode via
// the partner endpoint. direct is false when the URL points at the anonymous
// podcast CDN or the episode carries no preview URL; both cases only serve
// through the session stream.
func (c *Client) EpisodeDirectURL(ctx context.Context, episodeID string) (downloadURL string, direct bool, err error) {
	params := make(url.Values, 3)
	params.Set("operationName", "getEpisode")
	params.Set("variables", fmt.Sprintf(`{"uri":"spotify:episode:%s"}`, episodeID))
	params.Set("extensions", partnerExtensions)
	body, err := c.Invoke(ctx, partnerQueryURL+"?"+params.Encode())
	if nil != err {
		return "", false, err
	}
	if status, message, ok := ErrorBody(body); ok {
		return "", false, fmt.Errorf("%w: (%s) %s", ErrMetadataFetch, status, message)
	}

	episode := gjson.GetBytes(body, "data.episode")
	items := episode.Get("audio.items")
	if !items.Exists() {
		return "", false, &MetadataParseError{Reason: "missing episode audio items", RawBody: body}
	}
	audioItems := items.Array()
	if len(audioItems) == 0 {
		return "", false, &MetadataParseError{Reason: "empty episode audio items", RawBody: body}
	}

	downloadURL = audioItems[len(audioItems)-1].Get("url").String()
	direct = !strings.Contains(downloadURL, anonPodcastCDNHost) && episode.Get("audio_preview_url").Exists()
	return downloadURL, direct, nil
}
