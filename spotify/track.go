package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/xeptore/flaw/v8"
)

// Kind discriminates downloadable media items.
type Kind string

const (
	KindTrack   Kind = "track"
	KindEpisode Kind = "episode"
)

// MediaItem is the normalized metadata of one downloadable item. It is owned
// by a single download attempt and re-fetched per attempt; there is no
// cross-call cache.
type MediaItem struct {
	ID          string
	Kind        Kind
	Title       string
	Artists     []string
	ArtistHrefs []string
	AlbumName   string
	AlbumArtist string
	ReleaseYear string
	DiscNumber  int
	TotalDiscs  *int
	TrackNumber int
	TotalTracks int
	DurationMS  int
	Playable    bool
	Compilation bool
	CoverURL    string
	Genres      []string
	AlbumID     string
}

func (m *MediaItem) FlawP() flaw.P {
	return flaw.P{
		"id":           m.ID,
		"kind":         string(m.Kind),
		"title":        m.Title,
		"artists":      m.Artists,
		"album_name":   m.AlbumName,
		"album_artist": m.AlbumArtist,
		"track_number": m.TrackNumber,
		"disc_number":  m.DiscNumber,
		"duration_ms":  m.DurationMS,
		"playable":     m.Playable,
	}
}

type trackImage struct {
	URL   string `json:"url"`
	Width int    `json:"width"`
}

type trackArtist struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

type tracksResponse struct {
	Tracks []struct {
		ID      string        `json:"id"`
		Name    string        `json:"name"`
		Artists []trackArtist `json:"artists"`
		Album struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Type    string `json:"album_type"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			ReleaseDate string       `json:"release_date"`
			TotalTracks int          `json:"total_tracks"`
			Images      []trackImage `json:"images"`
		} `json:"album"`
		DiscNumber  int  `json:"disc_number"`
		TrackNumber int  `json:"track_number"`
		IsPlayable  bool `json:"is_playable"`
		DurationMS  int  `json:"duration_ms"`
	} `json:"tracks"`
}

// Track fetches and normalizes the metadata of a single track. The album-type
// string containing "compilation" sets the compilation flag, and the widest
// cover image wins.
func (c *Client) Track(ctx context.Context, id string) (*MediaItem, error) {
	body, err := c.Invoke(ctx, fmt.Sprintf("%s?ids=%s&market=from_token", TracksURL, id))
	if nil != err {
		return nil, err
	}
	if status, message, ok := ErrorBody(body); ok {
		return nil, fmt.Errorf("%w: (%s) %s", ErrMetadataFetch, status, message)
	}

	var resp tracksResponse
	if err := json.UnmarshalContext(ctx, body, &resp); nil != err {
		return nil, &MetadataParseError{Reason: err.Error(), RawBody: body}
	}
	if len(resp.Tracks) == 0 {
		return nil, &MetadataParseError{Reason: "empty tracks array", RawBody: body}
	}

	t := resp.Tracks[0]
	if len(t.Artists) == 0 || len(t.Album.Artists) == 0 {
		return nil, &MetadataParseError{Reason: "missing artists", RawBody: body}
	}

	var coverURL string
	if len(t.Album.Images) > 0 {
		widest := lo.MaxBy(t.Album.Images, func(a, b trackImage) bool { return a.Width > b.Width })
		coverURL = widest.URL
	}

	item := MediaItem{
		ID:          t.ID,
		Kind:        KindTrack,
		Title:       t.Name,
		Artists:     lo.Map(t.Artists, func(a trackArtist, _ int) string { return a.Name }),
		ArtistHrefs: lo.Map(t.Artists, func(a trackArtist, _ int) string { return a.Href }),
		AlbumName:   t.Album.Name,
		AlbumArtist: t.Album.Artists[0].Name,
		ReleaseYear: strings.SplitN(t.Album.ReleaseDate, "-", 2)[0],
		DiscNumber:  t.DiscNumber,
		TotalDiscs:  nil,
		TrackNumber: t.TrackNumber,
		TotalTracks: t.Album.TotalTracks,
		DurationMS:  t.DurationMS,
		Playable:    t.IsPlayable,
		Compilation: strings.Contains(t.Album.Type, "compilation"),
		CoverURL:    coverURL,
		Genres:      nil,
		AlbumID:     t.Album.ID,
	}
	return &item, nil
}

// TrackDurationSeconds reads the track duration from the audio-features
// endpoint, in seconds.
func (c *Client) TrackDurationSeconds(ctx context.Context, id string) (float64, error) {
	body, err := c.Invoke(ctx, audioFeaturesURL+id)
	if nil != err {
		return 0, err
	}
	if status, message, ok := ErrorBody(body); ok {
		return 0, fmt.Errorf("%w: (%s) %s", ErrMetadataFetch, status, message)
	}

	var resp struct {
		DurationMS int `json:"duration_ms"`
	}
	if err := json.UnmarshalContext(ctx, body, &resp); nil != err {
		return 0, &MetadataParseError{Reason: err.Error(), RawBody: body}
	}
	return float64(resp.DurationMS) / 1000, nil
}
