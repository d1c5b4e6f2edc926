package spotify

import (
	"context"
	"fmt"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// SavedTracks pages through the account's saved tracks and returns their IDs
// in library order.
func (c *Client) SavedTracks(ctx context.Context) ([]string, error) {
	items, err := c.PagedItems(ctx, SavedTracksURL, "items", nil)
	if nil != err {
		return nil, fmt.Errorf("failed to list saved tracks: %v", err)
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id := item.Get("track.id"); id.Exists() {
			ids = append(ids, id.String())
		}
	}
	return ids, nil
}

// FollowedArtists returns the IDs and names of all artists the account follows.
func (c *Client) FollowedArtists(ctx context.Context) ([]IDName, error) {
	items, err := c.PagedItems(ctx, FollowedArtistsURL, "artists.items", nil)
	if nil != err {
		return nil, fmt.Errorf("failed to list followed artists: %v", err)
	}
	return idNames(items), nil
}

type IDName struct {
	ID   string
	Name string
}

func idNames(items []gjson.Result) []IDName {
	out := make([]IDName, 0, len(items))
	for _, item := range items {
		out = append(out, IDName{ID: item.Get("id").String(), Name: item.Get("name").String()})
	}
	return out
}

// ArtistAlbums lists every album of an artist, including singles and
// compilations the artist appears on.
func (c *Client) ArtistAlbums(ctx context.Context, artistID string) ([]IDName, error) {
	albumsURL := fmt.Sprintf("%s/artists/%s/albums", apiBaseURL, artistID)
	params := url.Values{"include_groups": []string{"album,single"}}
	items, err := c.PagedItems(ctx, albumsURL, "items", params)
	if nil != err {
		return nil, fmt.Errorf("failed to list artist albums: %v", err)
	}
	return idNames(items), nil
}

// Album describes an album collection for batch download.
type Album struct {
	ID         string
	Name       string
	Artist     string
	TotalDiscs int
	TrackIDs   []string
}

// AlbumDetails fetches album metadata and its full track ID list.
func (c *Client) AlbumDetails(ctx context.Context, albumID string) (*Album, error) {
	body, err := c.Invoke(ctx, fmt.Sprintf("%s/albums/%s", apiBaseURL, albumID))
	if nil != err {
		return nil, err
	}
	if status, message, ok := ErrorBody(body); ok {
		return nil, fmt.Errorf("%w: (%s) %s", ErrMetadataFetch, status, message)
	}

	var resp struct {
		Name    string `json:"name"`
		Artists []struct {
			Name string `json:"name"`
		} `json:"artists"`
	}
	if err := json.UnmarshalContext(ctx, body, &resp); nil != err {
		return nil, &MetadataParseError{Reason: err.Error(), RawBody: body}
	}

	tracksURL := fmt.Sprintf("%s/albums/%s/tracks", apiBaseURL, albumID)
	items, err := c.PagedItems(ctx, tracksURL, "items", nil)
	if nil != err {
		return nil, fmt.Errorf("failed to list album tracks: %v", err)
	}

	album := Album{
		ID:         albumID,
		Name:       resp.Name,
		Artist:     "",
		TotalDiscs: 1,
		TrackIDs:   make([]string, 0, len(items)),
	}
	if len(resp.Artists) > 0 {
		album.Artist = resp.Artists[0].Name
	}
	for _, item := range items {
		album.TrackIDs = append(album.TrackIDs, item.Get("id").String())
		if disc := int(item.Get("disc_number").Int()); disc > album.TotalDiscs {
			album.TotalDiscs = disc
		}
	}
	return &album, nil
}

// Playlist describes a playlist collection for batch download.
type Playlist struct {
	ID       string
	Name     string
	Owner    string
	TrackIDs []string
}

// PlaylistDetails fetches playlist metadata and its full track ID list.
// Non-track entries (local files, episodes) are skipped.
func (c *Client) PlaylistDetails(ctx context.Context, playlistID string) (*Playlist, error) {
	body, err := c.Invoke(ctx, fmt.Sprintf("%s/playlists/%s", apiBaseURL, playlistID))
	if nil != err {
		return nil, err
	}
	if status, message, ok := ErrorBody(body); ok {
		return nil, fmt.Errorf("%w: (%s) %s", ErrMetadataFetch, status, message)
	}

	name := gjson.GetBytes(body, "name")
	if !name.Exists() {
		return nil, &MetadataParseError{Reason: "missing name field", RawBody: body}
	}

	itemsURL := fmt.Sprintf("%s/playlists/%s/tracks", apiBaseURL, playlistID)
	items, err := c.PagedItems(ctx, itemsURL, "items", nil)
	if nil != err {
		return nil, fmt.Errorf("failed to list playlist tracks: %v", err)
	}

	playlist := Playlist{
		ID:       playlistID,
		Name:     name.String(),
		Owner:    gjson.GetBytes(body, "owner.display_name").String(),
		TrackIDs: make([]string, 0, len(items)),
	}
	for _, item := range items {
		if item.Get("is_local").Bool() {
			continue
		}
		if item.Get("track.type").String() != "track" {
			continue
		}
		if id := item.Get("track.id"); id.Exists() {
			playlist.TrackIDs = append(playlist.TrackIDs, id.String())
		}
	}
	return &playlist, nil
}

// ShowEpisodes pages through the episode IDs of a show.
func (c *Client) ShowEpisodes(ctx context.Context, showID string) ([]string, error) {
	episodesURL := fmt.Sprintf("%s/shows/%s/episodes", apiBaseURL, showID)
	items, err := c.PagedItems(ctx, episodesURL, "items", nil)
	if nil != err {
		return nil, fmt.Errorf("failed to list show episodes: %v", err)
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Get("id").String())
	}
	return ids, nil
}
