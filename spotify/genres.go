package spotify

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/pxrave/zotify/cache"
)

// ArtistGenres resolves the genre list for one song by querying each credited
// artist's detail endpoint. With allGenres every genre of every artist is
// collected, otherwise only the first genre per artist. Lookups are cached for
// the run since batch downloads hit the same artists repeatedly.
func (c *Client) ArtistGenres(ctx context.Context, artistHrefs []string, allGenres bool, memo *cache.Cache) ([]string, error) {
	var genres []string
	for _, href := range artistHrefs {
		item, err := memo.ArtistGenres.Fetch(href, cache.DefaultArtistGenresTTL, func() ([]string, error) {
			return c.fetchArtistGenres(ctx, href)
		})
		if nil != err {
			return nil, err
		}

		artistGenres := item.Value()
		if len(artistGenres) == 0 {
			continue
		}
		if allGenres {
			genres = append(genres, artistGenres...)
		} else {
			genres = append(genres, artistGenres[0])
		}
	}
	return genres, nil
}

func (c *Client) fetchArtistGenres(ctx context.Context, href string) ([]string, error) {
	body, err := c.Invoke(ctx, href)
	if nil != err {
		return nil, err
	}
	if status, message, ok := ErrorBody(body); ok {
		return nil, fmt.Errorf("%w: (%s) %s", ErrMetadataFetch, status, message)
	}

	var resp struct {
		Genres []string `json:"genres"`
	}
	if err := json.UnmarshalContext(ctx, body, &resp); nil != err {
		return nil, &MetadataParseError{Reason: err.Error(), RawBody: body}
	}
	return resp.Genres, nil
}
