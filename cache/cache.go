package cache

import (
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"
)

var (
	DefaultArtistGenresTTL = 1 * time.Hour
	DefaultCoverTTL        = 1 * time.Hour
)

// Cache holds in-run memoization for lookups that batch downloads repeat:
// per-artist genre lists and album cover art.
type Cache struct {
	ArtistGenres ArtistGenresCache
	Covers       CoversCache
}

func New() *Cache {
	artistGenresCache := ccache.New(
		ccache.Configure[[]string]().
			MaxSize(1000).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	coversCache := ccache.New(
		ccache.Configure[[]byte]().
			MaxSize(100).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	return &Cache{
		ArtistGenres: ArtistGenresCache{
			c:   artistGenresCache,
			mux: sync.Mutex{},
		},
		Covers: CoversCache{
			c:   coversCache,
			mux: sync.Mutex{},
		},
	}
}

type ArtistGenresCache struct {
	c   *ccache.Cache[[]string]
	mux sync.Mutex
}

func (c *ArtistGenresCache) Fetch(k string, ttl time.Duration, fetch func() ([]string, error)) (*ccache.Item[[]string], error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.c.Fetch(k, ttl, fetch)
}

type CoversCache struct {
	c   *ccache.Cache[[]byte]
	mux sync.Mutex
}

func (c *CoversCache) Fetch(k string, ttl time.Duration, fetch func() ([]byte, error)) (*ccache.Item[[]byte], error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.c.Fetch(k, ttl, fetch)
}
