// Package download orchestrates the full life of a download: metadata fetch,
// output path resolution, dedup decision, chunked stream acquisition,
// post-processing, archive recording, and playlist export. Batch operations
// (album, playlist, artist, liked library, show) iterate strictly
// sequentially; a failed item is logged and never aborts its batch.
package download

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/pxrave/zotify/archive"
	"github.com/pxrave/zotify/cache"
	"github.com/pxrave/zotify/config"
	"github.com/pxrave/zotify/errutil"
	"github.com/pxrave/zotify/log"
	"github.com/pxrave/zotify/m3u"
	"github.com/pxrave/zotify/outpath"
	"github.com/pxrave/zotify/postprocess"
	"github.com/pxrave/zotify/session"
	"github.com/pxrave/zotify/spotify"
)

type Downloader struct {
	cfg      *config.Config
	sess     session.Session
	client   *spotify.Client
	caches   *cache.Cache
	channels *log.Channels
	archives *archive.Manager
	resolver *outpath.Resolver
	exporter *m3u.Exporter
	post     *postprocess.Processor
	http     *http.Client
}

func New(
	cfg *config.Config,
	sess session.Session,
	client *spotify.Client,
	caches *cache.Cache,
	channels *log.Channels,
	archives *archive.Manager,
	exporter *m3u.Exporter,
	post *postprocess.Processor,
) *Downloader {
	return &Downloader{
		cfg:      cfg,
		sess:     sess,
		client:   client,
		caches:   caches,
		channels: channels,
		archives: archives,
		resolver: outpath.NewResolver(cfg),
		exporter: exporter,
		post:     post,
		http:     &http.Client{Timeout: config.EpisodeDirectDownloadTimeout}, //nolint:exhaustruct
	}
}

// trackRequest identifies the download the user actually asked for when a
// single track is redirected to its parent album. Only the requested track
// emits a playlist entry, and it does so under the requested mode rather than
// the album mode the redirect runs in.
type trackRequest struct {
	mode    config.Mode
	trackID string
}

func isContextErr(err error) bool {
	_, ok := errutil.IsAny(err, context.Canceled, context.DeadlineExceeded)
	return ok
}

func tagMetaOf(item *spotify.MediaItem, genres, lyrics []string, cover []byte) postprocess.TagMeta {
	return postprocess.TagMeta{
		Title:       item.Title,
		Artists:     item.Artists,
		AlbumName:   item.AlbumName,
		AlbumArtist: item.AlbumArtist,
		ReleaseYear: item.ReleaseYear,
		DiscNumber:  item.DiscNumber,
		TrackNumber: item.TrackNumber,
		TotalTracks: item.TotalTracks,
		TotalDiscs:  item.TotalDiscs,
		Compilation: item.Compilation,
		Genres:      genres,
		Lyrics:      lyrics,
		CoverArt:    cover,
	}
}

// fmtSeconds renders a duration the way download summaries print it: bare
// seconds under a minute, mm:ss under an hour, hh:mm:ss above.
func fmtSeconds(secs float64) string {
	val := int(math.Floor(secs))
	s := val % 60
	m := (val / 60) % 60
	h := val / 3600

	switch {
	case h == 0 && m == 0:
		return fmt.Sprintf("%ds", s)
	case h == 0:
		return fmt.Sprintf("%02d:%02d", m, s)
	default:
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
}
