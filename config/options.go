package config

import "time"

var (
	TrackMetaRequestTimeout      = 10 * time.Second
	EpisodeMetaRequestTimeout    = 10 * time.Second
	PagedItemsRequestTimeout     = 10 * time.Second
	ArtistGenresRequestTimeout   = 10 * time.Second
	LyricsRequestTimeout         = 10 * time.Second
	AudioFeaturesRequestTimeout  = 10 * time.Second
	CoverDownloadTimeout         = 30 * time.Second
	EpisodeDirectDownloadTimeout = 1 * time.Hour
	MetaRetryDelay               = 5 * time.Second
)
