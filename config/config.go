package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects which output template a download uses.
type Mode string

const (
	ModePlaylist    Mode = "playlist"
	ModeExtPlaylist Mode = "extplaylist"
	ModeLiked       Mode = "liked"
	ModeSingle      Mode = "single"
	ModeAlbum       Mode = "album"
)

// ExtMap maps the configured download format to the file extension written to disk.
var ExtMap = map[string]string{
	"aac":     "m4a",
	"fdk_aac": "m4a",
	"mp3":     "mp3",
	"ogg":     "ogg",
	"opus":    "ogg",
	"vorbis":  "ogg",
	"copy":    "ogg",
}

type Config struct {
	RootPath        string `yaml:"root_path"`
	RootPodcastPath string `yaml:"root_podcast_path"`

	Output            string `yaml:"output"`
	OutputPlaylist    string `yaml:"output_playlist"`
	OutputExtPlaylist string `yaml:"output_ext_playlist"`
	OutputLikedSongs  string `yaml:"output_liked_songs"`
	OutputSingle      string `yaml:"output_single"`
	OutputAlbum       string `yaml:"output_album"`

	MaxFilenameLength int    `yaml:"max_filename_length"`
	TempDownloadDir   string `yaml:"temp_download_dir"`

	ExportM3U8            bool   `yaml:"export_m3u8"`
	M3U8Location          string `yaml:"m3u8_location"`
	LikedSongsArchiveM3U8 bool   `yaml:"liked_songs_archive_m3u8"`

	DownloadFormat   string `yaml:"download_format"`
	DownloadQuality  string `yaml:"download_quality"`
	TranscodeBitrate string `yaml:"transcode_bitrate"`
	FFmpegLogLevel   string `yaml:"ffmpeg_log_level"`

	AlbumArtJPGFile bool `yaml:"album_art_jpg_file"`

	SongArchiveLocation      string `yaml:"song_archive_location"`
	DisableDirectoryArchives bool   `yaml:"disable_directory_archives"`
	SkipExisting             bool   `yaml:"skip_existing"`
	SkipPreviouslyDownloaded bool   `yaml:"skip_previously_downloaded"`

	SplitAlbumDiscs     bool `yaml:"split_album_discs"`
	DownloadParentAlbum bool `yaml:"download_parent_album"`

	DownloadLyrics    bool   `yaml:"download_lyrics"`
	LyricsLocation    string `yaml:"lyrics_location"`
	AlwaysCheckLyrics bool   `yaml:"always_check_lyrics"`

	DiscTrackTotals bool   `yaml:"md_disc_track_totals"`
	SaveGenres      bool   `yaml:"md_save_genres"`
	AllGenres       bool   `yaml:"md_all_genres"`
	GenreDelimiter  string `yaml:"md_genre_delimiter"`
	ArtistDelimiter string `yaml:"md_artist_delimiter"`
	SaveLyricsTags  bool   `yaml:"md_save_lyrics"`

	RetryAttempts    int  `yaml:"retry_attempts"`
	BulkWaitTime     int  `yaml:"bulk_wait_time"`
	ChunkSize        int  `yaml:"chunk_size"`
	DownloadRealTime bool `yaml:"download_real_time"`

	Language string `yaml:"language"`

	PrintSplash           bool `yaml:"print_splash"`
	PrintSkips            bool `yaml:"print_skips"`
	PrintDownloads        bool `yaml:"print_downloads"`
	PrintErrors           bool `yaml:"print_errors"`
	PrintAPIErrors        bool `yaml:"print_api_errors"`
	PrintWarnings         bool `yaml:"print_warnings"`
	PrintProgressInfo     bool `yaml:"print_progress_info"`
	PrintDownloadProgress bool `yaml:"print_download_progress"`
	PrintAlbumProgress    bool `yaml:"print_album_progress"`
	PrintArtistProgress   bool `yaml:"print_artist_progress"`
	PrintPlaylistProgress bool `yaml:"print_playlist_progress"`
}

// Default returns a fully-populated configuration. Loading YAML on top of it
// leaves any key the file omits at its default.
func Default() Config {
	home, err := os.UserHomeDir()
	if nil != err {
		home = "."
	}
	return Config{
		RootPath:          filepath.Join(home, "Music", "Zotify Music"),
		RootPodcastPath:   filepath.Join(home, "Music", "Zotify Podcasts"),
		Output:            "",
		OutputPlaylist:    "{playlist}/{artist}_{song_name}",
		OutputExtPlaylist: "{playlist}/{playlist_num}_{artist}_{song_name}",
		OutputLikedSongs:  "Liked Songs/{artist}_{song_name}",
		OutputSingle:      "{artist}/{album}/{artist} - {song_name}",
		OutputAlbum:       "{artist}/{album}/{album_num} - {artist} - {song_name}",

		MaxFilenameLength: 0,
		TempDownloadDir:   "",

		ExportM3U8:            false,
		M3U8Location:          "",
		LikedSongsArchiveM3U8: true,

		DownloadFormat:   "copy",
		DownloadQuality:  "auto",
		TranscodeBitrate: "auto",
		FFmpegLogLevel:   "error",

		AlbumArtJPGFile: false,

		SongArchiveLocation:      "",
		DisableDirectoryArchives: false,
		SkipExisting:             true,
		SkipPreviouslyDownloaded: false,

		SplitAlbumDiscs:     false,
		DownloadParentAlbum: false,

		DownloadLyrics:    true,
		LyricsLocation:    "",
		AlwaysCheckLyrics: false,

		DiscTrackTotals: true,
		SaveGenres:      false,
		AllGenres:       false,
		GenreDelimiter:  ", ",
		ArtistDelimiter: ", ",
		SaveLyricsTags:  true,

		RetryAttempts:    1,
		BulkWaitTime:     1,
		ChunkSize:        20000,
		DownloadRealTime: false,

		Language: "en",

		PrintSplash:           false,
		PrintSkips:            true,
		PrintDownloads:        true,
		PrintErrors:           true,
		PrintAPIErrors:        true,
		PrintWarnings:         true,
		PrintProgressInfo:     true,
		PrintDownloadProgress: true,
		PrintAlbumProgress:    true,
		PrintArtistProgress:   true,
		PrintPlaylistProgress: true,
	}
}

func (cfg *Config) validate() error {
	if cfg.RootPath == "" {
		return errors.New("root path is empty")
	}

	if _, ok := ExtMap[strings.ToLower(cfg.DownloadFormat)]; !ok {
		return fmt.Errorf("unknown download format %q", cfg.DownloadFormat)
	}

	switch cfg.FFmpegLogLevel {
	case "trace", "verbose", "info", "warning", "error", "fatal", "panic", "quiet":
	default:
		return fmt.Errorf("unknown ffmpeg log level %q", cfg.FFmpegLogLevel)
	}

	if cfg.RetryAttempts < 1 {
		return errors.New("retry attempts must be at least 1")
	}

	if cfg.ChunkSize < 1 {
		return errors.New("chunk size must be positive")
	}

	return nil
}

func FromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if nil != err {
		return nil, fmt.Errorf("failed to read config file %q: %v", filePath, err)
	}
	return FromString(string(data))
}

func FromString(data string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(data), &cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return &cfg, nil
}

// OutputTemplate returns the filename template for a download mode. A non-empty
// global output override wins unconditionally. With split_album_discs enabled a
// "Disc {disc_number}" segment is injected before the final path component.
func (cfg *Config) OutputTemplate(mode Mode) (string, error) {
	v := cfg.Output
	if v == "" {
		switch mode {
		case ModePlaylist:
			v = cfg.OutputPlaylist
		case ModeExtPlaylist:
			v = cfg.OutputExtPlaylist
		case ModeLiked:
			v = cfg.OutputLikedSongs
		case ModeSingle:
			v = cfg.OutputSingle
		case ModeAlbum:
			v = cfg.OutputAlbum
		default:
			return "", fmt.Errorf("unknown download mode %q", mode)
		}
	}

	if cfg.SplitAlbumDiscs {
		dir, name := path.Split(v)
		return path.Join(dir, "Disc {disc_number}", name), nil
	}
	return v, nil
}

// DownloadExt is the extension the configured download format maps to.
func (cfg *Config) DownloadExt() string {
	return ExtMap[strings.ToLower(cfg.DownloadFormat)]
}

// SongArchivePath resolves the global all-time archive file location.
func (cfg *Config) SongArchivePath() string {
	if cfg.SongArchiveLocation == "" {
		home, err := os.UserHomeDir()
		if nil != err {
			home = "."
		}
		return filepath.Join(home, ".local", "share", "zotify", ".song_archive")
	}
	return filepath.Join(cfg.SongArchiveLocation, ".song_archive")
}

// LyricsDir returns the configured lyrics directory, or empty to use the song's
// own directory.
func (cfg *Config) LyricsDir() string {
	return cfg.LyricsLocation
}

// M3U8Dir returns the directory playlist files are written to, defaulting to
// the music root.
func (cfg *Config) M3U8Dir() string {
	if cfg.M3U8Location == "" {
		return cfg.RootPath
	}
	return cfg.M3U8Location
}
