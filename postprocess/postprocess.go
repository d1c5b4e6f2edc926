// Package postprocess finalizes a downloaded audio file: format conversion
// through ffmpeg, metadata and artwork tagging, lyrics files, and optional
// standalone cover art. Tagging failures are reported but never abort a
// download; a missing ffmpeg binary downgrades conversion to a warning.
package postprocess

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pxrave/zotify/cache"
	"github.com/pxrave/zotify/config"
	"github.com/pxrave/zotify/log"
	"github.com/pxrave/zotify/session"
)

var (
	// ErrConversion marks an ffmpeg format-conversion failure.
	ErrConversion = errors.New("audio conversion failed")
	// ErrTagWrite marks an ffmpeg metadata or artwork write failure.
	ErrTagWrite = errors.New("failed to write audio tags")
)

// codecMap maps the configured download format to the ffmpeg audio codec.
var codecMap = map[string]string{
	"aac":     "aac",
	"fdk_aac": "libfdk_aac",
	"mp3":     "libmp3lame",
	"ogg":     "copy",
	"opus":    "libopus",
	"vorbis":  "copy",
	"copy":    "copy",
}

// TagMeta carries everything written into the output file's metadata.
type TagMeta struct {
	Title       string
	Artists     []string
	AlbumName   string
	AlbumArtist string
	ReleaseYear string
	DiscNumber  int
	TrackNumber int
	TotalTracks int
	TotalDiscs  *int
	Compilation bool
	Genres      []string
	Lyrics      []string
	CoverArt    []byte
}

type Processor struct {
	cfg      *config.Config
	sess     session.Session
	http     *http.Client
	caches   *cache.Cache
	channels *log.Channels
}

func New(cfg *config.Config, sess session.Session, httpClient *http.Client, caches *cache.Cache, channels *log.Channels) *Processor {
	return &Processor{
		cfg:      cfg,
		sess:     sess,
		http:     httpClient,
		caches:   caches,
		channels: channels,
	}
}

// transcodeBitrate resolves the -q:a value for a lossy conversion. An "auto"
// or empty configured bitrate derives the value from the download quality,
// where auto quality itself depends on whether the account is premium.
func (p *Processor) transcodeBitrate(ctx context.Context) string {
	bitrate := p.cfg.TranscodeBitrate
	if bitrate != "auto" && bitrate != "" {
		return bitrate
	}

	switch p.cfg.DownloadQuality {
	case "normal":
		return "3"
	case "high":
		return "2"
	case "very_high":
		return "0"
	default:
		premium, err := p.sess.CheckPremium(ctx)
		if nil != err {
			p.channels.Warnings.Warn().Err(err).Msg("Failed to check account subscription, assuming non-premium for transcode bitrate")
			return "2"
		}
		if premium {
			return "0"
		}
		return "2"
	}
}

// Transcode converts the raw downloaded audio into the configured format in
// place. The source is moved aside to a .tmp sibling first so ffmpeg can write
// the target path. A missing ffmpeg binary skips conversion with a warning.
func (p *Processor) Transcode(ctx context.Context, filePath string) error {
	codec := codecMap[strings.ToLower(p.cfg.DownloadFormat)]

	if _, err := exec.LookPath("ffmpeg"); nil != err {
		p.channels.Warnings.Warn().Msgf("SKIPPING %s CONVERSION - FFMPEG NOT FOUND", strings.ToUpper(codec))
		return nil
	}

	tmpPath := filePath + ".tmp"
	if err := os.Rename(filePath, tmpPath); nil != err {
		return fmt.Errorf("failed to move audio file aside for conversion: %v", err)
	}

	args := []string{
		"-y", "-hide_banner", "-loglevel", p.cfg.FFmpegLogLevel,
		"-i", tmpPath,
		"-c:a", codec,
	}
	if codec != "copy" {
		args = append(args, "-q:a", p.transcodeBitrate(ctx))
	}
	args = append(args, filePath)

	p.channels.Progress.Info().Msg("Converting file...")
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); nil != err {
		return fmt.Errorf("%w: %v", ErrConversion, err)
	}

	if err := os.Remove(tmpPath); nil != err && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove conversion source: %v", err)
	}
	return nil
}

func (p *Processor) artistTag(artists []string) string {
	if p.cfg.ArtistDelimiter == "" && len(artists) > 0 {
		return artists[0]
	}
	return strings.Join(artists, p.cfg.ArtistDelimiter)
}

func (p *Processor) genreTag(genres []string) string {
	if len(genres) == 0 {
		return ""
	}
	if !p.cfg.AllGenres {
		return genres[0]
	}
	if p.cfg.GenreDelimiter == "" {
		return genres[0]
	}
	return strings.Join(genres, p.cfg.GenreDelimiter)
}

// WriteTags rewrites the file with its metadata and embedded cover art through
// ffmpeg. The file is moved aside to a .tmp sibling and streamed back with the
// metadata attached.
func (p *Processor) WriteTags(ctx context.Context, filePath string, meta TagMeta) error {
	tmpPath := filePath + ".tmp"
	if err := os.Rename(filePath, tmpPath); nil != err {
		return fmt.Errorf("failed to move audio file aside for tagging: %v", err)
	}

	args := []string{
		"-y", "-hide_banner", "-loglevel", p.cfg.FFmpegLogLevel,
		"-i", tmpPath,
	}

	var coverPath string
	embedCover := len(meta.CoverArt) > 0 && filepath.Ext(filePath) != ".ogg"
	if embedCover {
		coverFile, err := os.CreateTemp(filepath.Dir(filePath), "cover-*.jpg")
		if nil != err {
			return fmt.Errorf("failed to create cover scratch file: %v", err)
		}
		coverPath = coverFile.Name()
		defer func() { _ = os.Remove(coverPath) }()
		if _, err := coverFile.Write(meta.CoverArt); nil != err {
			_ = coverFile.Close()
			return fmt.Errorf("failed to write cover scratch file: %v", err)
		}
		if err := coverFile.Close(); nil != err {
			return fmt.Errorf("failed to close cover scratch file: %v", err)
		}
		args = append(args, "-i", coverPath, "-map", "0:a", "-map", "1:v", "-disposition:v", "attached_pic")
	}

	args = append(args, "-c", "copy")
	for _, kv := range p.metadataPairs(meta) {
		args = append(args, "-metadata", kv)
	}
	args = append(args, filePath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); nil != err {
		// put the untagged file back so the download still lands
		_ = os.Rename(tmpPath, filePath)
		return fmt.Errorf("%w: %v", ErrTagWrite, err)
	}

	if err := os.Remove(tmpPath); nil != err && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove tagging source: %v", err)
	}
	return nil
}

func (p *Processor) metadataPairs(meta TagMeta) []string {
	pairs := []string{
		"title=" + meta.Title,
		"artist=" + p.artistTag(meta.Artists),
		"album=" + meta.AlbumName,
		"album_artist=" + meta.AlbumArtist,
		"date=" + meta.ReleaseYear,
		"genre=" + p.genreTag(meta.Genres),
		"disc=" + strconv.Itoa(meta.DiscNumber),
		"track=" + strconv.Itoa(meta.TrackNumber),
	}
	if meta.Compilation {
		pairs = append(pairs, "compilation=1")
	}
	if p.cfg.DiscTrackTotals {
		pairs = append(pairs, "tracktotal="+strconv.Itoa(meta.TotalTracks))
		if nil != meta.TotalDiscs {
			pairs = append(pairs, "disctotal="+strconv.Itoa(*meta.TotalDiscs))
		}
	}
	if len(meta.Lyrics) > 0 && p.cfg.SaveLyricsTags {
		pairs = append(pairs, "lyrics="+strings.Join(meta.Lyrics, ""))
	}
	return pairs
}

// FetchCover downloads the album cover image, memoized per URL for the run.
func (p *Processor) FetchCover(ctx context.Context, coverURL string) ([]byte, error) {
	item, err := p.caches.Covers.Fetch(coverURL, cache.DefaultCoverTTL, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
		if nil != err {
			return nil, fmt.Errorf("failed to create cover request: %v", err)
		}
		resp, err := p.http.Do(req)
		if nil != err {
			return nil, fmt.Errorf("failed to fetch cover: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected cover response status: %s", resp.Status)
		}
		img, err := io.ReadAll(resp.Body)
		if nil != err {
			return nil, fmt.Errorf("failed to read cover response: %v", err)
		}
		return img, nil
	})
	if nil != err {
		return nil, err
	}
	return item.Value(), nil
}

// SaveCoverFile writes the album art next to the song when the standalone jpg
// option is on. Album-grouped outputs share one cover.jpg per directory, other
// outputs get a per-song jpg. An existing file is kept untouched.
func (p *Processor) SaveCoverFile(img []byte, finalPath string, albumGrouped bool) error {
	if !p.cfg.AlbumArtJPGFile {
		return nil
	}

	name := "cover.jpg"
	if !albumGrouped {
		base := filepath.Base(finalPath)
		name = strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
	}
	jpgPath := filepath.Join(filepath.Dir(finalPath), name)

	if _, err := os.Stat(jpgPath); nil == err {
		return nil
	}
	if err := os.WriteFile(jpgPath, img, 0o0644); nil != err {
		return fmt.Errorf("failed to write album art file: %v", err)
	}
	return nil
}

// WriteLyricsFile stores the fetched lyric lines as an .lrc next to the song,
// or under the configured lyrics directory when one is set.
func (p *Processor) WriteLyricsFile(lines []string, songDir, songName string) error {
	dir := p.cfg.LyricsDir()
	if dir == "" {
		dir = songDir
	}
	lrcPath := filepath.Join(dir, songName+".lrc")
	if err := os.WriteFile(lrcPath, []byte(strings.Join(lines, "")), 0o0644); nil != err {
		return fmt.Errorf("failed to write lyrics file: %v", err)
	}
	return nil
}
