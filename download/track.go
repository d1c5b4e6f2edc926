package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xeptore/flaw/v8"

	"github.com/pxrave/zotify/archive"
	"github.com/pxrave/zotify/config"
	"github.com/pxrave/zotify/errutil"
	"github.com/pxrave/zotify/log"
	"github.com/pxrave/zotify/outpath"
	"github.com/pxrave/zotify/progress"
	"github.com/pxrave/zotify/ratelimit"
	"github.com/pxrave/zotify/session"
	"github.com/pxrave/zotify/spotify"
)

// Track downloads a single track requested under the given mode.
func (d *Downloader) Track(ctx context.Context, mode config.Mode, trackID string, tctx outpath.TemplateContext, totalDiscs *int, parent *progress.Node) error {
	return d.downloadTrack(ctx, mode, trackID, tctx, totalDiscs, parent, nil)
}

// downloadTrack runs the full per-track pipeline. origin is non-nil when the
// call comes from an album iteration; a nil origin marks a direct request,
// which is the only case eligible for the parent-album redirect. All per-item
// failures are logged and swallowed so batches keep going; the returned error
// is reserved for context cancellation.
func (d *Downloader) downloadTrack(
	ctx context.Context,
	mode config.Mode,
	trackID string,
	tctx outpath.TemplateContext,
	totalDiscs *int,
	parent *progress.Node,
	origin *trackRequest,
) error {
	d.channels.Progress.Info().Msg("Preparing download...")

	item, err := d.client.Track(ctx, trackID)
	if nil != err {
		if isContextErr(err) {
			return err
		}
		d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING SONG - FAILED TO QUERY METADATA - Track_ID: %s   ###", trackID)
		return nil
	}

	if nil == origin {
		origin = &trackRequest{mode: mode, trackID: trackID}

		if d.cfg.DownloadParentAlbum && item.AlbumID != "" && item.TotalTracks > 1 {
			// the whole album is fetched with the album template, but playlist
			// export behaves as if only the requested track was downloaded
			return d.downloadAlbum(ctx, item.AlbumID, parent, origin)
		}
	}

	if nil != totalDiscs {
		item.TotalDiscs = totalDiscs
	}
	songName := outpath.Sanitize(firstOr(item.Artists, ""), 0) + " - " + outpath.Sanitize(item.Title, 0)

	target, err := d.resolver.Resolve(mode, item, tctx, trackID)
	if nil != err {
		d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING: %s (GENERAL DOWNLOAD ERROR) - Track_ID: %s   ###", songName, trackID)
		return nil
	}

	signals, err := d.archives.Signals(target.FinalPath, item.ID)
	if nil != err {
		d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING: %s (GENERAL DOWNLOAD ERROR) - Track_ID: %s   ###", songName, trackID)
		return nil
	}

	// same filename holding a different song: rename the newcomer
	if !signals.Local && signals.Name {
		if err := outpath.RenameForCollision(target); nil != err {
			d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING: %s (GENERAL DOWNLOAD ERROR) - Track_ID: %s   ###", songName, trackID)
			return nil
		}
	}

	if d.exporter.Enabled() && trackID == origin.trackID {
		if err := d.exportPlaylistEntry(ctx, origin.mode, trackID, songName, target.FinalPath); nil != err {
			if isContextErr(err) {
				return err
			}
			d.channels.Errors.Error().Func(log.Flaw(err)).Msg("Failed to update playlist file")
		}
	}

	var lyrics []string
	if d.cfg.DownloadLyrics && d.cfg.AlwaysCheckLyrics {
		lyrics = d.handleLyrics(ctx, trackID, songName, filepath.Dir(target.FinalPath))
	}

	if !item.Playable {
		d.channels.Skips.Info().Msgf("###   SKIPPING: %q (SONG IS UNAVAILABLE)   ###", songName)
		return nil
	}

	switch d.archives.Decide(signals) {
	case archive.SkipExists:
		d.channels.Skips.Info().Msgf("###   SKIPPING: %q (SONG ALREADY EXISTS)   ###", songName)
		return nil
	case archive.SkipDownloadedOnce:
		d.channels.Skips.Info().Msgf("###   SKIPPING: %q (SONG ALREADY DOWNLOADED ONCE)   ###", songName)
		return nil
	case archive.Proceed:
	}

	if err := d.fetchAndFinalize(ctx, mode, item, songName, target, signals, lyrics, parent); nil != err {
		if isContextErr(err) {
			return err
		}
		d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING: %s (GENERAL DOWNLOAD ERROR) - Track_ID: %s   ###", songName, trackID)
		if removeErr := os.Remove(target.TempPath); nil != removeErr && !os.IsNotExist(removeErr) {
			d.channels.Errors.Error().Err(removeErr).Msg("Failed to delete leftover temp file")
		}
		return nil
	}

	ratelimit.BulkWait(d.cfg.BulkWaitTime)
	return nil
}

// fetchAndFinalize acquires the audio stream into the temp file and runs the
// post-download pipeline: genres, lyrics, conversion, tagging, the rename to
// the final path, and archive recording.
func (d *Downloader) fetchAndFinalize(
	ctx context.Context,
	mode config.Mode,
	item *spotify.MediaItem,
	songName string,
	target *outpath.Target,
	signals archive.Signals,
	lyrics []string,
	parent *progress.Node,
) error {
	stream, err := d.sess.ContentStream(ctx, item.ID, session.Quality(d.cfg.DownloadQuality))
	if nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to obtain content stream: %v", err)).Append(item.FlawP(), flawP)
	}
	defer func() { _ = stream.Close() }()

	dir := filepath.Dir(target.FinalPath)
	if err := d.archives.EnsureDirectoryStore(dir); nil != err {
		return err
	}

	timeStart := time.Now()
	if err := d.acquire(ctx, stream, target.TempPath, item.DurationMS, songName, parent); nil != err {
		return err
	}
	timeDownloaded := time.Now()

	genres, err := d.songGenres(ctx, item, songName)
	if nil != err {
		return err
	}

	if d.cfg.DownloadLyrics && !d.cfg.AlwaysCheckLyrics {
		lyrics = d.handleLyrics(ctx, item.ID, songName, dir)
	}

	// no metadata is written prior to conversion
	if err := d.post.Transcode(ctx, target.TempPath); nil != err {
		return err
	}

	if err := d.writeTags(ctx, mode, item, genres, lyrics, target); nil != err {
		d.channels.Errors.Error().Func(log.Flaw(err)).Msg("Unable to write metadata, ensure FFMPEG is installed and added to your PATH.")
	}

	if target.TempPath != target.FinalPath {
		if err := os.Remove(target.FinalPath); nil != err && !os.IsNotExist(err) {
			return flaw.From(fmt.Errorf("failed to delete stale file at final path: %v", err)).Append(flaw.P{"path": target.FinalPath})
		}
		if err := os.Rename(target.TempPath, target.FinalPath); nil != err {
			return flaw.From(fmt.Errorf("failed to move temp file to final path: %v", err)).Append(flaw.P{"temp": target.TempPath, "final": target.FinalPath})
		}
	}
	timeFinished := time.Now()

	relPath, err := filepath.Rel(d.cfg.RootPath, target.FinalPath)
	if nil != err {
		relPath = target.FinalPath
	}
	d.channels.Downloads.Info().Msgf(
		"###   DOWNLOADED: %q TO %q IN %s (PLUS %s CONVERTING)   ###",
		songName,
		relPath,
		fmtSeconds(timeDownloaded.Sub(timeStart).Seconds()),
		fmtSeconds(timeFinished.Sub(timeDownloaded).Seconds()),
	)

	entry := archive.Entry{
		SongID:     item.ID,
		Timestamp:  time.Now(),
		AuthorName: firstOr(item.Artists, ""),
		Title:      item.Title,
		Filename:   filepath.Base(target.FinalPath),
	}
	return d.archives.Record(dir, entry, signals)
}

// acquire reads the stream in fixed-size chunks into the temp file. An empty
// read marks end of stream. With real-time pacing the loop sleeps after each
// chunk so the transfer never outruns playback speed.
func (d *Downloader) acquire(ctx context.Context, stream session.ContentStream, tempPath string, durationMS int, songName string, parent *progress.Node) (err error) {
	f, err := os.Create(tempPath)
	if nil != err {
		return flaw.From(fmt.Errorf("failed to create temp file: %v", err)).Append(flaw.P{"path": tempPath})
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr && nil == err {
			err = flaw.From(fmt.Errorf("failed to close temp file: %v", closeErr)).Append(flaw.P{"path": tempPath})
		}
	}()

	totalSize := stream.Size()
	if totalSize > 0 {
		d.channels.Progress.Info().Msgf("Downloading %q (%s)", songName, humanize.Bytes(uint64(totalSize)))
	}
	bar := progress.NewByteNode(parent, d.cfg.PrintDownloadProgress, totalSize, songName)
	defer bar.Close()

	var (
		downloaded int64
		timeStart  = time.Now()
		buf        = make([]byte, d.cfg.ChunkSize)
	)
	for {
		if errutil.IsContext(ctx) {
			return ctx.Err()
		}

		n, readErr := stream.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); nil != err {
				return flaw.From(fmt.Errorf("failed to write chunk to temp file: %v", err)).Append(flaw.P{"path": tempPath})
			}
			downloaded += int64(n)
			bar.Add(n)
		}
		if nil != readErr {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return flaw.From(fmt.Errorf("failed to read content stream chunk: %v", readErr)).Append(flaw.P{"downloaded": downloaded, "total_size": totalSize})
		}
		if n == 0 {
			return nil
		}

		if d.cfg.DownloadRealTime {
			if delay := ratelimit.PacingDelay(downloaded, totalSize, durationMS, time.Since(timeStart)); delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}
		}
	}
}

// songGenres resolves the genre list when genre tagging is enabled. An empty
// result degrades to a single empty genre with a warning.
func (d *Downloader) songGenres(ctx context.Context, item *spotify.MediaItem, songName string) ([]string, error) {
	if !d.cfg.SaveGenres {
		return []string{""}, nil
	}

	genres, err := d.client.ArtistGenres(ctx, item.ArtistHrefs, d.cfg.AllGenres, d.caches)
	if nil != err {
		return nil, err
	}
	if len(genres) == 0 {
		d.channels.Warnings.Warn().Msgf("No Genres found for song %s", songName)
		genres = []string{""}
	}
	return genres, nil
}

// handleLyrics fetches and stores the track's lyrics, returning the lines for
// tag embedding. Unavailable lyrics only produce a skip message.
func (d *Downloader) handleLyrics(ctx context.Context, trackID, songName, songDir string) []string {
	lines, err := d.client.Lyrics(ctx, trackID)
	if nil != err {
		if errors.Is(err, spotify.ErrLyricsUnavailable) {
			d.channels.Skips.Info().Msgf("###   SKIPPING: LYRICS FOR %q (LYRICS NOT AVAILABLE)   ###", songName)
		} else {
			d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("Failed to fetch lyrics for %q", songName)
		}
		return nil
	}

	if err := d.post.WriteLyricsFile(lines, songDir, songName); nil != err {
		d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("Failed to write lyrics file for %q", songName)
		return nil
	}
	return lines
}

func (d *Downloader) writeTags(ctx context.Context, mode config.Mode, item *spotify.MediaItem, genres, lyrics []string, target *outpath.Target) error {
	var cover []byte
	if item.CoverURL != "" {
		img, err := d.post.FetchCover(ctx, item.CoverURL)
		if nil != err {
			return err
		}
		cover = img
	}

	meta := tagMetaOf(item, genres, lyrics, cover)
	if err := d.post.WriteTags(ctx, target.TempPath, meta); nil != err {
		return err
	}

	albumGrouped := false
	if tmpl, err := d.cfg.OutputTemplate(mode); nil == err {
		albumGrouped = strings.Contains(tmpl, "{album}")
	}
	return d.post.SaveCoverFile(cover, target.FinalPath, albumGrouped)
}

// exportPlaylistEntry appends the track to the run's playlist file, routing
// liked-mode downloads through the liked archive merge.
func (d *Downloader) exportPlaylistEntry(ctx context.Context, mode config.Mode, trackID, songName, finalPath string) error {
	duration, err := d.client.TrackDurationSeconds(ctx, trackID)
	if nil != err {
		return err
	}

	if mode == config.ModeLiked {
		return d.exporter.AddLiked(int(duration), songName, finalPath)
	}
	return d.exporter.Add(int(duration), songName, finalPath)
}

func firstOr(s []string, fallback string) string {
	if len(s) == 0 {
		return fallback
	}
	return s[0]
}
