package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xeptore/flaw/v8"

	"github.com/pxrave/zotify/errutil"
	"github.com/pxrave/zotify/log"
	"github.com/pxrave/zotify/outpath"
	"github.com/pxrave/zotify/progress"
	"github.com/pxrave/zotify/ratelimit"
	"github.com/pxrave/zotify/session"
)

// Show downloads every episode of a show in order.
func (d *Downloader) Show(ctx context.Context, showID string, parent *progress.Node) error {
	episodeIDs, err := d.client.ShowEpisodes(ctx, showID)
	if nil != err {
		if isContextErr(err) {
			return err
		}
		d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING SHOW - FAILED TO QUERY METADATA - Show_ID: %s   ###", showID)
		return nil
	}

	node := progress.NewCountNode(parent, d.cfg.PrintPlaylistProgress, len(episodeIDs), "Episode", "Episodes")
	defer node.Close()

	for _, episodeID := range episodeIDs {
		name, err := d.Episode(ctx, episodeID, node)
		if nil != err {
			return err
		}
		if name != "" {
			node.SetDescription(name)
		}
		node.Step()
	}
	return nil
}

// Episode downloads one podcast episode. Episodes served by the provider's
// anonymous CDN only stream through the session; everything else is a plain
// HTTP download of the direct URL. Returns the episode name for display.
func (d *Downloader) Episode(ctx context.Context, episodeID string, parent *progress.Node) (string, error) {
	d.channels.Progress.Info().Msg("Preparing download...")

	episode, err := d.client.EpisodeInfo(ctx, episodeID)
	if nil != err {
		if isContextErr(err) {
			return "", err
		}
		d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING EPISODE - FAILED TO QUERY METADATA - Episode_ID: %s   ###", episodeID)
		return "", nil
	}

	showName := outpath.Sanitize(episode.ShowName, d.cfg.MaxFilenameLength)
	episodeName := outpath.Sanitize(episode.Name, d.cfg.MaxFilenameLength)
	baseName := showName + " - " + episodeName

	directURL, direct, err := d.client.EpisodeDirectURL(ctx, episodeID)
	if nil != err {
		if isContextErr(err) {
			return "", err
		}
		d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING EPISODE - FAILED TO RESOLVE DOWNLOAD URL - Episode_ID: %s   ###", episodeID)
		return episodeName, nil
	}

	dir := filepath.Join(d.cfg.RootPodcastPath, showName)
	if err := os.MkdirAll(dir, 0o0755); nil != err {
		d.channels.Errors.Error().Err(err).Msg("Failed to create podcast directory")
		return episodeName, nil
	}

	if direct {
		filePath := filepath.Join(dir, baseName+".mp3")
		if err := d.downloadEpisodeDirectly(ctx, directURL, filePath, baseName, parent); nil != err {
			if isContextErr(err) {
				return "", err
			}
			d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING EPISODE - DOWNLOAD FAILED - Episode_ID: %s   ###", episodeID)
			return episodeName, nil
		}
		ratelimit.BulkWait(d.cfg.BulkWaitTime)
		return episodeName, nil
	}

	if err := d.downloadEpisodeStream(ctx, episode.ID, episode.DurationMS, dir, baseName, parent); nil != err {
		if isContextErr(err) {
			return "", err
		}
		d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING EPISODE - DOWNLOAD FAILED - Episode_ID: %s   ###", episodeID)
	}
	return episodeName, nil
}

// downloadEpisodeStream pulls the episode audio through the session stream in
// chunks, with the same empty-read termination and optional pacing as track
// downloads. A same-size existing file is skipped under skip_existing.
func (d *Downloader) downloadEpisodeStream(ctx context.Context, episodeID string, durationMS int, dir, baseName string, parent *progress.Node) error {
	stream, err := d.sess.ContentStream(ctx, episodeID, session.Quality(d.cfg.DownloadQuality))
	if nil != err {
		d.channels.Errors.Error().Err(err).Msgf("###   SKIPPING EPISODE - FAILED TO GET CONTENT STREAM - Episode_ID: %s   ###", episodeID)
		return nil
	}
	defer func() { _ = stream.Close() }()

	filePath := filepath.Join(dir, baseName+".ogg")
	if st, statErr := os.Stat(filePath); nil == statErr && st.Size() == stream.Size() && d.cfg.SkipExisting {
		d.channels.Skips.Info().Msgf("###   SKIPPING: %q (EPISODE ALREADY EXISTS)   ###", baseName)
		return nil
	}

	if err := d.acquire(ctx, stream, filePath, durationMS, baseName, parent); nil != err {
		if removeErr := os.Remove(filePath); nil != removeErr && !os.IsNotExist(removeErr) {
			d.channels.Errors.Error().Err(removeErr).Msg("Failed to delete partial episode file")
		}
		return err
	}

	ratelimit.BulkWait(d.cfg.BulkWaitTime)
	return nil
}

// downloadEpisodeDirectly fetches a directly hosted episode with a plain HTTP
// GET. No pacing applies; a content-length transfer has no playback-speed
// reference.
func (d *Downloader) downloadEpisodeDirectly(ctx context.Context, downloadURL, filePath, baseName string, parent *progress.Node) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if nil != err {
		return flaw.From(fmt.Errorf("failed to create episode request: %v", err))
	}

	resp, err := d.http.Do(req)
	if nil != err {
		return flaw.From(fmt.Errorf("failed to fetch episode: %v", err)).Append(flaw.P{"url": downloadURL})
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return flaw.From(fmt.Errorf("unexpected episode response status: %s", resp.Status)).
			Append(flaw.P{"url": downloadURL, "response": errutil.HTTPResponseFlawPayload(resp)})
	}

	f, err := os.Create(filePath)
	if nil != err {
		return flaw.From(fmt.Errorf("failed to create episode file: %v", err)).Append(flaw.P{"path": filePath})
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr && nil == err {
			err = flaw.From(fmt.Errorf("failed to close episode file: %v", closeErr)).Append(flaw.P{"path": filePath})
		}
		if nil != err {
			_ = os.Remove(filePath)
		}
	}()

	desc := baseName
	if resp.ContentLength > 0 {
		d.channels.Progress.Info().Msgf("Downloading %q (%s)", baseName, humanize.Bytes(uint64(resp.ContentLength)))
	} else {
		desc = strings.TrimSpace(baseName + " (Unknown total file size)")
	}
	bar := progress.NewByteNode(parent, d.cfg.PrintDownloadProgress, resp.ContentLength, desc)
	defer bar.Close()

	start := time.Now()
	written, err := io.Copy(io.MultiWriter(f, bar), resp.Body)
	if nil != err {
		return flaw.From(fmt.Errorf("failed to write episode body: %v", err)).Append(flaw.P{"path": filePath, "written": written})
	}

	d.channels.Downloads.Info().Msgf(
		"###   DOWNLOADED: %q IN %s   ###",
		baseName,
		fmtSeconds(time.Since(start).Seconds()),
	)
	return nil
}
