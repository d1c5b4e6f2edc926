// Package m3u maintains the extended M3U playlist files a download run
// produces: a per-run session playlist named after the launch timestamp, and
// an optional long-lived Liked Songs playlist that newly liked tracks are
// merged into exactly once per run.
package m3u

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	header            = "#EXTM3U\n\n"
	likedPlaylistName = "Liked Songs.m3u8"
	sessionSuffix     = "_zotify.m3u8"
)

// Exporter appends downloaded tracks to playlist files under a single
// directory. It is stateful across one run: creating the liked playlist marks
// it writable for the rest of the run, and a completed liked merge turns the
// exporter off entirely.
type Exporter struct {
	dir          string
	sessionName  string
	enabled      bool
	likedArchive bool

	likedCreatedThisRun bool
}

func NewExporter(dir string, launch time.Time, enabled, likedArchive bool) *Exporter {
	return &Exporter{
		dir:          dir,
		sessionName:  launch.Format("2006-01-02_15-04-05") + sessionSuffix,
		enabled:      enabled,
		likedArchive: likedArchive,
	}
}

func (e *Exporter) Enabled() bool {
	return e.enabled
}

func (e *Exporter) sessionPath() string {
	return filepath.Join(e.dir, e.sessionName)
}

func (e *Exporter) likedPath() string {
	return filepath.Join(e.dir, likedPlaylistName)
}

// entryLabel is the EXTINF line for one track, trailing newline included.
func entryLabel(durationSeconds int, label string) string {
	return fmt.Sprintf("#EXTINF:%d, %s\n", durationSeconds, label)
}

func appendEntry(filePath, entry, songPath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := os.WriteFile(filePath, []byte(header), 0o0644); nil != err {
			return fmt.Errorf("failed to create playlist file %q: %v", filePath, err)
		}
	}

	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_APPEND, 0o0644)
	if nil != err {
		return fmt.Errorf("failed to open playlist file %q: %v", filePath, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(entry + songPath + "\n\n"); nil != err {
		return fmt.Errorf("failed to append playlist entry: %v", err)
	}
	return nil
}

// readEntries returns the playlist's lines with the leading header pair and
// the trailing blank line stripped, newlines preserved. A missing file reads
// as nil.
func readEntries(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if nil != err {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read playlist file %q: %v", filePath, err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) < 3 {
		return []string{}, nil
	}
	return lines[2 : len(lines)-1], nil
}

// AddLiked records a newly downloaded liked track. Tracks arrive newest first,
// so the first track whose entry matches the head of the existing Liked Songs
// playlist marks the point where the rest of the list is already archived: the
// session playlist replaces the old file, the old entries minus the duplicate
// head are appended back, and the exporter shuts off for the rest of the run.
func (e *Exporter) AddLiked(durationSeconds int, label, songPath string) error {
	if !e.enabled {
		return nil
	}

	if e.likedArchive {
		prior, err := readEntries(e.likedPath())
		if nil != err {
			return err
		}

		if nil == prior || e.likedCreatedThisRun {
			e.likedCreatedThisRun = true
			return appendEntry(e.likedPath(), entryLabel(durationSeconds, label), songPath)
		}

		entry := entryLabel(durationSeconds, label)
		if err := appendEntry(e.sessionPath(), entry, songPath); nil != err {
			return err
		}
		if len(prior) > 0 && strings.Contains(prior[0], entry) {
			return e.mergeLiked(prior)
		}
		return nil
	}

	return e.Add(durationSeconds, label, songPath)
}

func (e *Exporter) mergeLiked(prior []string) error {
	e.enabled = false

	if err := os.Rename(e.sessionPath(), e.likedPath()); nil != err {
		return fmt.Errorf("failed to promote session playlist: %v", err)
	}
	if len(prior) <= 3 {
		return nil
	}

	f, err := os.OpenFile(e.likedPath(), os.O_WRONLY|os.O_APPEND, 0o0644)
	if nil != err {
		return fmt.Errorf("failed to open promoted playlist: %v", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(strings.Join(prior[3:], "")); nil != err {
		return fmt.Errorf("failed to append archived playlist entries: %v", err)
	}
	return nil
}

// Add appends one track to the per-run session playlist.
func (e *Exporter) Add(durationSeconds int, label, songPath string) error {
	if !e.enabled {
		return nil
	}
	return appendEntry(e.sessionPath(), entryLabel(durationSeconds, label), songPath)
}
