// Package outpath expands output filename templates into concrete download
// targets: token substitution with sanitized values, extension selection,
// same-name-different-ID collision renaming, and scratch-directory temp paths.
package outpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pxrave/zotify/config"
	"github.com/pxrave/zotify/spotify"
)

// TemplateContext enumerates the caller-supplied substitutions a batch
// download adds on top of the fixed item fields.
type TemplateContext struct {
	Playlist    string
	PlaylistNum string
	AlbumNum    string
}

// Target is the resolved file layout of one download attempt. TempPath equals
// FinalPath unless a scratch download directory is configured.
type Target struct {
	FinalPath string
	TempPath  string
	Bindings  map[string]string
}

type Resolver struct {
	cfg *config.Config
}

func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve expands the mode's template with the item's fields. Caller-supplied
// context substitutions are applied before the fixed ones; every value passes
// through sanitization first.
func (r *Resolver) Resolve(mode config.Mode, item *spotify.MediaItem, tctx TemplateContext, requestedID string) (*Target, error) {
	tmpl, err := r.cfg.OutputTemplate(mode)
	if nil != err {
		return nil, err
	}

	maxLen := r.cfg.MaxFilenameLength
	bindings := map[string]string{
		"playlist":     Sanitize(tctx.Playlist, maxLen),
		"playlist_num": Sanitize(tctx.PlaylistNum, maxLen),
		"album_num":    Sanitize(tctx.AlbumNum, maxLen),
		"artist":       Sanitize(first(item.Artists), maxLen),
		"album_artist": Sanitize(item.AlbumArtist, maxLen),
		"album":        Sanitize(item.AlbumName, maxLen),
		"song_name":    Sanitize(item.Title, maxLen),
		"release_year": Sanitize(item.ReleaseYear, maxLen),
		"disc_number":  Sanitize(strconv.Itoa(item.DiscNumber), maxLen),
		"track_number": fmt.Sprintf("%02d", item.TrackNumber),
		"total_tracks": Sanitize(strconv.Itoa(item.TotalTracks), maxLen),
		"id":           Sanitize(item.ID, maxLen),
		"track_id":     Sanitize(requestedID, maxLen),
	}

	for _, token := range []string{"playlist", "playlist_num", "album_num"} {
		tmpl = strings.ReplaceAll(tmpl, "{"+token+"}", bindings[token])
	}
	for _, token := range []string{
		"artist", "album_artist", "album", "song_name", "release_year",
		"disc_number", "track_number", "total_tracks", "id", "track_id",
	} {
		tmpl = strings.ReplaceAll(tmpl, "{"+token+"}", bindings[token])
	}

	ext := r.cfg.DownloadExt()
	finalPath := filepath.Join(r.cfg.RootPath, filepath.FromSlash(tmpl)+"."+ext)

	tempPath := finalPath
	if r.cfg.TempDownloadDir != "" {
		tempPath = filepath.Join(
			r.cfg.TempDownloadDir,
			fmt.Sprintf("zotify_%s_%s.%s", uuid.NewString(), requestedID, ext),
		)
	}

	return &Target{
		FinalPath: finalPath,
		TempPath:  tempPath,
		Bindings:  bindings,
	}, nil
}

// RenameForCollision rewrites the final path with an incrementing counter
// suffix derived from how many same-stem files the directory already holds.
// Callers invoke it when the final path is occupied by a different song, so an
// unrelated same-titled track is never silently overwritten while a genuine
// re-download of the same song still lands on the same name.
func RenameForCollision(t *Target) error {
	dir := filepath.Dir(t.FinalPath)
	base := filepath.Base(t.FinalPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	entries, err := os.ReadDir(dir)
	if nil != err {
		return fmt.Errorf("failed to list target directory for collision rename: %v", err)
	}

	var count int
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), stem) {
			count++
		}
	}

	renamed := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, count, ext))
	if t.TempPath == t.FinalPath {
		t.TempPath = renamed
	}
	t.FinalPath = renamed
	return nil
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
