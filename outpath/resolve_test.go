package outpath_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pxrave/zotify/config"
	"github.com/pxrave/zotify/outpath"
	"github.com/pxrave/zotify/spotify"
)

func testItem() *spotify.MediaItem {
	//nolint:exhaustruct
	return &spotify.MediaItem{
		ID:          "3n3Ppam7vgaVa1iaRUc9Lp",
		Kind:        spotify.KindTrack,
		Title:       "Mr. Brightside",
		Artists:     []string{"The Killers", "Someone Else"},
		AlbumName:   "Hot Fuss",
		AlbumArtist: "The Killers",
		ReleaseYear: "2004",
		DiscNumber:  1,
		TrackNumber: 2,
		TotalTracks: 11,
	}
}

func TestResolveSingleTemplate(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.RootPath = t.TempDir()
	cfg.DownloadFormat = "copy"

	r := outpath.NewResolver(&cfg)
	target, err := r.Resolve(config.ModeSingle, testItem(), outpath.TemplateContext{}, "3n3Ppam7vgaVa1iaRUc9Lp") //nolint:exhaustruct
	require.NoError(t, err)

	want := filepath.Join(cfg.RootPath, "The Killers", "Hot Fuss", "The Killers - Mr. Brightside.ogg")
	require.Equal(t, want, target.FinalPath)
	require.Equal(t, target.FinalPath, target.TempPath)
}

func TestResolveSubstitutesAllTokens(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.RootPath = t.TempDir()
	cfg.Output = "{playlist}/{playlist_num}/{album_num}/{artist}/{album_artist}/{album}/{song_name}/{release_year}/{disc_number}/{track_number}/{total_tracks}/{id}/{track_id}"

	r := outpath.NewResolver(&cfg)
	tctx := outpath.TemplateContext{Playlist: "My Mix", PlaylistNum: "7", AlbumNum: "03"}
	target, err := r.Resolve(config.ModePlaylist, testItem(), tctx, "requested00000000000000")
	require.NoError(t, err)

	rel, err := filepath.Rel(cfg.RootPath, target.FinalPath)
	require.NoError(t, err)
	parts := strings.Split(rel, string(filepath.Separator))
	require.Equal(t, []string{
		"My Mix", "7", "03",
		"The Killers", "The Killers", "Hot Fuss", "Mr. Brightside",
		"2004", "1", "02", "11",
		"3n3Ppam7vgaVa1iaRUc9Lp", "requested00000000000000.ogg",
	}, parts)
}

func TestResolveSplitAlbumDiscs(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.RootPath = t.TempDir()
	cfg.SplitAlbumDiscs = true

	r := outpath.NewResolver(&cfg)
	target, err := r.Resolve(config.ModeSingle, testItem(), outpath.TemplateContext{}, "x") //nolint:exhaustruct
	require.NoError(t, err)
	require.Contains(t, target.FinalPath, filepath.Join("Hot Fuss", "Disc 1"))
}

func TestResolveTempDownloadDir(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.RootPath = t.TempDir()
	cfg.TempDownloadDir = t.TempDir()

	r := outpath.NewResolver(&cfg)
	target, err := r.Resolve(config.ModeSingle, testItem(), outpath.TemplateContext{}, "3n3Ppam7vgaVa1iaRUc9Lp") //nolint:exhaustruct
	require.NoError(t, err)

	require.NotEqual(t, target.FinalPath, target.TempPath)
	require.Equal(t, cfg.TempDownloadDir, filepath.Dir(target.TempPath))
	base := filepath.Base(target.TempPath)
	require.True(t, strings.HasPrefix(base, "zotify_"), "temp name %q", base)
	require.True(t, strings.HasSuffix(base, "_3n3Ppam7vgaVa1iaRUc9Lp.ogg"), "temp name %q", base)
}

func TestRenameForCollision(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stem := "The Killers - Mr. Brightside"
	require.NoError(t, os.WriteFile(filepath.Join(dir, stem+".ogg"), []byte("a"), 0o0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, stem+"_1.ogg"), []byte("b"), 0o0644))

	target := &outpath.Target{
		FinalPath: filepath.Join(dir, stem+".ogg"),
		TempPath:  filepath.Join(dir, stem+".ogg"),
		Bindings:  nil,
	}
	require.NoError(t, outpath.RenameForCollision(target))
	require.Equal(t, filepath.Join(dir, stem+"_2.ogg"), target.FinalPath)
	require.Equal(t, target.FinalPath, target.TempPath)
}

func TestRenameForCollisionKeepsSeparateTempPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.ogg"), []byte("a"), 0o0644))

	tempPath := filepath.Join(t.TempDir(), "zotify_x_y.ogg")
	target := &outpath.Target{
		FinalPath: filepath.Join(dir, "song.ogg"),
		TempPath:  tempPath,
		Bindings:  nil,
	}
	require.NoError(t, outpath.RenameForCollision(target))
	require.Equal(t, filepath.Join(dir, "song_1.ogg"), target.FinalPath)
	require.Equal(t, tempPath, target.TempPath)
}
