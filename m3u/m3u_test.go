package m3u_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pxrave/zotify/m3u"
)

var launch = time.Date(2023, 5, 1, 12, 30, 45, 0, time.UTC)

const sessionFileName = "2023-05-01_12-30-45_zotify.m3u8"

func TestAddWritesSessionPlaylist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	e := m3u.NewExporter(dir, launch, true, false)

	require.NoError(t, e.Add(215, "The Killers - Mr. Brightside", "/music/a.ogg"))
	require.NoError(t, e.Add(180, "Artist - Other", "/music/b.ogg"))

	data, err := os.ReadFile(filepath.Join(dir, sessionFileName))
	require.NoError(t, err)
	want := "#EXTM3U\n\n" +
		"#EXTINF:215, The Killers - Mr. Brightside\n/music/a.ogg\n\n" +
		"#EXTINF:180, Artist - Other\n/music/b.ogg\n\n"
	require.Equal(t, want, string(data))
}

func TestDisabledExporterWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	e := m3u.NewExporter(dir, launch, false, true)
	require.False(t, e.Enabled())

	require.NoError(t, e.Add(1, "a", "b"))
	require.NoError(t, e.AddLiked(1, "a", "b"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestAddLikedCreatesArchivePlaylist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	e := m3u.NewExporter(dir, launch, true, true)

	// no archive exists yet: both entries land in Liked Songs.m3u8 directly
	require.NoError(t, e.AddLiked(10, "New A", "/m/a.ogg"))
	require.NoError(t, e.AddLiked(20, "New B", "/m/b.ogg"))

	data, err := os.ReadFile(filepath.Join(dir, "Liked Songs.m3u8"))
	require.NoError(t, err)
	want := "#EXTM3U\n\n" +
		"#EXTINF:10, New A\n/m/a.ogg\n\n" +
		"#EXTINF:20, New B\n/m/b.ogg\n\n"
	require.Equal(t, want, string(data))
	require.True(t, e.Enabled())
}

func TestAddLikedMergesIntoExistingArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "Liked Songs.m3u8")
	existing := "#EXTM3U\n\n" +
		"#EXTINF:30, Old A\n/m/olda.ogg\n\n" +
		"#EXTINF:40, Old B\n/m/oldb.ogg\n\n"
	require.NoError(t, os.WriteFile(archivePath, []byte(existing), 0o0644))

	e := m3u.NewExporter(dir, launch, true, true)

	// newest liked song first: goes to the session playlist
	require.NoError(t, e.AddLiked(10, "New A", "/m/newa.ogg"))
	require.True(t, e.Enabled())

	// next track matches the archive head: the run's new songs are merged in
	// front of the old list and the exporter shuts off
	require.NoError(t, e.AddLiked(30, "Old A", "/m/olda.ogg"))
	require.False(t, e.Enabled())

	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	// the appended tail carries no trailing blank line: the archive's stored
	// entries end at the last path line
	want := "#EXTM3U\n\n" +
		"#EXTINF:10, New A\n/m/newa.ogg\n\n" +
		"#EXTINF:30, Old A\n/m/olda.ogg\n\n" +
		"#EXTINF:40, Old B\n/m/oldb.ogg\n"
	require.Equal(t, want, string(data))

	// session playlist was promoted, not left behind
	_, err = os.Stat(filepath.Join(dir, sessionFileName))
	require.True(t, os.IsNotExist(err))

	// a later add is a no-op for the rest of the run
	require.NoError(t, e.AddLiked(40, "Old B", "/m/oldb.ogg"))
	after, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	require.Equal(t, string(data), string(after))
}

func TestAddLikedDifferentDurationDoesNotMerge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "Liked Songs.m3u8")
	existing := "#EXTM3U\n\n#EXTINF:30, Old A\n/m/olda.ogg\n\n"
	require.NoError(t, os.WriteFile(archivePath, []byte(existing), 0o0644))

	e := m3u.NewExporter(dir, launch, true, true)
	require.NoError(t, e.AddLiked(31, "Old A", "/m/olda.ogg"))
	require.True(t, e.Enabled())

	// entry stayed in the session playlist
	data, err := os.ReadFile(filepath.Join(dir, sessionFileName))
	require.NoError(t, err)
	require.Contains(t, string(data), "#EXTINF:31, Old A\n")
}
