package download

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pxrave/zotify/config"
	"github.com/pxrave/zotify/log"
	"github.com/pxrave/zotify/outpath"
	"github.com/pxrave/zotify/progress"
)

// Album downloads every track of an album in order.
func (d *Downloader) Album(ctx context.Context, albumID string, parent *progress.Node) error {
	return d.downloadAlbum(ctx, albumID, parent, nil)
}

// downloadAlbum iterates the album's tracks sequentially. A non-nil origin
// marks a parent-album redirect: the album template is used for every file,
// but only the originally requested track behaves as requested for playlist
// export.
func (d *Downloader) downloadAlbum(ctx context.Context, albumID string, parent *progress.Node, origin *trackRequest) error {
	album, err := d.client.AlbumDetails(ctx, albumID)
	if nil != err {
		if isContextErr(err) {
			return err
		}
		d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING ALBUM - FAILED TO QUERY METADATA - Album_ID: %s   ###", albumID)
		return nil
	}

	node := progress.NewCountNode(parent, d.cfg.PrintAlbumProgress, len(album.TrackIDs), "Song", album.Name)
	defer node.Close()

	totalDiscs := album.TotalDiscs
	for i, trackID := range album.TrackIDs {
		trackOrigin := origin
		if nil == trackOrigin {
			trackOrigin = &trackRequest{mode: config.ModeAlbum, trackID: trackID}
		}
		tctx := outpath.TemplateContext{AlbumNum: fmt.Sprintf("%02d", i+1)} //nolint:exhaustruct
		if err := d.downloadTrack(ctx, config.ModeAlbum, trackID, tctx, &totalDiscs, node, trackOrigin); nil != err {
			return err
		}
		node.Step()
	}
	return nil
}

// Playlist downloads every track of a playlist in order under the given
// playlist mode.
func (d *Downloader) Playlist(ctx context.Context, mode config.Mode, playlistID string, parent *progress.Node) error {
	playlist, err := d.client.PlaylistDetails(ctx, playlistID)
	if nil != err {
		if isContextErr(err) {
			return err
		}
		d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING PLAYLIST - FAILED TO QUERY METADATA - Playlist_ID: %s   ###", playlistID)
		return nil
	}

	node := progress.NewCountNode(parent, d.cfg.PrintPlaylistProgress, len(playlist.TrackIDs), "Song", playlist.Name)
	defer node.Close()

	for i, trackID := range playlist.TrackIDs {
		tctx := outpath.TemplateContext{ //nolint:exhaustruct
			Playlist:    playlist.Name,
			PlaylistNum: strconv.Itoa(i + 1),
		}
		if err := d.downloadTrack(ctx, mode, trackID, tctx, nil, node, nil); nil != err {
			return err
		}
		node.Step()
	}
	return nil
}

// Artist downloads every album and single of an artist.
func (d *Downloader) Artist(ctx context.Context, artistID string, parent *progress.Node) error {
	albums, err := d.client.ArtistAlbums(ctx, artistID)
	if nil != err {
		if isContextErr(err) {
			return err
		}
		d.channels.Errors.Error().Func(log.Flaw(err)).Msgf("###   SKIPPING ARTIST - FAILED TO QUERY METADATA - Artist_ID: %s   ###", artistID)
		return nil
	}

	node := progress.NewCountNode(parent, d.cfg.PrintArtistProgress, len(albums), "Album", "Albums")
	defer node.Close()

	for _, album := range albums {
		if err := d.Album(ctx, album.ID, node); nil != err {
			return err
		}
		node.SetDescription(album.Name)
		node.Step()
	}
	return nil
}

// Liked downloads the account's saved tracks, newest first, under the liked
// songs template.
func (d *Downloader) Liked(ctx context.Context) error {
	ids, err := d.client.SavedTracks(ctx)
	if nil != err {
		if isContextErr(err) {
			return err
		}
		d.channels.Errors.Error().Func(log.Flaw(err)).Msg("###   SKIPPING LIKED SONGS - FAILED TO QUERY METADATA   ###")
		return nil
	}

	node := progress.NewCountNode(nil, d.cfg.PrintPlaylistProgress, len(ids), "Song", "Liked Songs")
	defer node.Close()

	for _, trackID := range ids {
		if err := d.downloadTrack(ctx, config.ModeLiked, trackID, outpath.TemplateContext{}, nil, node, nil); nil != err { //nolint:exhaustruct
			return err
		}
		node.Step()
	}
	return nil
}

// Followed downloads the discography of every artist the account follows.
func (d *Downloader) Followed(ctx context.Context) error {
	artists, err := d.client.FollowedArtists(ctx)
	if nil != err {
		if isContextErr(err) {
			return err
		}
		d.channels.Errors.Error().Func(log.Flaw(err)).Msg("###   SKIPPING FOLLOWED ARTISTS - FAILED TO QUERY METADATA   ###")
		return nil
	}

	for _, artist := range artists {
		d.channels.Progress.Info().Msgf("Downloading albums of %s", artist.Name)
		if err := d.Artist(ctx, artist.ID, nil); nil != err {
			return err
		}
	}
	return nil
}
