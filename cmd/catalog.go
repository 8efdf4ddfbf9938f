package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ewhitmore/spotcollect/internal/auth"
	"github.com/ewhitmore/spotcollect/internal/formatter"
	"github.com/ewhitmore/spotcollect/internal/models"
	"github.com/ewhitmore/spotcollect/internal/shared"
)

// PlaylistsList lists the authenticated user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	loader := r.newLoader()
	if err := loader.LoadCollections(ctx); err != nil {
		return err
	}

	playlists := loader.Playlists()

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	for _, p := range playlists {
		r.writePlain("%s  %s (%d tracks)\n", p.ID, p.Name, p.TrackCount)
	}

	if quota := loader.Quota(); quota != nil {
		r.writePlainln("%s", formatter.RenderQuota(*quota))
	}

	return nil
}

// PlaylistTracks lists a playlist's tracks in the requested format.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	loader := r.newLoader()
	if err := loader.LoadCollections(ctx); err != nil {
		return err
	}
	if err := loader.LoadItems(ctx, playlistID); err != nil {
		return err
	}

	tracks, _ := loader.Tracks(playlistID)

	playlist := models.Playlist{ID: playlistID, TrackCount: len(tracks)}
	for _, p := range loader.Playlists() {
		if p.ID == playlistID {
			playlist = p
			break
		}
	}

	return r.render(cmd.String("format"), playlist, tracks)
}

// AlbumsList lists the authenticated user's saved albums.
func (r *Runner) AlbumsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	albums, quota, err := r.api.Albums(ctx)
	if err != nil {
		return err
	}
	r.session.SetQuota(quota)

	if cmd.Bool("json") {
		return r.writeJSON(albums, cmd.Bool("pretty"))
	}

	for _, a := range albums {
		r.writePlain("%s  %s (%d tracks)\n", a.ID, a.Name, a.TrackCount)
	}

	return nil
}

// AlbumTracks lists an album's tracks in the requested format.
func (r *Runner) AlbumTracks(ctx context.Context, cmd *cli.Command) error {
	albumID := cmd.StringArg("id")
	if albumID == "" {
		return fmt.Errorf("%w: album id", shared.ErrMissingArgument)
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	tracks, quota, err := r.api.AlbumTracks(ctx, albumID)
	if err != nil {
		return err
	}
	r.session.SetQuota(quota)

	album := models.Playlist{ID: albumID, TrackCount: len(tracks)}
	return r.render(cmd.String("format"), album, tracks)
}

// requireSession runs the entry protocol and fails when no live session
// comes out of it.
func (r *Runner) requireSession(ctx context.Context) error {
	if r.bootstrap(ctx) != auth.StateAuthenticated {
		msg := r.session.Message()
		if msg == "" {
			msg = "run 'spotcollect auth login' first"
		}
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, msg)
	}
	return nil
}

// render writes a playlist's tracks through the formatter.
func (r *Runner) render(format string, playlist models.Playlist, tracks []models.Track) error {
	data, err := formatter.Render(format, playlist, tracks)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}
