package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ewhitmore/spotcollect/internal/formatter"
	"github.com/ewhitmore/spotcollect/internal/shared"
)

// CacheShow prints cached playlists and the latest quota snapshot.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	cache := r.openCache()
	if cache == nil {
		return fmt.Errorf("%w: catalog cache", shared.ErrServiceUnavailable)
	}

	playlists, err := cache.Playlists().List(map[string]any{})
	if err != nil {
		return err
	}

	if len(playlists) == 0 {
		r.writePlain("Cache is empty\n")
		return nil
	}

	for _, p := range playlists {
		tracks, err := cache.Tracks().ListForPlaylist(p.Playlist.ID)
		if err != nil {
			return err
		}
		r.writePlain("%s  %s (%d tracks cached, fetched %s)\n",
			p.Playlist.ID, p.Name, len(tracks), p.FetchedAt.Format("2006-01-02 15:04"))
	}

	quota, err := cache.LatestQuota()
	if err != nil {
		return err
	}
	if quota != nil {
		r.writePlainln("%s", formatter.RenderQuota(*quota))
	}

	return nil
}

// CacheClear deletes all cached catalog data.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	cache := r.openCache()
	if cache == nil {
		return fmt.Errorf("%w: catalog cache", shared.ErrServiceUnavailable)
	}

	if err := cache.Clear(); err != nil {
		return err
	}

	r.writePlain("✓ Cache cleared\n")
	return nil
}
