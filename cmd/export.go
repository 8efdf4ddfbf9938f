package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ewhitmore/spotcollect/internal/catalog"
	"github.com/ewhitmore/spotcollect/internal/export"
	"github.com/ewhitmore/spotcollect/internal/formatter"
	"github.com/ewhitmore/spotcollect/internal/selection"
	"github.com/ewhitmore/spotcollect/internal/shared"
)

// ExportRun selects playlists by flag and requests a server-built export.
func (r *Runner) ExportRun(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("playlist")
	all := cmd.Bool("all")

	if !all && len(ids) == 0 {
		return fmt.Errorf("%w: pass --all or at least one --playlist", shared.ErrEmptySelection)
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	loader := r.newLoader()
	if err := loader.LoadCollections(ctx); err != nil {
		return err
	}

	sel := selection.NewSet()
	loader.OnItems(sel.Reconcile)

	var pending []string
	collect := func(id string) { pending = append(pending, id) }

	if all {
		sel.SetAll(loader.Playlists(), true, loader.Tracks, collect)
	} else {
		known := make(map[string]bool)
		for _, p := range loader.Playlists() {
			known[p.ID] = true
		}
		for _, id := range ids {
			if !known[id] {
				return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
			}
			sel.SetPlaylist(id, true, loader.Tracks, collect)
		}
	}

	if all && len(pending) > 0 {
		progress := make(chan catalog.ProgressUpdate, len(pending))
		done := make(chan struct{})
		go func() {
			defer close(done)
			for update := range progress {
				r.writePlain("%s\n", update.Message)
			}
		}()

		err := loader.PrefetchAll(ctx, progress)
		close(progress)
		<-done
		if err != nil {
			return err
		}
	} else {
		for _, id := range pending {
			if err := loader.LoadItems(ctx, id); err != nil {
				return err
			}
		}
	}

	format := cmd.String("format")
	if format == "" {
		format = r.config.Export.Format
	}
	outputDir := cmd.String("output")
	if outputDir == "" {
		outputDir = shared.ExpandPath(r.config.Export.OutputDir)
	}

	requester := export.NewRequester(r.api, loader, sel, outputDir, r.logger)

	result, err := requester.Download(ctx, format)
	if err != nil {
		return err
	}

	return r.reportExport(result)
}

// PublicInfo shows a public playlist and its tracks without authentication.
func (r *Runner) PublicInfo(ctx context.Context, cmd *cli.Command) error {
	playlistURL := cmd.StringArg("url")
	if playlistURL == "" {
		return fmt.Errorf("%w: playlist url", shared.ErrMissingArgument)
	}

	session, err := export.NewPublicSession(ctx, r.api, playlistURL, r.logger)
	if err != nil {
		return err
	}

	return r.render(cmd.String("format"), session.Playlist(), session.Tracks())
}

// PublicGet downloads a public playlist export without authentication.
func (r *Runner) PublicGet(ctx context.Context, cmd *cli.Command) error {
	playlistURL := cmd.StringArg("url")
	if playlistURL == "" {
		return fmt.Errorf("%w: playlist url", shared.ErrMissingArgument)
	}

	session, err := export.NewPublicSession(ctx, r.api, playlistURL, r.logger)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if format == "" {
		format = r.config.Export.Format
	}
	outputDir := cmd.String("output")
	if outputDir == "" {
		outputDir = shared.ExpandPath(r.config.Export.OutputDir)
	}

	result, err := session.Download(ctx, format, outputDir)
	if err != nil {
		return err
	}

	return r.reportExport(result)
}

// reportExport prints the saved file, any skipped tracks, and quota usage.
func (r *Runner) reportExport(result *export.Result) error {
	r.writePlain("✓ Export saved to %s (%d bytes)\n", result.Path, result.Size)

	if report := formatter.RenderSkippedReport(result.Skipped); len(report) > 0 {
		r.writePlain("%s", report)
	}

	if result.Quota != nil {
		r.writePlain("%s\n", formatter.RenderQuota(*result.Quota))
	}

	return nil
}
