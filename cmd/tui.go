package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/ewhitmore/spotcollect/internal/export"
	"github.com/ewhitmore/spotcollect/internal/selection"
	"github.com/ewhitmore/spotcollect/internal/shared"
	"github.com/ewhitmore/spotcollect/internal/ui"
)

// TUI launches the interactive terminal UI for collecting and exporting playlists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/spotcollect-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	loader := r.newLoader()
	sel := selection.NewSet()
	r.watchSession(ctx, loader, sel)

	requester := export.NewRequester(r.api, loader, sel, shared.ExpandPath(r.config.Export.OutputDir), r.logger)

	model := ui.NewModel(ctx, loader, sel, requester)
	model.SetPrefetch(r.eagerPrefetch(ctx, loader))
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
