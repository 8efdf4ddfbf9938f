// package export turns the current selection into a backend export request
// and writes the returned file.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/ewhitmore/spotcollect/internal/api"
	"github.com/ewhitmore/spotcollect/internal/catalog"
	"github.com/ewhitmore/spotcollect/internal/models"
	"github.com/ewhitmore/spotcollect/internal/selection"
	"github.com/ewhitmore/spotcollect/internal/shared"
)

// product is the fixed filename stem of every export.
const product = "spotify_export"

// Formats the backend accepts.
var formats = map[string]bool{"csv": true, "json": true, "txt": true}

// ValidFormat reports whether the backend accepts the format.
func ValidFormat(format string) bool { return formats[format] }

// Filename returns the fixed download filename for a format.
func Filename(format string) string { return product + "." + format }

// Downloader is the subset of the API client the requester drives.
type Downloader interface {
	Download(ctx context.Context, selection []models.PlaylistSelection, format string) (*api.DownloadResult, error)
}

// Result describes a completed export.
type Result struct {
	Path    string
	Size    int
	Skipped []models.SkippedTrack
	Quota   *models.Quota
}

// Requester issues export requests from the live selection snapshot.
type Requester struct {
	backend   Downloader
	loader    *catalog.Loader
	selection *selection.Set
	outputDir string
	logger    *log.Logger
}

// NewRequester creates a Requester writing into outputDir (default ".").
func NewRequester(backend Downloader, loader *catalog.Loader, sel *selection.Set, outputDir string, logger *log.Logger) *Requester {
	if outputDir == "" {
		outputDir = "."
	}
	return &Requester{
		backend:   backend,
		loader:    loader,
		selection: sel,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Download snapshots the current selection and requests one export. An
// empty snapshot aborts locally with no request sent. Never retried
// automatically; 429 is informational and does not deauthenticate.
func (r *Requester) Download(ctx context.Context, format string) (*Result, error) {
	if !ValidFormat(format) {
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}

	snapshot := r.selection.Snapshot(r.loader.Playlists(), r.loader.Tracks)
	if len(snapshot) == 0 {
		return nil, fmt.Errorf("%w: select at least one playlist and song", shared.ErrEmptySelection)
	}

	res, err := r.backend.Download(ctx, snapshot, format)
	if err != nil {
		return nil, err
	}

	if res.Quota != nil {
		r.loader.SetQuota(res.Quota)
	}

	path, err := writeFile(r.outputDir, format, res.Data)
	if err != nil {
		return nil, err
	}

	if r.logger != nil && len(res.Skipped) > 0 {
		r.logger.Warn("backend skipped tracks", "count", len(res.Skipped))
	}

	return &Result{
		Path:    path,
		Size:    len(res.Data),
		Skipped: res.Skipped,
		Quota:   res.Quota,
	}, nil
}

// writeFile saves the export body under the fixed filename pattern.
func writeFile(dir, format string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, Filename(format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
