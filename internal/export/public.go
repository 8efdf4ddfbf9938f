package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ewhitmore/spotcollect/internal/api"
	"github.com/ewhitmore/spotcollect/internal/models"
	"github.com/ewhitmore/spotcollect/internal/selection"
	"github.com/ewhitmore/spotcollect/internal/shared"
)

// PublicBackend is the subset of the API client the public flow drives.
type PublicBackend interface {
	PublicPlaylist(ctx context.Context, playlistURL string) (*models.Playlist, []models.Track, error)
	PublicDownload(ctx context.Context, playlistURL string, trackIDs []string, format string) (*api.DownloadResult, error)
}

// PublicSession is the unauthenticated variant of the export flow: one
// public playlist fetched by URL, with the same track-level selection.
type PublicSession struct {
	url      string
	playlist models.Playlist
	tracks   []models.Track
	sel      *selection.Set
	backend  PublicBackend
	logger   *log.Logger
}

// NewPublicSession fetches a public playlist's metadata and tracks. The
// playlist starts fully selected, matching the common case of exporting
// the whole thing.
func NewPublicSession(ctx context.Context, backend PublicBackend, playlistURL string, logger *log.Logger) (*PublicSession, error) {
	playlistURL = strings.TrimSpace(playlistURL)
	if playlistURL == "" {
		return nil, fmt.Errorf("%w: playlist URL is required", shared.ErrInvalidInput)
	}

	playlist, tracks, err := backend.PublicPlaylist(ctx, playlistURL)
	if err != nil {
		return nil, err
	}

	s := &PublicSession{
		url:      playlistURL,
		playlist: *playlist,
		tracks:   tracks,
		sel:      selection.NewSet(),
		backend:  backend,
		logger:   logger,
	}
	s.SelectAll(true)
	return s, nil
}

// Playlist returns the fetched playlist metadata.
func (s *PublicSession) Playlist() models.Playlist { return s.playlist }

// Tracks returns the fetched track list.
func (s *PublicSession) Tracks() []models.Track { return s.tracks }

// SelectAll sweeps every track selected or clears the selection.
func (s *PublicSession) SelectAll(selected bool) {
	s.sel.SetPlaylist(s.playlist.ID, selected, func(string) ([]models.Track, bool) {
		return s.tracks, true
	}, nil)
}

// SetTrack marks one track.
func (s *PublicSession) SetTrack(trackID string, selected bool) {
	s.sel.SetTrack(s.playlist.ID, trackID, selected)
}

// SelectedTrackIDs returns the selected track ids in list order.
func (s *PublicSession) SelectedTrackIDs() []string {
	var ids []string
	for _, t := range s.tracks {
		if s.sel.TrackSelected(s.playlist.ID, t.ID) {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Download requests an export of the selected tracks and writes the file.
func (s *PublicSession) Download(ctx context.Context, format, outputDir string) (*Result, error) {
	if !ValidFormat(format) {
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}

	ids := s.SelectedTrackIDs()
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: select at least one song", shared.ErrEmptySelection)
	}

	res, err := s.backend.PublicDownload(ctx, s.url, ids, format)
	if err != nil {
		return nil, err
	}

	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(outputDir, Filename(format))
	if err := os.WriteFile(path, res.Data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}

	return &Result{
		Path:    path,
		Size:    len(res.Data),
		Skipped: res.Skipped,
		Quota:   res.Quota,
	}, nil
}
