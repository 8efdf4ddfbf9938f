package repositories

import (
	"database/sql"
	"fmt"

	"github.com/ewhitmore/spotcollect/internal/models"
)

// CacheAdapter implements catalog.CacheWriter over the playlist and track
// repositories, plus the quota snapshot table.
//
// Writes mirror backend responses wholesale; the cache never holds a partial
// merge of two fetches.
type CacheAdapter struct {
	db        *sql.DB
	playlists *PlaylistRepository
	tracks    *TrackRepository
}

// NewCacheAdapter creates a new CacheAdapter with the given database connection
func NewCacheAdapter(db *sql.DB) *CacheAdapter {
	return &CacheAdapter{
		db:        db,
		playlists: NewPlaylistRepository(db),
		tracks:    NewTrackRepository(db),
	}
}

// Playlists returns the underlying playlist repository
func (a *CacheAdapter) Playlists() *PlaylistRepository { return a.playlists }

// Tracks returns the underlying track repository
func (a *CacheAdapter) Tracks() *TrackRepository { return a.tracks }

// PutPlaylists replaces the cached playlist set
func (a *CacheAdapter) PutPlaylists(playlists []models.Playlist) error {
	if err := a.playlists.ReplaceAll(playlists); err != nil {
		return fmt.Errorf("failed to cache playlists: %w", err)
	}
	return nil
}

// PutTracks replaces one playlist's cached track list
func (a *CacheAdapter) PutTracks(playlistID string, tracks []models.Track) error {
	if err := a.tracks.ReplaceForPlaylist(playlistID, tracks); err != nil {
		return fmt.Errorf("failed to cache tracks: %w", err)
	}
	return nil
}

// PutQuota appends a quota snapshot row
func (a *CacheAdapter) PutQuota(quota models.Quota) error {
	query := `
		INSERT INTO quota_snapshots (api_calls, api_limit, downloads, download_limit, downloaded_tracks)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := a.db.Exec(query,
		quota.APICalls,
		quota.APILimit,
		quota.Downloads,
		quota.DownloadLimit,
		quota.DownloadedTracks,
	)
	if err != nil {
		return fmt.Errorf("failed to record quota snapshot: %w", err)
	}

	return nil
}

// LatestQuota returns the most recent quota snapshot, or nil if none exists
func (a *CacheAdapter) LatestQuota() (*models.Quota, error) {
	query := `
		SELECT api_calls, api_limit, downloads, download_limit, downloaded_tracks
		FROM quota_snapshots
		ORDER BY id DESC
		LIMIT 1
	`

	var q models.Quota
	err := a.db.QueryRow(query).Scan(&q.APICalls, &q.APILimit, &q.Downloads, &q.DownloadLimit, &q.DownloadedTracks)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan quota snapshot: %w", err)
	}

	return &q, nil
}

// Clear empties every cache table
func (a *CacheAdapter) Clear() error {
	for _, table := range []string{"tracks", "playlists", "quota_snapshots"} {
		if _, err := a.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
