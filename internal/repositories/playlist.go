package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ewhitmore/spotcollect/internal/models"
)

// PlaylistRepository implements models.Repository[models.CachedPlaylist] over
// the playlists table.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a playlist row, replacing any existing row with the same ID
func (r *PlaylistRepository) Create(playlist models.CachedPlaylist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if playlist.FetchedAt.IsZero() {
		playlist.FetchedAt = time.Now()
	}

	query := `
		INSERT OR REPLACE INTO playlists (id, name, track_count, fetched_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		playlist.Playlist.ID,
		playlist.Name,
		playlist.TrackCount,
		playlist.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist by ID
func (r *PlaylistRepository) Get(id string) (models.CachedPlaylist, error) {
	query := `
		SELECT id, name, track_count, fetched_at
		FROM playlists
		WHERE id = ?
	`

	return r.scan(r.db.QueryRow(query, id))
}

// Delete removes a playlist and, via cascade, its cached tracks
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found: %s", id)
	}

	return nil
}

// List retrieves all cached playlists in fetch order
func (r *PlaylistRepository) List(criteria map[string]any) ([]models.CachedPlaylist, error) {
	query := `
		SELECT id, name, track_count, fetched_at
		FROM playlists
	`

	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " WHERE name LIKE ?"
		args = append(args, "%"+name+"%")
	}

	query += " ORDER BY fetched_at ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.CachedPlaylist
	for rows.Next() {
		var p models.CachedPlaylist
		if err := rows.Scan(&p.Playlist.ID, &p.Name, &p.TrackCount, &p.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// ReplaceAll swaps the cached playlist set in one transaction
func (r *PlaylistRepository) ReplaceAll(playlists []models.Playlist) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM playlists`); err != nil {
		return fmt.Errorf("failed to clear playlists: %w", err)
	}

	now := time.Now()
	for _, p := range playlists {
		cached := models.CachedPlaylist{Playlist: p, FetchedAt: now}
		if err := cached.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		_, err := tx.Exec(
			`INSERT INTO playlists (id, name, track_count, fetched_at) VALUES (?, ?, ?, ?)`,
			p.ID, p.Name, p.TrackCount, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert playlist: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist replace: %w", err)
	}

	return nil
}

// scan scans a single row into a [models.CachedPlaylist]
func (r *PlaylistRepository) scan(row *sql.Row) (models.CachedPlaylist, error) {
	var p models.CachedPlaylist

	err := row.Scan(&p.Playlist.ID, &p.Name, &p.TrackCount, &p.FetchedAt)
	if err == sql.ErrNoRows {
		return p, fmt.Errorf("playlist not found")
	}
	if err != nil {
		return p, fmt.Errorf("failed to scan playlist: %w", err)
	}

	return p, nil
}
