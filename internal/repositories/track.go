package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ewhitmore/spotcollect/internal/models"
)

// artistSeparator joins the ordered artist list into a single text column.
// The record separator never occurs in catalog artist names.
const artistSeparator = "\x1e"

// TrackRepository implements models.Repository[models.CachedTrack] over the
// tracks table. Each track row belongs to exactly one playlist.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a track row, replacing any existing row with the same
// playlist and track ID
func (r *TrackRepository) Create(track models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO tracks (id, playlist_id, title, artists, album, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		track.Track.ID,
		track.PlaylistID,
		track.Title,
		joinArtists(track.Artists),
		track.Album,
		track.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID. Track IDs repeat across playlists, so the
// first match in playlist order wins.
func (r *TrackRepository) Get(id string) (models.CachedTrack, error) {
	query := `
		SELECT id, playlist_id, title, artists, album, position
		FROM tracks
		WHERE id = ?
		ORDER BY playlist_id ASC
		LIMIT 1
	`

	var t models.CachedTrack
	var artists string

	err := r.db.QueryRow(query, id).Scan(&t.Track.ID, &t.PlaylistID, &t.Title, &artists, &t.Album, &t.Position)
	if err == sql.ErrNoRows {
		return t, fmt.Errorf("track not found")
	}
	if err != nil {
		return t, fmt.Errorf("failed to scan track: %w", err)
	}

	t.Artists = splitArtists(artists)
	return t, nil
}

// Delete removes every cached row for the given track ID
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found: %s", id)
	}

	return nil
}

// List retrieves cached tracks, optionally filtered by playlist_id, in
// playlist position order
func (r *TrackRepository) List(criteria map[string]any) ([]models.CachedTrack, error) {
	query := `
		SELECT id, playlist_id, title, artists, album, position
		FROM tracks
	`

	args := []any{}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " WHERE playlist_id = ?"
		args = append(args, playlistID)
	}

	query += " ORDER BY playlist_id ASC, position ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.CachedTrack
	for rows.Next() {
		var t models.CachedTrack
		var artists string

		if err := rows.Scan(&t.Track.ID, &t.PlaylistID, &t.Title, &artists, &t.Album, &t.Position); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}

		t.Artists = splitArtists(artists)
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// ListForPlaylist retrieves one playlist's cached tracks in position order
func (r *TrackRepository) ListForPlaylist(playlistID string) ([]models.CachedTrack, error) {
	return r.List(map[string]any{"playlist_id": playlistID})
}

// ReplaceForPlaylist swaps one playlist's cached track list in a single
// transaction, preserving fetch order via the position column
func (r *TrackRepository) ReplaceForPlaylist(playlistID string, tracks []models.Track) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tracks WHERE playlist_id = ?`, playlistID); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}

	now := time.Now()
	for i, track := range tracks {
		cached := models.CachedTrack{Track: track, PlaylistID: playlistID, Position: i, FetchedAt: now}
		if err := cached.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		_, err := tx.Exec(
			`INSERT INTO tracks (id, playlist_id, title, artists, album, position) VALUES (?, ?, ?, ?, ?, ?)`,
			track.ID, playlistID, track.Title, joinArtists(track.Artists), track.Album, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert track: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit track replace: %w", err)
	}

	return nil
}

func joinArtists(artists []string) string {
	return strings.Join(artists, artistSeparator)
}

func splitArtists(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, artistSeparator)
}
