package models

import (
	"fmt"
	"strings"
	"time"
)

// Playlist represents a collection from the backend catalog.
// Immutable once fetched; identified by ID.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TrackCount int    `json:"trackCount,omitempty"`
}

// Track represents a single item within a playlist's track list.
type Track struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Album   string   `json:"album,omitempty"`
}

// ArtistLine renders the ordered artist sequence for display.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// Quota mirrors the most recent server-reported usage snapshot.
// Never locally computed; always overwritten wholesale.
type Quota struct {
	APICalls         int `json:"apiCalls"`
	APILimit         int `json:"apiLimit"`
	Downloads        int `json:"downloads"`
	DownloadLimit    int `json:"downloadLimit"`
	DownloadedTracks int `json:"downloadedTracks"`
}

// SkippedTrack identifies a track the server could not include in an export.
type SkippedTrack struct {
	Title        string `json:"title"`
	PlaylistName string `json:"playlistName"`
}

// PlaylistSelection is one playlist's contribution to an export request.
type PlaylistSelection struct {
	PlaylistID string   `json:"playlistId"`
	TrackIDs   []string `json:"trackIds"`
}

// CachedPlaylist is a playlist row in the local catalog cache.
type CachedPlaylist struct {
	Playlist
	FetchedAt time.Time
}

func (p CachedPlaylist) ID() string           { return p.Playlist.ID }
func (p CachedPlaylist) CreatedAt() time.Time { return p.FetchedAt }

func (p CachedPlaylist) Validate() error {
	if p.Playlist.ID == "" {
		return fmt.Errorf("playlist id is required")
	}
	if p.Playlist.Name == "" {
		return fmt.Errorf("playlist name is required")
	}
	return nil
}

// CachedTrack is a track row in the local catalog cache, owned by exactly
// one playlist.
type CachedTrack struct {
	Track
	PlaylistID string
	Position   int
	FetchedAt  time.Time
}

func (t CachedTrack) ID() string           { return t.Track.ID }
func (t CachedTrack) CreatedAt() time.Time { return t.FetchedAt }

func (t CachedTrack) Validate() error {
	if t.Track.ID == "" {
		return fmt.Errorf("track id is required")
	}
	if t.PlaylistID == "" {
		return fmt.Errorf("playlist id is required")
	}
	if t.Track.Title == "" {
		return fmt.Errorf("track title is required")
	}
	return nil
}
