// package selection maintains the two-level playlist → track selection map.
//
// Both levels are sparse: an absent key means unselected, never "unknown".
// A playlist's flag is independent of its tracks; a playlist can be marked
// selected with zero tracks individually checked, which simply contributes
// nothing to an export.
package selection

import (
	"sync"

	"github.com/ewhitmore/spotcollect/internal/models"
)

// TracksFunc resolves a playlist's loaded track list. A false return means
// the tracks have not arrived yet.
type TracksFunc func(playlistID string) ([]models.Track, bool)

// FetchFunc requests a track fetch for a playlist whose tracks are needed
// to complete a sweep. May be nil.
type FetchFunc func(playlistID string)

// Set is the selection state. Safe for concurrent use; reconciliation is
// keyed by track arrival, which can happen in any order.
type Set struct {
	mu        sync.Mutex
	playlists map[string]bool
	tracks    map[string]map[string]bool
}

// NewSet creates an empty selection.
func NewSet() *Set {
	return &Set{
		playlists: make(map[string]bool),
		tracks:    make(map[string]map[string]bool),
	}
}

// SetPlaylist marks one playlist selected or not. Selecting sweeps every
// loaded track to true; when the tracks have not arrived, fetch is invoked
// and the sweep happens on arrival via [Set.Reconcile]. Deselecting clears
// the inner map rather than enumerating false per track.
func (s *Set) SetPlaylist(playlistID string, selected bool, tracksOf TracksFunc, fetch FetchFunc) {
	s.mu.Lock()
	s.playlists[playlistID] = selected
	if !selected {
		s.tracks[playlistID] = make(map[string]bool)
		s.mu.Unlock()
		return
	}

	if tracks, ok := tracksOf(playlistID); ok {
		s.sweepLocked(playlistID, tracks)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if fetch != nil {
		fetch(playlistID)
	}
}

// SetAll marks every playlist selected or not, with the same per-playlist
// sweep-or-fetch behavior as [Set.SetPlaylist].
func (s *Set) SetAll(playlists []models.Playlist, selected bool, tracksOf TracksFunc, fetch FetchFunc) {
	for _, pl := range playlists {
		s.SetPlaylist(pl.ID, selected, tracksOf, fetch)
	}
}

// SetTrack marks one track. Never touches sibling tracks or the parent
// playlist's own flag.
func (s *Set) SetTrack(playlistID, trackID string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inner := s.tracks[playlistID]
	if inner == nil {
		inner = make(map[string]bool)
		s.tracks[playlistID] = inner
	}
	inner[trackID] = selected
}

// Reconcile closes the race between "playlist selected before its tracks
// loaded" and "tracks just arrived": if the playlist is marked selected and
// its inner map is still empty, every arriving track is swept to selected.
func (s *Set) Reconcile(playlistID string, tracks []models.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.playlists[playlistID] {
		return
	}
	if len(s.tracks[playlistID]) > 0 {
		return
	}
	s.sweepLocked(playlistID, tracks)
}

// sweepLocked marks every given track selected. Callers hold s.mu.
func (s *Set) sweepLocked(playlistID string, tracks []models.Track) {
	inner := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		inner[t.ID] = true
	}
	s.tracks[playlistID] = inner
}

// PlaylistSelected reports one playlist's flag. Absent means false.
func (s *Set) PlaylistSelected(playlistID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlists[playlistID]
}

// TrackSelected reports one track's flag. Absent means false.
func (s *Set) TrackSelected(playlistID, trackID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracks[playlistID][trackID]
}

// AllSelected reports whether every given playlist is selected.
func (s *Set) AllSelected(playlists []models.Playlist) bool {
	if len(playlists) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pl := range playlists {
		if !s.playlists[pl.ID] {
			return false
		}
	}
	return true
}

// Counts returns the number of selected playlists among the given list and
// the total number of selected tracks. Computed on read, never stored.
func (s *Set) Counts(playlists []models.Playlist) (selectedPlaylists, selectedTracks int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pl := range playlists {
		if s.playlists[pl.ID] {
			selectedPlaylists++
		}
	}
	for _, inner := range s.tracks {
		for _, on := range inner {
			if on {
				selectedTracks++
			}
		}
	}
	return selectedPlaylists, selectedTracks
}

// SelectedTrackCount returns the number of selected tracks in one playlist.
func (s *Set) SelectedTrackCount(playlistID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, on := range s.tracks[playlistID] {
		if on {
			count++
		}
	}
	return count
}

// Snapshot builds the export selection: each selected playlist with the
// subset of its loaded tracks currently marked true, in track-list order.
// Playlists whose subset is empty are omitted. Recomputed fresh on every
// call, never cached.
func (s *Set) Snapshot(playlists []models.Playlist, tracksOf TracksFunc) []models.PlaylistSelection {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.PlaylistSelection
	for _, pl := range playlists {
		if !s.playlists[pl.ID] {
			continue
		}

		tracks, ok := tracksOf(pl.ID)
		if !ok {
			continue
		}

		var ids []string
		for _, t := range tracks {
			if s.tracks[pl.ID][t.ID] {
				ids = append(ids, t.ID)
			}
		}
		if len(ids) == 0 {
			continue
		}

		out = append(out, models.PlaylistSelection{PlaylistID: pl.ID, TrackIDs: ids})
	}
	return out
}

// Clear drops all selection state. Called on logout and session expiry.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists = make(map[string]bool)
	s.tracks = make(map[string]map[string]bool)
}
