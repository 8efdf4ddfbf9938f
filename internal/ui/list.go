package ui

import (
	"fmt"

	"github.com/ewhitmore/spotcollect/internal/models"
)

// rowKind distinguishes the two levels of the catalog tree.
type rowKind int

const (
	playlistRow rowKind = iota
	trackRow
	loadingRow
)

// row is one visible line in the flattened catalog tree.
type row struct {
	kind       rowKind
	playlist   models.Playlist
	track      models.Track
	playlistID string
}

// buildRows flattens the playlist tree into visible rows. Collapsed
// playlists contribute a single row; expanded ones append their track rows,
// or a loading placeholder while the fetch is in flight.
func (m *Model) buildRows() []row {
	var rows []row

	for _, playlist := range m.loader.Playlists() {
		rows = append(rows, row{kind: playlistRow, playlist: playlist, playlistID: playlist.ID})

		if !m.expanded[playlist.ID] {
			continue
		}

		tracks, ok := m.loader.Tracks(playlist.ID)
		if !ok {
			rows = append(rows, row{kind: loadingRow, playlistID: playlist.ID})
			continue
		}

		for _, track := range tracks {
			rows = append(rows, row{kind: trackRow, track: track, playlistID: playlist.ID})
		}
	}

	return rows
}

// renderRow draws one tree line with its checkbox, expansion marker, and
// cursor highlight.
func (m *Model) renderRow(r row, selected bool) string {
	var line string

	switch r.kind {
	case playlistRow:
		marker := "▸"
		if m.expanded[r.playlistID] {
			marker = "▾"
		}

		box := "[ ]"
		if m.sel.PlaylistSelected(r.playlistID) {
			box = "[x]"
		}

		line = fmt.Sprintf("%s %s %s", marker, box, r.playlist.Name)
		if count := m.sel.SelectedTrackCount(r.playlistID); count > 0 {
			line = fmt.Sprintf("%s (%d selected)", line, count)
		} else if r.playlist.TrackCount > 0 {
			line = fmt.Sprintf("%s (%d tracks)", line, r.playlist.TrackCount)
		}

	case trackRow:
		box := "[ ]"
		if m.sel.TrackSelected(r.playlistID, r.track.ID) {
			box = "[x]"
		}

		line = fmt.Sprintf("    %s %s - %s", box, r.track.ArtistLine(), r.track.Title)

	case loadingRow:
		line = fmt.Sprintf("    %s loading tracks...", m.spin.View())
	}

	if selected {
		return styles.cursor.Render("> " + line)
	}
	return "  " + line
}
