// package formatter renders cached catalog data for terminal output and
// local export previews (CSV, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/ewhitmore/spotcollect/internal/models"
	"github.com/ewhitmore/spotcollect/internal/shared"
)

// RenderCSV converts a playlist's track list to CSV with columns: ID, Title, Artists, Album
func RenderCSV(playlist models.Playlist, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artists", "Album"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Title,
			track.ArtistLine(),
			track.Album,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// playlistDocument is the JSON rendering of a playlist and its track list
type playlistDocument struct {
	Playlist models.Playlist `json:"playlist"`
	Tracks   []models.Track  `json:"tracks"`
}

// RenderJSON converts a playlist and its track list to indented JSON
func RenderJSON(playlist models.Playlist, tracks []models.Track) ([]byte, error) {
	doc := playlistDocument{Playlist: playlist, Tracks: tracks}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlist: %w", err)
	}

	return data, nil
}

// RenderText converts a playlist's track list to a numbered plain text listing
func RenderText(playlist models.Playlist, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlist.Name))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))

	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, track.ArtistLine(), track.Title, albumPart))
	}

	return buf.Bytes(), nil
}

// Render dispatches to the format-specific renderer. Supported formats are
// csv, json, and txt.
func Render(format string, playlist models.Playlist, tracks []models.Track) ([]byte, error) {
	switch format {
	case "csv":
		return RenderCSV(playlist, tracks)
	case "json":
		return RenderJSON(playlist, tracks)
	case "txt":
		return RenderText(playlist, tracks)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}
}

// RenderSkippedReport lists tracks the server omitted from an export, grouped
// in the order the server reported them. Returns an empty slice when nothing
// was skipped.
func RenderSkippedReport(skipped []models.SkippedTrack) []byte {
	if len(skipped) == 0 {
		return []byte{}
	}

	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%d track(s) were not included in the export:\n", len(skipped)))
	for _, s := range skipped {
		buf.WriteString(fmt.Sprintf("  - %s (%s)\n", s.Title, s.PlaylistName))
	}

	return buf.Bytes()
}

// RenderQuota produces a one-line usage summary from a server quota snapshot
func RenderQuota(quota models.Quota) string {
	return fmt.Sprintf("API calls: %d/%d | Downloads: %d/%d | Tracks downloaded: %d",
		quota.APICalls, quota.APILimit,
		quota.Downloads, quota.DownloadLimit,
		quota.DownloadedTracks,
	)
}
