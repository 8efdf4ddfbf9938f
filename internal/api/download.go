// Export endpoints: binary body plus optional metadata headers
package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ewhitmore/spotcollect/internal/models"
	"github.com/ewhitmore/spotcollect/internal/shared"
)

// Optional export response headers, each a JSON-encoded string.
const (
	headerSkippedTracks = "x-skipped-tracks"
	headerUserQuota     = "x-user-quota"
)

type downloadRequest struct {
	Selection []models.PlaylistSelection `json:"selection"`
	Format    string                     `json:"format"`
}

type publicDownloadRequest struct {
	PlaylistURL      string   `json:"playlistUrl"`
	SelectedTrackIDs []string `json:"selectedTrackIds"`
	Format           string   `json:"format"`
}

// DownloadResult holds an export file body plus the metadata the backend
// reports alongside it.
type DownloadResult struct {
	Data    []byte
	Skipped []models.SkippedTrack
	Quota   *models.Quota
}

// Download requests an export of the authenticated selection and returns
// the binary body. The skipped-tracks and quota headers are parsed
// best-effort: a malformed header is logged and ignored, never an error.
func (c *Client) Download(ctx context.Context, selection []models.PlaylistSelection, format string) (*DownloadResult, error) {
	data, err := json.Marshal(downloadRequest{Selection: selection, Format: format})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.Post(ctx, "/api/download", data)
	if err != nil {
		return nil, err
	}
	if err := c.classify(resp); err != nil {
		return nil, err
	}

	return c.downloadResult(resp), nil
}

// PublicDownload requests an export of selected tracks from a public
// playlist. No credential is required.
func (c *Client) PublicDownload(ctx context.Context, playlistURL string, trackIDs []string, format string) (*DownloadResult, error) {
	if playlistURL == "" {
		return nil, fmt.Errorf("%w: empty playlist URL", shared.ErrInvalidInput)
	}

	data, err := json.Marshal(publicDownloadRequest{
		PlaylistURL:      playlistURL,
		SelectedTrackIDs: trackIDs,
		Format:           format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.Post(ctx, "/api/public-playlist/download", data)
	if err != nil {
		return nil, err
	}
	if err := c.classify(resp); err != nil {
		return nil, err
	}

	return c.downloadResult(resp), nil
}

func (c *Client) downloadResult(resp *Response) *DownloadResult {
	result := &DownloadResult{Data: resp.Body}

	if raw := resp.Headers.Get(headerSkippedTracks); raw != "" {
		var skipped []models.SkippedTrack
		if err := json.Unmarshal([]byte(raw), &skipped); err != nil {
			if c.logger != nil {
				c.logger.Warn("ignoring header", "header", headerSkippedTracks,
					"error", fmt.Errorf("%w: %v", shared.ErrHeaderParse, err))
			}
		} else {
			result.Skipped = skipped
		}
	}

	if raw := resp.Headers.Get(headerUserQuota); raw != "" {
		var quota models.Quota
		if err := json.Unmarshal([]byte(raw), &quota); err != nil {
			if c.logger != nil {
				c.logger.Warn("ignoring header", "header", headerUserQuota,
					"error", fmt.Errorf("%w: %v", shared.ErrHeaderParse, err))
			}
		} else {
			result.Quota = &quota
		}
	}

	return result
}
