// Catalog and session endpoints
package api

import (
	"context"
	"fmt"

	"github.com/ewhitmore/spotcollect/internal/models"
	"github.com/ewhitmore/spotcollect/internal/shared"
)

type statusResponse struct {
	Authenticated bool          `json:"authenticated"`
	Quota         *models.Quota `json:"quota,omitempty"`
}

type playlistsResponse struct {
	Playlists []models.Playlist `json:"playlists"`
	Quota     *models.Quota     `json:"quota,omitempty"`
}

type albumsResponse struct {
	Albums []models.Playlist `json:"albums"`
	Quota  *models.Quota     `json:"quota,omitempty"`
}

type tracksResponse struct {
	Tracks []models.Track `json:"tracks"`
	Quota  *models.Quota  `json:"quota,omitempty"`
}

type exchangeRequest struct {
	Code string `json:"code"`
}

type exchangeResponse struct {
	Token string `json:"token"`
}

type publicPlaylistRequest struct {
	PlaylistURL string `json:"playlistUrl"`
}

type publicPlaylistResponse struct {
	Playlist models.Playlist `json:"playlist"`
	Tracks   []models.Track  `json:"tracks"`
}

// CheckStatus asks the backend whether the session is live, returning the
// quota snapshot when one is reported. Implements [auth.Backend].
func (c *Client) CheckStatus(ctx context.Context) (bool, *models.Quota, error) {
	var status statusResponse
	if err := c.getJSON(ctx, "/api/status", &status); err != nil {
		return false, nil, err
	}
	return status.Authenticated, status.Quota, nil
}

// ExchangeCode trades a redirect authorization code for a bearer
// credential. Implements [auth.Backend].
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty authorization code", shared.ErrInvalidInput)
	}

	var resp exchangeResponse
	if err := c.postJSON(ctx, "/auth/exchange", exchangeRequest{Code: code}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: exchange returned no token", shared.ErrAuthFailed)
	}
	return resp.Token, nil
}

// Playlists retrieves the user's playlists and the current quota snapshot.
func (c *Client) Playlists(ctx context.Context) ([]models.Playlist, *models.Quota, error) {
	var resp playlistsResponse
	if err := c.getJSON(ctx, "/api/playlists", &resp); err != nil {
		return nil, nil, err
	}
	return resp.Playlists, resp.Quota, nil
}

// PlaylistTracks retrieves the tracks of one playlist.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, *models.Quota, error) {
	var resp tracksResponse
	if err := c.getJSON(ctx, "/api/playlists/"+playlistID+"/tracks", &resp); err != nil {
		return nil, nil, err
	}
	return resp.Tracks, resp.Quota, nil
}

// Albums retrieves the user's saved albums as collections.
func (c *Client) Albums(ctx context.Context) ([]models.Playlist, *models.Quota, error) {
	var resp albumsResponse
	if err := c.getJSON(ctx, "/api/albums", &resp); err != nil {
		return nil, nil, err
	}
	return resp.Albums, resp.Quota, nil
}

// AlbumTracks retrieves the tracks of one saved album.
func (c *Client) AlbumTracks(ctx context.Context, albumID string) ([]models.Track, *models.Quota, error) {
	var resp tracksResponse
	if err := c.getJSON(ctx, "/api/albums/"+albumID+"/tracks", &resp); err != nil {
		return nil, nil, err
	}
	return resp.Tracks, resp.Quota, nil
}

// PublicPlaylist retrieves metadata and tracks for a public playlist URL.
// No credential is required.
func (c *Client) PublicPlaylist(ctx context.Context, playlistURL string) (*models.Playlist, []models.Track, error) {
	if playlistURL == "" {
		return nil, nil, fmt.Errorf("%w: empty playlist URL", shared.ErrInvalidInput)
	}

	var resp publicPlaylistResponse
	if err := c.postJSON(ctx, "/api/public-playlist", publicPlaylistRequest{PlaylistURL: playlistURL}, &resp); err != nil {
		return nil, nil, err
	}
	return &resp.Playlist, resp.Tracks, nil
}
