package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ewhitmore/spotcollect/internal/models"
	"github.com/ewhitmore/spotcollect/internal/shared"
)

func TestNewClient(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		c := NewClient("", nil, nil)
		if c.BaseURL() != defaultBaseURL {
			t.Errorf("expected default base URL, got %q", c.BaseURL())
		}
		if c.httpClient != http.DefaultClient {
			t.Error("expected default HTTP client")
		}
	})

	t.Run("Origin", func(t *testing.T) {
		c := NewClient("https://collector.example.com:8443/base", nil, nil)
		if got := c.Origin(); got != "https://collector.example.com:8443" {
			t.Errorf("expected scheme and host only, got %q", got)
		}
	})

	t.Run("LoginURL", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:3001", nil, nil)

		got := c.LoginURL("s_1", "http://127.0.0.1:3000/callback")
		want := "http://127.0.0.1:3001/auth?redirect_uri=http%3A%2F%2F127.0.0.1%3A3000%2Fcallback&state=s_1"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}

		if got := c.LoginURL("", ""); got != "http://127.0.0.1:3001/auth" {
			t.Errorf("expected bare auth URL, got %q", got)
		}
	})
}

func TestClientRequests(t *testing.T) {
	ctx := context.Background()

	t.Run("Get Returns Raw Response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/status" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"authenticated":true}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		resp, err := c.Get(ctx, "/api/status")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		if !resp.IsJSON {
			t.Error("expected JSON detection")
		}
	})

	t.Run("Post Sends JSON Body", func(t *testing.T) {
		var gotContentType string
		var gotBody []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotContentType = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		if _, err := c.Post(ctx, "/api/download", []byte(`{"format":"csv"}`)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotContentType != "application/json" {
			t.Errorf("expected JSON content type, got %q", gotContentType)
		}
		if string(gotBody) != `{"format":"csv"}` {
			t.Errorf("unexpected body %q", gotBody)
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:0", nil, nil)
		if _, err := c.Get(ctx, "/api/status"); err == nil {
			t.Error("expected a transport error")
		}
	})
}

func TestErrorClassification(t *testing.T) {
	ctx := context.Background()

	serve := func(t *testing.T, status int, body string) *Client {
		t.Helper()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
		t.Cleanup(srv.Close)
		return NewClient(srv.URL, srv.Client(), nil)
	}

	t.Run("Unauthorized", func(t *testing.T) {
		c := serve(t, http.StatusUnauthorized, `{"error":"token expired"}`)
		_, _, err := c.Playlists(ctx)
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("expected ErrAuthExpired, got %v", err)
		}
	})

	t.Run("Rate Limited", func(t *testing.T) {
		c := serve(t, http.StatusTooManyRequests, `{"error":"quota exhausted","resetTime":"Resets at midnight UTC"}`)
		_, _, err := c.Playlists(ctx)
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.ResetTime != "Resets at midnight UTC" {
			t.Errorf("expected reset time carried, got %q", apiErr.ResetTime)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		c := serve(t, http.StatusNotFound, `{"error":"no such playlist"}`)
		_, _, err := c.PlaylistTracks(ctx, "pl_missing")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		c := serve(t, http.StatusInternalServerError, "boom")
		_, _, err := c.Playlists(ctx)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Message Falls Back To Status Text", func(t *testing.T) {
		err := (&APIError{Status: http.StatusBadGateway}).Error()
		if err == "" {
			t.Error("expected a message")
		}
	})
}

func TestCatalogEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("CheckStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(statusResponse{
				Authenticated: true,
				Quota:         &models.Quota{APICalls: 4, APILimit: 100},
			})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		ok, quota, err := c.CheckStatus(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !ok {
			t.Error("expected authenticated")
		}
		if quota == nil || quota.APICalls != 4 {
			t.Errorf("expected quota snapshot, got %+v", quota)
		}
	})

	t.Run("ExchangeCode", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req exchangeRequest
				json.NewDecoder(r.Body).Decode(&req)
				if req.Code != "c_1" {
					t.Errorf("expected code c_1, got %q", req.Code)
				}
				json.NewEncoder(w).Encode(exchangeResponse{Token: "tok_1"})
			}))
			defer srv.Close()

			c := NewClient(srv.URL, srv.Client(), nil)
			token, err := c.ExchangeCode(ctx, "c_1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token != "tok_1" {
				t.Errorf("expected tok_1, got %q", token)
			}
		})

		t.Run("Empty Code", func(t *testing.T) {
			c := NewClient("http://127.0.0.1:3001", nil, nil)
			_, err := c.ExchangeCode(ctx, "")
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("Empty Token In Response", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(exchangeResponse{})
			}))
			defer srv.Close()

			c := NewClient(srv.URL, srv.Client(), nil)
			_, err := c.ExchangeCode(ctx, "c_1")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("Playlists", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/playlists" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(playlistsResponse{
				Playlists: []models.Playlist{{ID: "pl_1", Name: "Morning Mix", TrackCount: 12}},
				Quota:     &models.Quota{APICalls: 5},
			})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		playlists, quota, err := c.Playlists(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(playlists) != 1 || playlists[0].ID != "pl_1" {
			t.Errorf("unexpected playlists %+v", playlists)
		}
		if quota == nil || quota.APICalls != 5 {
			t.Errorf("expected quota snapshot, got %+v", quota)
		}
	})

	t.Run("PlaylistTracks", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/playlists/pl_1/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(tracksResponse{
				Tracks: []models.Track{{ID: "t_1", Title: "Song One", Artists: []string{"Artist One"}}},
			})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		tracks, _, err := c.PlaylistTracks(ctx, "pl_1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 || tracks[0].Title != "Song One" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
	})

	t.Run("Albums", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/albums" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(albumsResponse{
				Albums: []models.Playlist{{ID: "al_1", Name: "Blue Album"}},
			})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		albums, _, err := c.Albums(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(albums) != 1 || albums[0].Name != "Blue Album" {
			t.Errorf("unexpected albums %+v", albums)
		}
	})

	t.Run("PublicPlaylist", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req publicPlaylistRequest
				json.NewDecoder(r.Body).Decode(&req)
				if req.PlaylistURL != "https://open.spotify.com/playlist/abc" {
					t.Errorf("unexpected URL %q", req.PlaylistURL)
				}
				json.NewEncoder(w).Encode(publicPlaylistResponse{
					Playlist: models.Playlist{ID: "pl_pub", Name: "Public Mix"},
					Tracks:   []models.Track{{ID: "t_1", Title: "Song One"}},
				})
			}))
			defer srv.Close()

			c := NewClient(srv.URL, srv.Client(), nil)
			playlist, tracks, err := c.PublicPlaylist(ctx, "https://open.spotify.com/playlist/abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if playlist.ID != "pl_pub" {
				t.Errorf("unexpected playlist %+v", playlist)
			}
			if len(tracks) != 1 {
				t.Errorf("unexpected tracks %+v", tracks)
			}
		})

		t.Run("Empty URL", func(t *testing.T) {
			c := NewClient("http://127.0.0.1:3001", nil, nil)
			_, _, err := c.PublicPlaylist(ctx, "")
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	})
}
