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

func TestDownload(t *testing.T) {
	ctx := context.Background()
	sel := []models.PlaylistSelection{{PlaylistID: "pl_1", TrackIDs: []string{"t_1", "t_2"}}}

	t.Run("Returns Body And Headers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/download" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}

			var req downloadRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Format != "csv" {
				t.Errorf("expected format csv, got %q", req.Format)
			}
			if len(req.Selection) != 1 || req.Selection[0].PlaylistID != "pl_1" {
				t.Errorf("unexpected selection %+v", req.Selection)
			}

			w.Header().Set("x-skipped-tracks", `[{"title":"Ghost Song","playlistName":"Morning Mix"}]`)
			w.Header().Set("x-user-quota", `{"apiCalls":7,"apiLimit":100,"downloads":2,"downloadLimit":10,"downloadedTracks":40}`)
			w.Write([]byte("ID,Title\nt_1,Song One\n"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		res, err := c.Download(ctx, sel, "csv")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(res.Data) != "ID,Title\nt_1,Song One\n" {
			t.Errorf("unexpected body %q", res.Data)
		}
		if len(res.Skipped) != 1 || res.Skipped[0].Title != "Ghost Song" {
			t.Errorf("unexpected skipped %+v", res.Skipped)
		}
		if res.Quota == nil || res.Quota.Downloads != 2 {
			t.Errorf("unexpected quota %+v", res.Quota)
		}
	})

	t.Run("Missing Headers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("body"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		res, err := c.Download(ctx, sel, "json")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Skipped != nil {
			t.Errorf("expected no skipped tracks, got %+v", res.Skipped)
		}
		if res.Quota != nil {
			t.Errorf("expected no quota, got %+v", res.Quota)
		}
	})

	t.Run("Malformed Headers Ignored", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("x-skipped-tracks", "{not json")
			w.Header().Set("x-user-quota", "also not json")
			w.Write([]byte("body"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		res, err := c.Download(ctx, sel, "txt")
		if err != nil {
			t.Fatalf("expected no error despite bad headers, got %v", err)
		}
		if string(res.Data) != "body" {
			t.Errorf("unexpected body %q", res.Data)
		}
		if res.Skipped != nil || res.Quota != nil {
			t.Error("expected malformed headers dropped")
		}
	})

	t.Run("Rate Limited", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"download quota exhausted","resetTime":"Resets in 3 hours"}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		_, err := c.Download(ctx, sel, "csv")
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
	})
}

func TestPublicDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("Sends URL And Track IDs", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/public-playlist/download" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}

			body, _ := io.ReadAll(r.Body)
			var req publicDownloadRequest
			json.Unmarshal(body, &req)
			if req.PlaylistURL != "https://open.spotify.com/playlist/abc" {
				t.Errorf("unexpected URL %q", req.PlaylistURL)
			}
			if len(req.SelectedTrackIDs) != 2 {
				t.Errorf("unexpected track ids %+v", req.SelectedTrackIDs)
			}

			w.Write([]byte("1. Song One\n"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		res, err := c.PublicDownload(ctx, "https://open.spotify.com/playlist/abc", []string{"t_1", "t_2"}, "txt")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(res.Data) != "1. Song One\n" {
			t.Errorf("unexpected body %q", res.Data)
		}
	})

	t.Run("Empty URL", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:3001", nil, nil)
		_, err := c.PublicDownload(ctx, "", []string{"t_1"}, "csv")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
