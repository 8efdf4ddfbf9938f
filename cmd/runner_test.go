package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ewhitmore/spotcollect/internal/auth"
	"github.com/ewhitmore/spotcollect/internal/selection"
	"github.com/ewhitmore/spotcollect/internal/shared"
	tu "github.com/ewhitmore/spotcollect/internal/testing"
)

// newTestRunner builds a Runner pointed at srv with all paths confined to a
// temp directory.
func newTestRunner(t *testing.T, srv *httptest.Server) *Runner {
	t.Helper()
	tmp := t.TempDir()

	cfg := shared.DefaultConfig()
	cfg.Server.BaseURL = srv.URL
	cfg.Auth.TokenPath = filepath.Join(tmp, "token.json")
	cfg.Auth.ResultPath = filepath.Join(tmp, "result.json")
	cfg.Database.Path = filepath.Join(tmp, "cache.db")

	return NewRunner(RunnerOpts{
		Config:     cfg,
		HTTPClient: srv.Client(),
		Output:     &bytes.Buffer{},
	})
}

// forgeToken builds an unsigned three-segment token whose payload carries
// the given expiry claim.
func forgeToken(t *testing.T, exp int64) string {
	t.Helper()
	claims, err := json.Marshal(auth.Claims{Exp: exp, UserID: "u_1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return "h." + base64.RawURLEncoding.EncodeToString(claims) + ".s"
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.api == nil {
				t.Error("expected API client to be constructed")
			}
			if runner.store == nil || runner.session == nil || runner.events == nil {
				t.Error("expected auth components to be constructed")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		names := make(map[string]bool)
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
				continue
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"auth", "playlists", "albums", "export", "public", "cache", "setup", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestEagerPrefetch(t *testing.T) {
	ctx := context.Background()

	t.Run("Fetches Tracks Once Playlists Arrive", func(t *testing.T) {
		var trackHits int32
		mux := http.NewServeMux()
		mux.HandleFunc("/api/playlists", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"playlists":[{"id":"pl_1","name":"Focus","trackCount":1}]}`))
		})
		mux.HandleFunc("/api/playlists/pl_1/tracks", func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&trackHits, 1)
			w.Write([]byte(`{"tracks":[{"id":"t_1","title":"One","artists":["A"]}]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		r := newTestRunner(t, srv)
		loader := r.newLoader()

		fetch := r.eagerPrefetch(ctx, loader)
		if fetch == nil {
			t.Fatal("expected a prefetch function with the default config")
		}

		if err := loader.LoadCollections(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		fetch()

		if got := atomic.LoadInt32(&trackHits); got != 1 {
			t.Errorf("expected one track fetch, got %d", got)
		}
		if _, ok := loader.Tracks("pl_1"); !ok {
			t.Error("expected tracks loaded for pl_1")
		}
	})

	t.Run("Lazy Config Disables Prefetch", func(t *testing.T) {
		srv := httptest.NewServer(http.NewServeMux())
		defer srv.Close()

		r := newTestRunner(t, srv)
		r.config.Catalog.Prefetch = "lazy"

		if fetch := r.eagerPrefetch(ctx, r.newLoader()); fetch != nil {
			t.Error("expected no prefetch function when configured lazy")
		}
	})
}

func TestMergeResults(t *testing.T) {
	ctx := context.Background()

	t.Run("Delivers From Either Source", func(t *testing.T) {
		a := make(chan auth.Result, 1)
		b := make(chan auth.Result, 1)
		b <- auth.Result{Success: true}

		select {
		case record := <-mergeResults(ctx, a, b):
			if !record.Success {
				t.Error("expected the delivered record")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("expected a record")
		}
	})

	t.Run("Tolerates A Nil Source", func(t *testing.T) {
		a := make(chan auth.Result, 1)
		a <- auth.Result{Success: true}

		select {
		case record := <-mergeResults(ctx, a, nil):
			if !record.Success {
				t.Error("expected the delivered record")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("expected a record")
		}
	})

	t.Run("Closes When Both Sources Close", func(t *testing.T) {
		a := make(chan auth.Result)
		b := make(chan auth.Result)
		close(a)
		close(b)

		select {
		case _, ok := <-mergeResults(ctx, a, b):
			if ok {
				t.Error("expected a closed channel")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("expected the merged channel to close")
		}
	})

	t.Run("Closes On Cancel", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		out := mergeResults(cancelled, make(chan auth.Result), make(chan auth.Result))
		cancel()

		select {
		case _, ok := <-out:
			if ok {
				t.Error("expected no record after cancel")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("expected the merged channel to close")
		}
	})
}

func TestWatchSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Expiry Event Drops Catalog And Selection", func(t *testing.T) {
		srv := httptest.NewServer(http.NewServeMux())
		defer srv.Close()

		r := newTestRunner(t, srv)
		loader := r.newLoader()
		sel := selection.NewSet()

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		r.watchSession(watchCtx, loader, sel)
		sel.SetTrack("pl_1", "t_1", true)

		r.events.Publish(auth.EventAuthExpired)

		deadline := time.Now().Add(2 * time.Second)
		for sel.TrackSelected("pl_1", "t_1") {
			if time.Now().After(deadline) {
				t.Fatal("expected selection cleared after expiry event")
			}
			time.Sleep(5 * time.Millisecond)
		}
		if len(loader.Playlists()) != 0 {
			t.Error("expected catalog reset after expiry event")
		}
	})

	t.Run("Unauthorized Response Ends The Session", func(t *testing.T) {
		var authorized atomic.Bool
		authorized.Store(true)
		mux := http.NewServeMux()
		mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"authenticated":true}`))
		})
		mux.HandleFunc("/api/playlists", func(w http.ResponseWriter, r *http.Request) {
			if !authorized.Load() {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"playlists":[{"id":"pl_1","name":"Focus"}]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		r := newTestRunner(t, srv)
		if err := r.store.Set(forgeToken(t, time.Now().Add(time.Hour).Unix())); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if state := r.session.Bootstrap(ctx, auth.Entry{}); state != auth.StateAuthenticated {
			t.Fatalf("expected authenticated, got %s", state)
		}

		loader := r.newLoader()
		sel := selection.NewSet()
		r.watchSession(ctx, loader, sel)

		if err := loader.LoadCollections(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		sel.SetPlaylist("pl_1", true, loader.Tracks, func(string) {})

		authorized.Store(false)
		if _, _, err := r.api.Playlists(ctx); err == nil {
			t.Fatal("expected an error from the unauthorized response")
		}

		deadline := time.Now().Add(2 * time.Second)
		for r.session.State() != auth.StateUnauthenticated {
			if time.Now().After(deadline) {
				t.Fatalf("expected unauthenticated after 401, got %s", r.session.State())
			}
			time.Sleep(5 * time.Millisecond)
		}
		if r.store.Get() != "" {
			t.Error("expected credential cleared after 401")
		}

		deadline = time.Now().Add(2 * time.Second)
		for len(loader.Playlists()) != 0 {
			if time.Now().After(deadline) {
				t.Fatal("expected catalog dropped after 401")
			}
			time.Sleep(5 * time.Millisecond)
		}
		if sel.PlaylistSelected("pl_1") {
			t.Error("expected selection cleared")
		}
	})
}
