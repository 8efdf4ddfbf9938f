package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResultFile(t *testing.T) {
	newFile := func(t *testing.T) *ResultFile {
		t.Helper()
		return NewResultFile(filepath.Join(t.TempDir(), "auth_result.json"), nil)
	}

	t.Run("Write And Sweep", func(t *testing.T) {
		f := newFile(t)

		if err := f.Write(Result{Success: true, Token: "tok_1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		r, ok := f.Sweep()
		if !ok {
			t.Fatal("expected a record")
		}
		if !r.Success || r.Token != "tok_1" {
			t.Errorf("unexpected record %+v", r)
		}
		if r.Timestamp == 0 {
			t.Error("expected write to stamp the record")
		}
	})

	t.Run("Sweep Consumes Once", func(t *testing.T) {
		f := newFile(t)
		if err := f.Write(Result{Success: true}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if _, ok := f.Sweep(); !ok {
			t.Fatal("expected first sweep to find the record")
		}
		if _, ok := f.Sweep(); ok {
			t.Error("expected second sweep to find nothing")
		}
		if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
			t.Error("expected record file deleted")
		}
	})

	t.Run("Sweep Without File", func(t *testing.T) {
		f := newFile(t)
		if _, ok := f.Sweep(); ok {
			t.Error("expected no record")
		}
	})

	t.Run("Malformed Record Deleted", func(t *testing.T) {
		f := newFile(t)
		if err := os.WriteFile(f.Path(), []byte("{not json"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		if _, ok := f.Sweep(); ok {
			t.Error("expected malformed record reported absent")
		}
		if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
			t.Error("expected malformed record deleted anyway")
		}
	})

	t.Run("Stale Record Still Consumed", func(t *testing.T) {
		f := newFile(t)
		stale := time.Now().Add(-24 * time.Hour).UnixMilli()
		if err := f.Write(Result{Success: true, Timestamp: stale}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		r, ok := f.Sweep()
		if !ok {
			t.Fatal("expected the stale record")
		}
		if r.Age(time.Now()) < 23*time.Hour {
			t.Errorf("expected the original timestamp kept, got age %s", r.Age(time.Now()))
		}
	})

	t.Run("Watch Delivers Startup Record", func(t *testing.T) {
		f := newFile(t)
		if err := f.Write(Result{Success: true, Token: "tok_2"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		results, err := f.Watch(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		select {
		case r := <-results:
			if r.Token != "tok_2" {
				t.Errorf("unexpected record %+v", r)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("expected the startup sweep to deliver the record")
		}
	})

	t.Run("Watch Delivers Later Write", func(t *testing.T) {
		f := newFile(t)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		results, err := f.Watch(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if err := f.Write(Result{Success: false, Error: "denied"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		select {
		case r := <-results:
			if r.Success || r.Error != "denied" {
				t.Errorf("unexpected record %+v", r)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("expected the watcher to deliver the record")
		}
	})

	t.Run("Watch Closes On Cancel", func(t *testing.T) {
		f := newFile(t)

		ctx, cancel := context.WithCancel(context.Background())
		results, err := f.Watch(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		cancel()

		select {
		case _, ok := <-results:
			if ok {
				t.Error("expected channel closed, got a record")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("expected channel to close after cancel")
		}
	})
}

func TestCheckOrigin(t *testing.T) {
	cases := []struct {
		name    string
		origin  string
		backend string
		want    bool
	}{
		{"Exact Match", "http://127.0.0.1:3001", "http://127.0.0.1:3001", true},
		{"Case Insensitive", "HTTP://Example.com:8080", "http://example.com:8080", true},
		{"Default HTTP Port", "http://example.com", "http://example.com:80", true},
		{"Default HTTPS Port", "https://example.com:443", "https://example.com", true},
		{"Port Mismatch", "http://127.0.0.1:3000", "http://127.0.0.1:3001", false},
		{"Scheme Mismatch", "https://127.0.0.1:3001", "http://127.0.0.1:3001", false},
		{"Host Mismatch", "http://evil.example.com", "http://example.com", false},
		{"Empty Origin", "", "http://127.0.0.1:3001", false},
		{"Empty Backend", "http://127.0.0.1:3001", "", false},
		{"Not A URL", "::::", "http://127.0.0.1:3001", false},
		{"Missing Scheme", "127.0.0.1:3001", "http://127.0.0.1:3001", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckOrigin(tc.origin, tc.backend); got != tc.want {
				t.Errorf("CheckOrigin(%q, %q) = %v, expected %v", tc.origin, tc.backend, got, tc.want)
			}
		})
	}
}
