package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// resultRecheckDelay is how long after the startup sweep the result file is
// rechecked, covering a login helper that wrote the record while the
// watcher was still attaching.
const resultRecheckDelay = 500 * time.Millisecond

// Result is a login completion record passed from the login flow to the
// waiting process.
type Result struct {
	Success   bool   `json:"success"`
	Token     string `json:"token,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Age returns how long ago the record was written, by embedded timestamp.
func (r Result) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(r.Timestamp))
}

// ResultFile is the shared storage slot for login completion records.
//
// The login helper writes exactly one record; the waiting process consumes
// it once and deletes it. A record found already sitting at startup (the
// helper finished before any watcher attached) is still processed once, no
// matter how stale, then deleted.
type ResultFile struct {
	path   string
	logger *log.Logger
}

// NewResultFile creates a ResultFile at the given path.
func NewResultFile(path string, logger *log.Logger) *ResultFile {
	return &ResultFile{path: path, logger: logger}
}

// Path returns the file location backing this slot.
func (f *ResultFile) Path() string { return f.path }

// Write stores a completion record, stamping it with the current time.
func (f *ResultFile) Write(r Result) error {
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode auth result: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create auth result directory: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write auth result: %w", err)
	}

	return nil
}

// Sweep consumes a pending completion record if one exists. The record is
// deleted whether or not it parses; a parse failure is logged and reported
// as no record.
func (f *ResultFile) Sweep() (*Result, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, false
	}

	// Delete first so a malformed record is never processed twice
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		if f.logger != nil {
			f.logger.Warn("failed to delete auth result", "error", err)
		}
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		if f.logger != nil {
			f.logger.Error("failed to parse auth result", "error", err)
		}
		return nil, false
	}

	if f.logger != nil {
		f.logger.Debug("consumed auth result", "success", result.Success, "age", result.Age(time.Now()))
	}
	return &result, true
}

// Watch delivers completion records as they are written, starting with a
// startup sweep of any record already present, a delayed recheck, and then
// filesystem notifications until ctx is done.
func (f *ResultFile) Watch(ctx context.Context) (<-chan Result, error) {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create watch directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	results := make(chan Result, 1)

	deliver := func() {
		if r, ok := f.Sweep(); ok {
			select {
			case results <- *r:
			case <-ctx.Done():
			}
		}
	}

	go func() {
		defer watcher.Close()
		defer close(results)

		deliver()

		recheck := time.NewTimer(resultRecheckDelay)
		defer recheck.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-recheck.C:
				deliver()
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(f.path) {
					continue
				}
				if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
					deliver()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if f.logger != nil {
					f.logger.Warn("auth result watcher error", "error", err)
				}
			}
		}
	}()

	return results, nil
}
