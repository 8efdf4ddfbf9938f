// package catalog loads and caches the collection hierarchy from the backend.
//
// The Loader owns the cache-once policy: once a playlist's track list is
// fetched it is never re-fetched or mutated in place for the lifetime of
// the session. A per-playlist loading flag is the sole duplicate-request
// guard; overlapping triggers that slip past it are a tolerated,
// non-fatal inefficiency, not a correctness problem.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ewhitmore/spotcollect/internal/models"
	"golang.org/x/time/rate"
)

// Backend is the subset of the API client the loader drives.
type Backend interface {
	Playlists(ctx context.Context) ([]models.Playlist, *models.Quota, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, *models.Quota, error)
}

// CacheWriter persists fetched catalog data. Optional; write failures are
// logged and never fail a fetch.
type CacheWriter interface {
	PutPlaylists(playlists []models.Playlist) error
	PutTracks(playlistID string, tracks []models.Track) error
	PutQuota(quota models.Quota) error
}

// ItemsFunc observes a playlist's track list transitioning from absent to
// present. Selection reconciliation hangs off this hook.
type ItemsFunc func(playlistID string, tracks []models.Track)

// Opts configures a Loader.
type Opts struct {
	Backend   Backend
	Cache     CacheWriter // optional
	Logger    *log.Logger
	RateLimit float64 // prefetch requests per second (default 5)
	Workers   int     // prefetch worker count (default 5, max 10)
}

// Loader fetches playlists and, lazily or eagerly, per-playlist tracks.
type Loader struct {
	mu        sync.Mutex
	playlists []models.Playlist
	tracks    map[string][]models.Track
	loading   map[string]bool
	quota     *models.Quota
	onItems   []ItemsFunc

	backend Backend
	cache   CacheWriter
	logger  *log.Logger
	limiter *rate.Limiter
	workers int
}

// NewLoader creates an empty Loader.
func NewLoader(opts Opts) *Loader {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}

	return &Loader{
		tracks:  make(map[string][]models.Track),
		loading: make(map[string]bool),
		backend: opts.Backend,
		cache:   opts.Cache,
		logger:  opts.Logger,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		workers: opts.Workers,
	}
}

// OnItems registers a hook observing track-list arrivals. Hooks run on the
// fetching goroutine, keyed by arrival order.
func (l *Loader) OnItems(fn ItemsFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onItems = append(l.onItems, fn)
}

// LoadCollections fetches the playlist list and quota snapshot. Called once
// per transition into the authenticated state; never retried automatically.
func (l *Loader) LoadCollections(ctx context.Context) error {
	playlists, quota, err := l.backend.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch playlists: %w", err)
	}

	l.mu.Lock()
	l.playlists = playlists
	if quota != nil {
		l.quota = quota
	}
	l.mu.Unlock()

	if l.cache != nil {
		if err := l.cache.PutPlaylists(playlists); err != nil && l.logger != nil {
			l.logger.Warn("failed to cache playlists", "error", err)
		}
		if quota != nil {
			if err := l.cache.PutQuota(*quota); err != nil && l.logger != nil {
				l.logger.Warn("failed to cache quota", "error", err)
			}
		}
	}

	return nil
}

// LoadItems fetches one playlist's tracks. A no-op if the tracks are
// already present or already loading. The loading flag is cleared on every
// path out, success or not.
func (l *Loader) LoadItems(ctx context.Context, playlistID string) error {
	l.mu.Lock()
	if _, ok := l.tracks[playlistID]; ok || l.loading[playlistID] {
		l.mu.Unlock()
		return nil
	}
	l.loading[playlistID] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.loading, playlistID)
		l.mu.Unlock()
	}()

	tracks, quota, err := l.backend.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to fetch tracks for %s: %w", playlistID, err)
	}
	if tracks == nil {
		tracks = []models.Track{}
	}

	l.mu.Lock()
	l.tracks[playlistID] = tracks
	if quota != nil {
		l.quota = quota
	}
	hooks := make([]ItemsFunc, len(l.onItems))
	copy(hooks, l.onItems)
	l.mu.Unlock()

	if l.cache != nil {
		if err := l.cache.PutTracks(playlistID, tracks); err != nil && l.logger != nil {
			l.logger.Warn("failed to cache tracks", "playlist", playlistID, "error", err)
		}
	}

	for _, fn := range hooks {
		fn(playlistID, tracks)
	}

	return nil
}

// PrefetchAll eagerly requests tracks for every loaded playlist through a
// rate-limited worker pool. Fetches are concurrent with no ordering
// guarantee; per-playlist errors are reported on progress and do not stop
// the remaining fetches. The first session-expiry error aborts the sweep.
func (l *Loader) PrefetchAll(ctx context.Context, progress chan<- ProgressUpdate) error {
	ids := make([]string, 0, len(l.Playlists()))
	for _, pl := range l.Playlists() {
		ids = append(ids, pl.ID)
	}
	total := len(ids)
	if total == 0 {
		return nil
	}

	jobs := make(chan string, total)
	errs := make(chan error, total)

	var wg sync.WaitGroup
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := l.limiter.Wait(ctx); err != nil {
					errs <- err
					return
				}
				if err := l.LoadItems(ctx, id); err != nil {
					if l.logger != nil {
						l.logger.Warn("prefetch failed", "playlist", id, "error", err)
					}
					errs <- err
					continue
				}
				errs <- nil
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(errs)
	}()

	var firstErr error
	done := 0
	for err := range errs {
		done++
		sendProgress(progress, fetchTracksUpdate(done, total))
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Playlists returns the loaded playlist list in server order.
func (l *Loader) Playlists() []models.Playlist {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Playlist, len(l.playlists))
	copy(out, l.playlists)
	return out
}

// Tracks returns one playlist's track list and whether it has arrived.
func (l *Loader) Tracks(playlistID string) ([]models.Track, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tracks, ok := l.tracks[playlistID]
	return tracks, ok
}

// Loading reports whether a fetch for the playlist is in flight.
func (l *Loader) Loading(playlistID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading[playlistID]
}

// AnyLoading reports whether any track fetch is in flight.
func (l *Loader) AnyLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.loading) > 0
}

// Quota returns the most recent server-reported quota snapshot, or nil.
// The snapshot is whatever the last response carried, never merged.
func (l *Loader) Quota() *models.Quota {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.quota == nil {
		return nil
	}
	q := *l.quota
	return &q
}

// SetQuota replaces the quota snapshot wholesale.
func (l *Loader) SetQuota(q *models.Quota) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quota = q
}

// Reset drops all loaded state. Called on logout and session expiry.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.playlists = nil
	l.tracks = make(map[string][]models.Track)
	l.loading = make(map[string]bool)
	l.quota = nil
}
