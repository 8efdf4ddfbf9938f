package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/ewhitmore/spotcollect/internal/api"
	"github.com/ewhitmore/spotcollect/internal/auth"
	"github.com/ewhitmore/spotcollect/internal/catalog"
	"github.com/ewhitmore/spotcollect/internal/repositories"
	"github.com/ewhitmore/spotcollect/internal/selection"
	"github.com/ewhitmore/spotcollect/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	store   *auth.Store
	events  *auth.Broadcaster
	session *auth.Synchronizer
	api     *api.Client
	logger  *log.Logger
	output  io.Writer

	cache *repositories.CacheAdapter
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// Every request the API client sends goes through [auth.Transport], so the
// stored credential is attached when valid and a 401 clears it and raises
// the expiry event before any command sees the response.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	store := auth.NewStore(shared.ExpandPath(opts.Config.Auth.TokenPath), opts.Logger)
	events := auth.NewBroadcaster()

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	base := httpClient.Transport
	httpClient.Transport = &auth.Transport{
		Base:   base,
		Store:  store,
		Events: events,
		Logger: opts.Logger,
	}

	client := api.NewClient(opts.Config.Server.BaseURL, httpClient, opts.Logger)
	session := auth.NewSynchronizer(store, client, events, opts.Logger)
	session.WatchExpiry(context.Background())

	return &Runner{
		config:  opts.Config,
		store:   store,
		events:  events,
		session: session,
		api:     client,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// SetLogger swaps the runner's logger, used when the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		authCommand, playlistsCommand, albumsCommand, exportCommand, publicCommand, cacheCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// newLoader builds a catalog loader wired to the API client, with the local
// cache attached when the database opens. Cache failures degrade to an
// uncached loader.
func (r *Runner) newLoader() *catalog.Loader {
	var cache catalog.CacheWriter
	if adapter := r.openCache(); adapter != nil {
		cache = adapter
	}

	return catalog.NewLoader(catalog.Opts{
		Backend:   r.api,
		Cache:     cache,
		Logger:    r.logger,
		RateLimit: r.config.Catalog.RateLimit,
		Workers:   r.config.Catalog.Workers,
	})
}

// openCache opens the catalog cache database once per process. Returns nil
// when the database cannot be opened.
func (r *Runner) openCache() *repositories.CacheAdapter {
	if r.cache != nil {
		return r.cache
	}

	db, err := repositories.Open(r.config.Database)
	if err != nil {
		r.logger.Warn("catalog cache unavailable", "error", err)
		return nil
	}

	r.cache = repositories.NewCacheAdapter(db)
	return r.cache
}

// bootstrap runs the one-shot session entry protocol before a command that
// needs an authenticated view of the catalog.
func (r *Runner) bootstrap(ctx context.Context) auth.State {
	pending, _ := auth.NewResultFile(shared.ExpandPath(r.config.Auth.ResultPath), r.logger).Sweep()
	state := r.session.Bootstrap(ctx, auth.Entry{Pending: pending})
	if pending != nil && state == auth.StateAuthenticated {
		r.logger.Info("applied pending login result")
	}
	return state
}

// eagerPrefetch returns the background track fetch run once the playlist
// list has arrived, or nil when prefetching is configured lazy.
func (r *Runner) eagerPrefetch(ctx context.Context, loader *catalog.Loader) func() {
	if r.config.Catalog.Prefetch == "lazy" {
		return nil
	}
	return func() {
		if err := loader.PrefetchAll(ctx, nil); err != nil {
			r.logger.Warn("prefetch incomplete", "error", err)
		}
	}
}

// watchSession drops catalog and selection state when the session ends,
// whether through credential expiry or an explicit logout.
func (r *Runner) watchSession(ctx context.Context, loader *catalog.Loader, sel *selection.Set) {
	expired := r.events.Subscribe(auth.EventAuthExpired)
	loggedOut := r.events.Subscribe(auth.EventLoggedOut)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-expired:
			case <-loggedOut:
			}
			loader.Reset()
			sel.Clear()
		}
	}()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
