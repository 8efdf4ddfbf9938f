package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ewhitmore/spotcollect/internal/auth"
	"github.com/ewhitmore/spotcollect/internal/formatter"
	"github.com/ewhitmore/spotcollect/internal/server"
	"github.com/ewhitmore/spotcollect/internal/shared"
)

// AuthLogin runs the browser login flow.
//
// A temporary localhost server receives either the OAuth redirect or a
// completion message posted by the backend's completion page. A completion
// record landing in the shared result file is honored too, so a login
// finished by another process still settles this one.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	state := shared.GenerateID()
	port := r.config.Auth.CallbackPort
	redirectURI := fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	resultFile := auth.NewResultFile(shared.ExpandPath(r.config.Auth.ResultPath), r.logger)

	callback := server.NewCallbackHandler(state)
	completion := server.NewResultHandler(r.backendOrigin(), resultFile)

	router := server.NewBasicRouter()
	router.Handler(callback)
	router.Handler(completion)

	srv := &http.Server{Addr: fmt.Sprintf("127.0.0.1:%d", port), Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("callback server failed", "error", err)
		}
	}()
	defer srv.Close()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	records, err := resultFile.Watch(watchCtx)
	if err != nil {
		r.logger.Warn("result file watch unavailable", "error", err)
	}

	loginURL := r.api.LoginURL(state, redirectURI)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to log in:\n%s\n", loginURL)
	} else {
		r.logger.Info("opening browser for login")
		if err := shared.OpenBrowser(loginURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			r.writePlain("Open this URL to log in:\n%s\n", loginURL)
		}
	}

	timeout := time.Duration(r.config.Auth.LoginTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	done := make(chan error, 1)
	go func() {
		done <- r.session.AwaitLogin(watchCtx, mergeResults(watchCtx, completion.Result(), records), timeout)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()

	case cb := <-callback.Result():
		if cb.Error() != nil {
			r.session.HandleRedirect(ctx, "", cb.Error().Error())
		} else {
			r.session.HandleRedirect(ctx, cb.Code, "")
		}
		if !r.session.Authenticated() {
			return fmt.Errorf("%w: %s", shared.ErrAuthFailed, r.session.Message())
		}

	case err := <-done:
		if err != nil {
			return err
		}
	}

	r.writePlain("✓ Logged in\n")
	return nil
}

// mergeResults funnels completion records from the local server and the
// shared result file into one channel, delivering the first record only.
// Either source may be nil.
func mergeResults(ctx context.Context, a, b <-chan auth.Result) <-chan auth.Result {
	out := make(chan auth.Result, 1)
	go func() {
		defer close(out)
		for a != nil || b != nil {
			select {
			case <-ctx.Done():
				return
			case record, ok := <-a:
				if ok {
					out <- record
					return
				}
				a = nil
			case record, ok := <-b:
				if ok {
					out <- record
					return
				}
				b = nil
			}
		}
	}()
	return out
}

// AuthExchange trades a redirect authorization code for a session. Useful
// when the redirect landed in a browser that cannot reach the local
// callback server.
func (r *Runner) AuthExchange(ctx context.Context, cmd *cli.Command) error {
	code := cmd.StringArg("code")
	if code == "" {
		return fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	r.session.HandleRedirect(ctx, code, "")
	if !r.session.Authenticated() {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, r.session.Message())
	}

	r.writePlain("✓ Logged in\n")
	return nil
}

// AuthStatus checks current session state against the backend status endpoint.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking session status")

	state := r.bootstrap(ctx)

	switch state {
	case auth.StateAuthenticated:
		r.writePlain("✓ Authenticated\n")
		if userID := r.store.UserID(); userID != "" {
			r.writePlain("User: %s\n", userID)
		}
		if exp := r.store.Expiration(); !exp.IsZero() {
			r.writePlain("Session expires: %s\n", exp.Format(time.RFC1123))
		}
		if quota := r.session.Quota(); quota != nil {
			r.writePlain("%s\n", formatter.RenderQuota(*quota))
		}
	case auth.StateUnauthenticated:
		r.writePlain("✗ Not authenticated\n")
		if msg := r.session.Message(); msg != "" {
			r.writePlain("%s\n", msg)
		}
	default:
		r.writePlain("Session state: %s\n", state)
	}

	return nil
}

// AuthLogout discards the local credential.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Logout(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	r.writePlain("✓ Logged out\n")
	return nil
}

// backendOrigin returns the origin trusted for completion messages.
func (r *Runner) backendOrigin() string {
	if r.config.Server.Origin != "" {
		return r.config.Server.Origin
	}
	return r.api.Origin()
}
