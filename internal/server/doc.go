// Package server provides the temporary local HTTP server used during the
// login flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Callback Handling
//
// When the user runs `spotcollect auth login`, a temporary server starts on
// the configured local port, the browser opens the backend's /auth page,
// and the server waits for one of two completion paths:
//
//   - [CallbackHandler] receives the OAuth redirect, validates the CSRF
//     state parameter, and delivers the authorization code through a
//     one-shot channel. The code is then exchanged for a credential via
//     the backend; the handler never talks to the provider itself.
//   - [ResultHandler] receives a completion message posted by the
//     backend's completion page. The message origin must match the
//     backend origin ([auth.CheckOrigin]) before the payload is trusted;
//     accepted results are mirrored to the shared result file so a
//     process that missed the live message still finds the record.
//
// Both handlers process at most one request to prevent replay.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
