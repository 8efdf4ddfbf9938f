// Package auth owns the bearer credential and the client's belief about
// whether it is authenticated.
//
// # Token Store
//
// [Store] persists the credential to disk so it survives process restarts.
// [Store.Valid] decodes the expiry claim from the middle segment of the
// three-part token and fails closed: any decode failure means "no valid
// token", never an error.
//
// # Transport
//
// [Transport] is an [net/http.RoundTripper] that attaches the credential as
// an Authorization bearer header if and only if the store holds a valid
// token at send time. Any 401 response clears the stored credential and
// publishes [EventAuthExpired] on the broadcaster, decoupling the transport
// layer from everything above it.
//
// # Session Synchronizer
//
// [Synchronizer] reconciles the client-side "authenticated" belief with
// server truth. Exactly one of three entry triggers runs per process,
// guarded by an explicit one-shot flag (armed at creation, disarmed
// permanently after first use):
//
//  1. Redirect-code exchange: a callback code is exchanged for a credential
//     via the backend.
//  2. Completion signal: a login [Result] delivered through the result file
//     or the local callback server.
//  3. Passive status check: the status endpoint is authoritative, retried
//     at linearly increasing delays (1s, 2s, 3s) to bound flakiness right
//     after a login attempt.
//
// # Completion Signaling
//
// [ResultFile] is the shared-storage channel between the login helper and
// the main process: a JSON record with an embedded timestamp, swept once at
// startup and then observed via fsnotify. [CheckOrigin] is the named
// predicate gating message-delivered results; payloads from any other
// origin are ignored, never trusted.
package auth
