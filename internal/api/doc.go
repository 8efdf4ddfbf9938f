// Package api implements the typed HTTP client for the collector backend.
//
// # REST Surface
//
// The backend exposes a fixed set of endpoints consumed by [Client]:
//
//	GET  /api/status                     session + quota snapshot
//	GET  /api/playlists                  playlists + quota
//	GET  /api/playlists/{id}/tracks      tracks for one playlist + quota
//	GET  /api/albums                     saved albums + quota
//	GET  /api/albums/{id}/tracks         tracks for one album + quota
//	POST /api/public-playlist            public playlist metadata + tracks
//	POST /api/public-playlist/download   export for a public playlist
//	POST /api/download                   export for the authenticated selection
//	GET  /auth                           begin backend OAuth
//	POST /auth/exchange                  trade redirect code for credential
//
// # Error Taxonomy
//
// Non-2xx responses become [APIError], which unwraps to one sentinel:
// 401 → [shared.ErrAuthExpired], 429 → [shared.ErrRateLimited] (carrying
// the backend's reset-time hint when the error body includes one), 404 →
// [shared.ErrPlaylistNotFound], anything else → [shared.ErrAPIRequest].
// Call sites branch with [errors.Is]; no operation here retries.
//
// # Export Headers
//
// Export endpoints return a binary body plus optional x-skipped-tracks and
// x-user-quota headers, each a JSON-encoded string. Both are parsed
// best-effort in [DownloadResult]; parse failures are logged and swallowed.
package api
