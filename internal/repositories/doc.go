// Package repositories implements SQLite persistence for the local catalog cache.
//
// Cached rows mirror the most recent backend responses and are replaced
// wholesale on re-fetch; the cache is never the source of truth for catalog
// contents.
//
// Key Implementations:
//   - [PlaylistRepository] : Cached playlist rows with wholesale replacement
//   - [TrackRepository] : Per-playlist track rows with position ordering
//   - [CacheAdapter] : catalog.CacheWriter over both repositories plus quota snapshots
//
// [Open] opens the configured database file and applies pending migrations
// before returning the connection.
package repositories
