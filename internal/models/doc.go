// Package models defines domain entities and persistence interfaces for the playlist collector client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs mirroring backend responses
//   - [Playlist] : Playlist metadata from the catalog endpoints
//   - [Track] : Song metadata with its ordered artist sequence
//   - [Quota] : Most recent server-reported usage snapshot
//   - [SkippedTrack] : Track the server could not include in an export
//   - [PlaylistSelection] : One playlist's contribution to an export request
//
// 2. Persistent Entities: Rows in the local catalog cache
//   - [CachedPlaylist] : Playlists mirrored across runs
//   - [CachedTrack] : Tracks owned by exactly one cached playlist
//
// Persistent entities implement the [Model] interface; the [Repository]
// interface defines standard CRUD operations for database access.
package models
