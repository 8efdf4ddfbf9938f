// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for collecting and exporting playlists:
//  1. [CatalogView] : Browse the playlist tree with two-level checkbox selection
//  2. [FormatView] : Pick the export format (csv, json, txt)
//  3. [ExportingView] : Wait on the server building the export file
//  4. [ResultView] : Display the saved file, skipped tracks, and quota usage
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Playlists start collapsed; expanding one fetches its track list on first
// use and shows a spinner placeholder until the rows arrive. Selecting a
// playlist before its tracks load records a pending selection that resolves
// when the fetch completes.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, space, a, e, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
