package ui

import (
	"github.com/ewhitmore/spotcollect/internal/export"
)

// playlistsLoadedMsg reports the initial catalog fetch finishing.
type playlistsLoadedMsg struct {
	err error
}

// tracksLoadedMsg reports one playlist's track list fetch finishing.
type tracksLoadedMsg struct {
	playlistID string
	err        error
}

// exportDoneMsg reports the export request finishing.
type exportDoneMsg struct {
	result *export.Result
	err    error
}
