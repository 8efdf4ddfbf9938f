package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ewhitmore/spotcollect/internal/catalog"
	"github.com/ewhitmore/spotcollect/internal/export"
	"github.com/ewhitmore/spotcollect/internal/formatter"
	"github.com/ewhitmore/spotcollect/internal/selection"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CatalogView ViewState = iota
	FormatView
	ExportingView
	ResultView
)

// exportFormats lists picker entries in display order.
var exportFormats = []string{"csv", "json", "txt"}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	loader    *catalog.Loader
	sel       *selection.Set
	requester *export.Requester

	width    int
	height   int
	cursor   int
	offset   int
	expanded map[string]bool
	format   int

	spin     spinner.Model
	help     help.Model
	keys     keyMap
	banner   string
	prefetch func()

	result *export.Result
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
// Track arrivals reconcile pending playlist selections before any redraw.
func NewModel(ctx context.Context, loader *catalog.Loader, sel *selection.Set, requester *export.Requester) *Model {
	loader.OnItems(sel.Reconcile)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:       ctx,
		view:      CatalogView,
		loader:    loader,
		sel:       sel,
		requester: requester,
		expanded:  make(map[string]bool),
		spin:      sp,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// SetPrefetch registers a fetch that runs once, in the background, after the
// initial playlist load succeeds. A nil fn disables it.
func (m *Model) SetPrefetch(fn func()) {
	m.prefetch = fn
}

// Init kicks off the initial catalog fetch.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadPlaylists(), m.spin.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CatalogView:
			return m.handleCatalogKeys(msg)
		case FormatView:
			return m.handleFormatKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case playlistsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		if fetch := m.prefetch; fetch != nil {
			m.prefetch = nil
			return m, func() tea.Msg {
				fetch()
				return nil
			}
		}
		return m, nil

	case tracksLoadedMsg:
		if msg.err != nil {
			m.banner = fmt.Sprintf("failed to load tracks: %v", msg.err)
		}
		return m, nil

	case exportDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case CatalogView:
		return m.renderCatalog()
	case FormatView:
		return m.renderFormatPicker()
	case ExportingView:
		return fmt.Sprintf("%s\n\n%s Requesting export...\n", styles.title.Render("Export"), m.spin.View())
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleCatalogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.buildRows()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}

	case "enter":
		if m.cursor < len(rows) && rows[m.cursor].kind == playlistRow {
			id := rows[m.cursor].playlistID
			m.expanded[id] = !m.expanded[id]
			if m.expanded[id] {
				if _, ok := m.loader.Tracks(id); !ok {
					return m, m.loadTracks(id)
				}
			}
		}

	case " ":
		if m.cursor < len(rows) {
			return m, m.toggleRow(rows[m.cursor])
		}

	case "a":
		all := m.loader.Playlists()
		target := !m.sel.AllSelected(all)
		var pending []string
		m.sel.SetAll(all, target, m.loader.Tracks, func(id string) {
			pending = append(pending, id)
		})
		return m, m.loadPending(pending)

	case "e":
		if _, tracks := m.sel.Counts(m.loader.Playlists()); tracks == 0 {
			m.banner = "nothing selected"
			return m, nil
		}
		m.banner = ""
		m.view = FormatView
	}

	m.clampCursor()
	return m, nil
}

func (m *Model) handleFormatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = CatalogView
	case "up", "k":
		if m.format > 0 {
			m.format--
		}
	case "down", "j":
		if m.format < len(exportFormats)-1 {
			m.format++
		}
	case "enter":
		m.view = ExportingView
		return m, tea.Batch(m.runExport(exportFormats[m.format]), m.spin.Tick)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = CatalogView
		m.result = nil
		m.err = nil
		m.banner = ""
	}
	return m, nil
}

// toggleRow flips the selection under the cursor. Selecting a playlist whose
// tracks are absent starts the fetch that the pending selection resolves
// against.
func (m *Model) toggleRow(r row) tea.Cmd {
	switch r.kind {
	case playlistRow:
		var pending []string
		target := !m.sel.PlaylistSelected(r.playlistID)
		m.sel.SetPlaylist(r.playlistID, target, m.loader.Tracks, func(id string) {
			pending = append(pending, id)
		})
		return m.loadPending(pending)

	case trackRow:
		current := m.sel.TrackSelected(r.playlistID, r.track.ID)
		m.sel.SetTrack(r.playlistID, r.track.ID, !current)
	}
	return nil
}

// loadPending issues one fetch command per playlist the selection layer
// asked for.
func (m *Model) loadPending(ids []string) tea.Cmd {
	if len(ids) == 0 {
		return nil
	}

	cmds := make([]tea.Cmd, 0, len(ids)+1)
	for _, id := range ids {
		cmds = append(cmds, m.loadTracks(id))
	}
	cmds = append(cmds, m.spin.Tick)
	return tea.Batch(cmds...)
}

func (m *Model) clampCursor() {
	rows := m.buildRows()
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) loadPlaylists() tea.Cmd {
	return func() tea.Msg {
		return playlistsLoadedMsg{err: m.loader.LoadCollections(m.ctx)}
	}
}

func (m *Model) loadTracks(playlistID string) tea.Cmd {
	return func() tea.Msg {
		return tracksLoadedMsg{playlistID: playlistID, err: m.loader.LoadItems(m.ctx, playlistID)}
	}
}

func (m *Model) runExport(format string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.requester.Download(m.ctx, format)
		return exportDoneMsg{result: result, err: err}
	}
}

func (m *Model) renderCatalog() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Playlists"))
	b.WriteString("\n")

	rows := m.buildRows()
	if len(rows) == 0 {
		b.WriteString(fmt.Sprintf("\n%s loading playlists...\n", m.spin.View()))
	}

	visible := m.height - 8
	if visible < 1 {
		visible = len(rows)
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}

	end := m.offset + visible
	if end > len(rows) {
		end = len(rows)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(rows[i], i == m.cursor))
		b.WriteString("\n")
	}

	playlists, tracks := m.sel.Counts(m.loader.Playlists())
	b.WriteString(fmt.Sprintf("\n%d playlist(s), %d track(s) selected\n", playlists, tracks))

	if quota := m.loader.Quota(); quota != nil {
		b.WriteString(styles.help.Render(formatter.RenderQuota(*quota)))
		b.WriteString("\n")
	}

	if m.banner != "" {
		b.WriteString(styles.warn.Render(m.banner))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderFormatPicker() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Export format"))
	b.WriteString("\n")

	for i, format := range exportFormats {
		if i == m.format {
			b.WriteString(styles.cursor.Render(fmt.Sprintf("> %s", format)))
		} else {
			b.WriteString(fmt.Sprintf("  %s", format))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.expand, m.keys.back, m.keys.quit}))
	return b.String()
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v\n\nPress r to go back, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to go back, q to quit")
	}

	var b strings.Builder

	b.WriteString(styles.ok.Render("✓ Export complete"))
	b.WriteString(fmt.Sprintf("\n\nSaved %s (%d bytes)\n", m.result.Path, m.result.Size))

	if report := formatter.RenderSkippedReport(m.result.Skipped); len(report) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(string(report)))
	}

	if m.result.Quota != nil {
		b.WriteString("\n")
		b.WriteString(styles.help.Render(formatter.RenderQuota(*m.result.Quota)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.retry, m.keys.quit}))
	return b.String()
}
