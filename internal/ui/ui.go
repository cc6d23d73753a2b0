package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/duskmoss/sortify/internal/models"
	"github.com/duskmoss/sortify/internal/services"
	"github.com/duskmoss/sortify/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	RuleView
	ConfirmView
	SortView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	spotify      services.Service
	engine       tasks.SortEngine
	width        int
	height       int
	playlistList list.Model
	playlists    []models.PlaylistSummary
	trackList    list.Model
	fieldList    list.Model
	selected     *models.PlaylistSummary
	rows         []models.TrackRow
	rules        []models.SortRule
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.SortRunResult
	err          error
	help         help.Model
	keys         keyMap
}

type playlistsFetchedMsg struct {
	playlists []models.PlaylistSummary
	err       error
}

type tracksFetchedMsg struct {
	rows []models.TrackRow
	err  error
}

type progressUpdateMsg tasks.ProgressUpdate

type sortCompleteMsg struct {
	result *tasks.SortRunResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, spotify services.Service, engine tasks.SortEngine) *Model {
	return &Model{
		ctx:     ctx,
		view:    PlaylistListView,
		spotify: spotify,
		engine:  engine,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by fetching playlists from Spotify.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.fieldList.Width() == 0 {
			m.fieldList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case RuleView:
			return m.handleRuleKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Spotify Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case tracksFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		m.rows = msg.rows
		items := make([]list.Item, len(msg.rows))
		for i, row := range msg.rows {
			items[i] = trackItem{track: row}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", m.selected.Name)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case sortCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case RuleView:
		return m.renderRules()
	case ConfirmView:
		return m.renderConfirm()
	case SortView:
		return m.renderSort()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				m.selected = &pl.playlist
				return m, m.fetchTracks(pl.playlist.ID)
			}
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlaylistListView
		return m, nil
	case "enter":
		m.initFieldList()
		m.view = RuleView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleRuleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = TrackListView
		return m, nil
	case "a":
		m.addRule(models.Ascending)
		return m, nil
	case "d":
		m.addRule(models.Descending)
		return m, nil
	case "c":
		m.rules = nil
		return m, nil
	case "enter":
		if len(m.rules) > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.fieldList, cmd = m.fieldList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		m.view = RuleView
		return m, nil
	case "y":
		m.view = SortView
		return m, m.startSort()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PlaylistListView
		m.selected = nil
		m.rows = nil
		m.rules = nil
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	case RuleView:
		m.fieldList, cmd = m.fieldList.Update(msg)
	}
	return m, cmd
}

func (m *Model) initFieldList() {
	fields := models.SortFields()
	items := make([]list.Item, len(fields))
	for i, field := range fields {
		items[i] = fieldItem{field: field}
	}
	m.fieldList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.fieldList.Title = "Sort by"
	m.fieldList.SetSize(m.width-4, m.height-8)
}

// addRule appends a rule for the highlighted field, replacing any earlier
// rule on the same field so each field appears at most once.
func (m *Model) addRule(direction models.SortDirection) {
	selected := m.fieldList.SelectedItem()
	item, ok := selected.(fieldItem)
	if !ok {
		return
	}

	rules := make([]models.SortRule, 0, len(m.rules)+1)
	for _, rule := range m.rules {
		if rule.Field != item.field {
			rules = append(rules, rule)
		}
	}
	m.rules = append(rules, models.SortRule{Field: item.field, Direction: direction})
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.spotify.GetPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) fetchTracks(playlistID string) tea.Cmd {
	return func() tea.Msg {
		rows, err := m.spotify.GetPlaylistTracks(m.ctx, playlistID)
		return tracksFetchedMsg{rows: rows, err: err}
	}
}

func (m *Model) startSort() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func(progress chan tasks.ProgressUpdate) {
		result, err := m.engine.Run(m.ctx, progress, m.selected.ID, "", m.rules)
		m.result = result
		m.err = err
		close(progress)
	}(m.progressChan)

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return sortCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return sortCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) rulesSummary() string {
	parts := make([]string, len(m.rules))
	for i, rule := range m.rules {
		parts[i] = rule.String()
	}
	return strings.Join(parts, ", ")
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	sortKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "choose sort"),
	)
	helpKeys := []key.Binding{sortKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderRules() string {
	current := "Rules: (none)"
	if len(m.rules) > 0 {
		current = fmt.Sprintf("Rules: %s", m.rulesSummary())
	}

	confirmKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	)
	helpKeys := []key.Binding{m.keys.asc, m.keys.desc, m.keys.clear, confirmKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n\n%s\n\n%s", m.fieldList.View(), styles.warn.Render(current), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sort '%s'?", m.selected.Name))
	info := fmt.Sprintf("\nPlaylist: %s\nTracks: %d\nRules: %s\n\nA new playlist will be created; the original stays untouched.\n",
		m.selected.Name, len(m.rows), m.rulesSummary())

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSort() string {
	title := styles.title.Render("Sorting Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchSource, tasks.FetchTracks:
		phase = "Fetching tracks..."
	case tasks.SortTracks:
		phase = "Ordering tracks..."
	case tasks.CreatePlaylist:
		phase = "Creating playlist..."
	case tasks.WriteTracks:
		phase = fmt.Sprintf("Writing tracks (batch %d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sort failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Sort Complete!")
	info := fmt.Sprintf(
		"\nSource: %s (%d tracks)\nCreated: %s\nRules: %s\nBatches written: %d",
		m.result.Source.Name,
		m.result.TrackCount,
		m.result.Created.Name,
		m.rulesSummary(),
		m.result.Batches,
	)

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
