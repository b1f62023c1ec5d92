package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytdj/internal/formatter"
	"github.com/desertthunder/ytdj/internal/hub"
	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	TrackListView
	DetailView
)

const volumeStep = 5

// Remote is the HTTP side of a running hub. [services.RemoteService] implements it.
type Remote interface {
	Recommend(ctx context.Context, req services.RecommendRequest) (*models.TrackList, error)
	Radio(ctx context.Context, videoID string, limit int) (*models.TrackList, error)
	Tracks(ctx context.Context) (*models.TrackList, error)
	Track(ctx context.Context, idx int) (*models.TrackDetail, error)
	State(ctx context.Context) (*models.PlaybackState, error)
}

// Sync is the controller's websocket connection. [services.SyncConn] implements it.
type Sync interface {
	Send(msgType string, data any) error
	Receive() (services.SyncMessage, error)
}

// Model represents the remote controller state.
type Model struct {
	ctx       context.Context
	view      ViewState
	remote    Remote
	sync      Sync
	width     int
	height    int
	input     textinput.Model
	trackList list.Model
	current   *models.TrackList
	detail    *models.TrackDetail
	playback  models.PlaybackState
	paused    bool
	status    string
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a remote controller. sync may be nil, in which case volume and playback
// controls are disabled.
func NewModel(ctx context.Context, remote Remote, sync Sync) *Model {
	input := textinput.New()
	input.Placeholder = "song, artist or mood"
	input.Prompt = "search › "
	input.Focus()

	trackList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	trackList.SetFilteringEnabled(false)
	trackList.SetShowHelp(false)

	return &Model{
		ctx:       ctx,
		view:      SearchView,
		remote:    remote,
		sync:      sync,
		input:     input,
		trackList: trackList,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init loads the published list and playback state and starts listening to the hub.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fetchTracks(), m.fetchState(), m.listen())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		m.input.Width = msg.Width - 12
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgListFetched:
		res := msg.data.(listResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		if res.list == nil || res.list.Len() == 0 {
			m.status = "no tracks yet"
			return m, nil
		}
		m.setList(res.list)
		m.view = TrackListView
		return m, nil

	case MsgDetailFetched:
		res := msg.data.(detailResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.detail = res.detail
		m.view = DetailView
		cue := models.PlaybackCue{VideoID: res.detail.Track.ID, Title: res.detail.Track.Title, Timestamp: res.detail.StartOffset}
		m.playback.NowPlayingID = cue.VideoID
		m.playback.NowPlayingTitle = cue.Title
		m.playback.StartOffsetSeconds = cue.Timestamp
		return m, m.send(hub.TypePlay, cue)

	case MsgStateFetched:
		if st, ok := msg.data.(*models.PlaybackState); ok && st != nil {
			m.playback = *st
		}
		return m, nil

	case MsgSyncReceived:
		m.applySync(msg.data.(services.SyncMessage))
		return m, m.listen()

	case MsgSyncClosed:
		m.sync = nil
		if err, ok := msg.data.(error); ok && err != nil {
			m.status = err.Error()
		}
		return m, nil

	case MsgSent:
		if err, ok := msg.data.(error); ok && err != nil {
			m.err = err
		}
		return m, nil
	}
	return m, nil
}

// applySync folds a hub event into the local playback view.
func (m *Model) applySync(msg services.SyncMessage) {
	switch hub.MessageType(msg.Type) {
	case hub.TypePlay:
		var cue models.PlaybackCue
		if err := json.Unmarshal(msg.Data, &cue); err == nil {
			m.playback.NowPlayingID = cue.VideoID
			m.playback.NowPlayingTitle = cue.Title
			m.playback.StartOffsetSeconds = cue.Timestamp
			m.paused = false
		}
	case hub.TypeVolume:
		if volume, err := hub.ParseVolume(msg.Data); err == nil {
			m.playback.MasterVolume = volume
		}
	case hub.TypeControl:
		var ctl struct {
			Action string `json:"action"`
		}
		if err := json.Unmarshal(msg.Data, &ctl); err == nil {
			switch ctl.Action {
			case "pause":
				m.paused = true
			case "play", "resume":
				m.paused = false
			}
		}
	}
}

func (m *Model) setList(l *models.TrackList) {
	m.current = l
	m.trackList.SetItems(trackItems(l.Tracks))
	m.trackList.Title = fmt.Sprintf("%s • %s (v%d)", l.Query, l.Mode, l.Version)
	m.trackList.Select(0)
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.current != nil {
			m.view = TrackListView
		}
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.status = fmt.Sprintf("searching %q", query)
		return m, m.recommend(services.RecommendRequest{Query: query})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cmd, ok := m.handleSharedKeys(msg); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.enter):
		if _, ok := m.selected(); ok {
			return m, m.fetchDetail(m.trackList.Index())
		}
		return m, nil
	case key.Matches(msg, m.keys.radio):
		if t, ok := m.selected(); ok {
			m.status = fmt.Sprintf("radio from %s", t.Title)
			return m, m.startRadio(t.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cmd, ok := m.handleSharedKeys(msg); ok {
		return m, cmd
	}
	if key.Matches(msg, m.keys.back) {
		m.view = TrackListView
	}
	return m, nil
}

// handleSharedKeys covers bindings that work in both the list and the detail view.
func (m *Model) handleSharedKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.next):
		t, ok := m.nextTarget()
		if !ok {
			return nil, true
		}
		m.status = fmt.Sprintf("queueing after %s", t.Title)
		return m.recommend(services.RecommendRequest{Query: t.Title, NextPlay: true, VideoID: t.ID}), true
	case key.Matches(msg, m.keys.refresh):
		m.status = "refreshing"
		return m.recommend(services.RecommendRequest{Refresh: true}), true
	case key.Matches(msg, m.keys.volUp):
		return m.changeVolume(volumeStep), true
	case key.Matches(msg, m.keys.volDown):
		return m.changeVolume(-volumeStep), true
	case key.Matches(msg, m.keys.toggle):
		m.paused = !m.paused
		action := "play"
		if m.paused {
			action = "pause"
		}
		return m.send(hub.TypeControl, map[string]string{"action": action}), true
	}
	return nil, false
}

func (m *Model) selected() (models.Track, bool) {
	item, ok := m.trackList.SelectedItem().(trackItem)
	if !ok {
		return models.Track{}, false
	}
	return item.track, true
}

// nextTarget is the open detail's track, else the list selection.
func (m *Model) nextTarget() (models.Track, bool) {
	if m.view == DetailView && m.detail != nil {
		return m.detail.Track, true
	}
	return m.selected()
}

func (m *Model) changeVolume(delta int) tea.Cmd {
	volume := min(max(m.playback.MasterVolume+delta, 0), 100)
	m.playback.MasterVolume = volume
	return m.send(hub.TypeVolume, hub.VolumeData{Volume: volume})
}

func (m *Model) recommend(req services.RecommendRequest) tea.Cmd {
	return func() tea.Msg {
		list, err := m.remote.Recommend(m.ctx, req)
		return listFetchedMsg(list, err)
	}
}

func (m *Model) startRadio(videoID string) tea.Cmd {
	return func() tea.Msg {
		list, err := m.remote.Radio(m.ctx, videoID, 0)
		return listFetchedMsg(list, err)
	}
}

func (m *Model) fetchTracks() tea.Cmd {
	return func() tea.Msg {
		list, err := m.remote.Tracks(m.ctx)
		return listFetchedMsg(list, err)
	}
}

func (m *Model) fetchDetail(idx int) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.remote.Track(m.ctx, idx)
		return detailFetchedMsg(detail, err)
	}
}

func (m *Model) fetchState() tea.Cmd {
	return func() tea.Msg {
		st, err := m.remote.State(m.ctx)
		if err != nil {
			return nil
		}
		return stateFetchedMsg(st)
	}
}

func (m *Model) listen() tea.Cmd {
	conn := m.sync
	if conn == nil {
		return nil
	}
	return func() tea.Msg {
		msg, err := conn.Receive()
		if err != nil {
			return syncClosedMsg(err)
		}
		return syncReceivedMsg(msg)
	}
}

func (m *Model) send(t hub.MessageType, data any) tea.Cmd {
	conn := m.sync
	if conn == nil {
		return nil
	}
	return func() tea.Msg {
		return sentMsg(conn.Send(string(t), data))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case SearchView:
		body = m.renderSearch()
	case TrackListView:
		body = m.renderTrackList()
	case DetailView:
		body = m.renderDetail()
	}
	return fmt.Sprintf("%s\n%s\n\n%s", m.renderNowPlaying(), body, m.renderStatus())
}

func (m *Model) renderNowPlaying() string {
	if m.playback.NowPlayingID == "" {
		return styles.help.Render(fmt.Sprintf("nothing playing • vol %d", m.playback.MasterVolume))
	}
	icon := "▶"
	if m.paused {
		icon = "⏸"
	}
	return styles.playing.Render(fmt.Sprintf("%s %s • vol %d", icon, m.playback.NowPlayingTitle, m.playback.MasterVolume))
}

func (m *Model) renderStatus() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.sync == nil {
		if m.status == "" {
			return styles.warn.Render("not connected to hub")
		}
		return styles.warn.Render("not connected to hub • " + m.status)
	}
	return styles.help.Render(m.status)
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Search")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), helpView)
}

func (m *Model) renderTrackList() string {
	helpView := m.help.ShortHelpView([]key.Binding{
		m.keys.enter, m.keys.next, m.keys.radio, m.keys.refresh, m.keys.search, m.keys.volUp, m.keys.volDown, m.keys.quit,
	})
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderDetail() string {
	if m.detail == nil {
		return ""
	}
	title := styles.title.Render(m.detail.Track.Title)

	var verses string
	if len(m.detail.Verses) == 0 {
		verses = styles.warn.Render("no lyrics found")
	} else if text, err := formatter.VersesToText(*m.detail); err == nil {
		verses = styles.verse.Render(string(text))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.toggle, m.keys.volUp, m.keys.volDown, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, verses, helpView)
}
