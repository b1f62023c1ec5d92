package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/services"
)

// MsgKind enumerates all message types in the remote.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgListFetched MsgKind = iota
	MsgDetailFetched
	MsgStateFetched
	MsgSyncReceived
	MsgSyncClosed
	MsgSent
)

type listResult struct {
	list *models.TrackList
	err  error
}

type detailResult struct {
	detail *models.TrackDetail
	err    error
}

// listFetchedMsg is the constructor for [MsgListFetched]
func listFetchedMsg(list *models.TrackList, err error) Msg {
	return Msg{kind: MsgListFetched, data: listResult{list, err}}
}

// detailFetchedMsg is the constructor for [MsgDetailFetched]
func detailFetchedMsg(detail *models.TrackDetail, err error) Msg {
	return Msg{kind: MsgDetailFetched, data: detailResult{detail, err}}
}

// stateFetchedMsg is the constructor for [MsgStateFetched]
func stateFetchedMsg(state *models.PlaybackState) Msg {
	return Msg{kind: MsgStateFetched, data: state}
}

// syncReceivedMsg is the constructor for [MsgSyncReceived]
func syncReceivedMsg(msg services.SyncMessage) Msg {
	return Msg{kind: MsgSyncReceived, data: msg}
}

// syncClosedMsg is the constructor for [MsgSyncClosed]
func syncClosedMsg(err error) Msg {
	return Msg{kind: MsgSyncClosed, data: err}
}

// sentMsg is the constructor for [MsgSent]; err is nil on success.
func sentMsg(err error) Msg {
	return Msg{kind: MsgSent, data: err}
}
