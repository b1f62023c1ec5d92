package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/gorilla/websocket"
)

// RecommendRequest mirrors the form fields of POST /recommendations/.
type RecommendRequest struct {
	Query    string
	Limit    int
	NextPlay bool
	Refresh  bool
	VideoID  string
}

func (r RecommendRequest) form() url.Values {
	form := url.Values{}
	form.Set("query", r.Query)
	if r.Limit > 0 {
		form.Set("limit", strconv.Itoa(r.Limit))
	}
	if r.NextPlay {
		form.Set("nextPlay", "true")
	}
	if r.Refresh {
		form.Set("refresh", "true")
	}
	if r.VideoID != "" {
		form.Set("videoId", r.VideoID)
	}
	return form
}

// RemoteService is a typed client for a running ytdj server, used by the remote controller.
type RemoteService struct {
	api *APIService
}

// NewRemoteService wraps api.
func NewRemoteService(api *APIService) *RemoteService {
	return &RemoteService{api: api}
}

// Recommend posts a recommendation request and returns the published list.
func (s *RemoteService) Recommend(ctx context.Context, req RecommendRequest) (*models.TrackList, error) {
	resp, err := s.api.PostForm(ctx, "/recommendations/", req.form())
	if err != nil {
		return nil, err
	}
	var list models.TrackList
	if err := resp.Decode(&list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Radio starts a radio mix from videoID.
func (s *RemoteService) Radio(ctx context.Context, videoID string, limit int) (*models.TrackList, error) {
	form := url.Values{}
	form.Set("videoId", videoID)
	if limit > 0 {
		form.Set("limit", strconv.Itoa(limit))
	}
	resp, err := s.api.PostForm(ctx, "/radio/", form)
	if err != nil {
		return nil, err
	}
	var list models.TrackList
	if err := resp.Decode(&list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Tracks returns the currently published list.
func (s *RemoteService) Tracks(ctx context.Context) (*models.TrackList, error) {
	resp, err := s.api.Get(ctx, "/tracks/")
	if err != nil {
		return nil, err
	}
	var list models.TrackList
	if err := resp.Decode(&list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Track selects position idx and returns it with its verses.
func (s *RemoteService) Track(ctx context.Context, idx int) (*models.TrackDetail, error) {
	resp, err := s.api.Get(ctx, fmt.Sprintf("/track/%d/", idx))
	if err != nil {
		return nil, err
	}
	var detail models.TrackDetail
	if err := resp.Decode(&detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// State returns the server's playback state.
func (s *RemoteService) State(ctx context.Context) (*models.PlaybackState, error) {
	resp, err := s.api.Get(ctx, "/state/")
	if err != nil {
		return nil, err
	}
	var st models.PlaybackState
	if err := resp.Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SyncURL is the websocket URL of the server's hub for role.
func (s *RemoteService) SyncURL(role string) string {
	base := s.api.BaseURL()
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws/sync?role=" + url.QueryEscape(role)
}

// SyncMessage is a hub envelope as seen by a client.
type SyncMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	TS   float64         `json:"ts,omitempty"`
}

// SyncConn is a client connection to the hub.
type SyncConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// Dial opens a hub connection with role.
func (s *RemoteService) Dial(ctx context.Context, role string) (*SyncConn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, s.SyncURL(role), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrConnectionLost, err)
	}
	return &SyncConn{ws: ws}, nil
}

// Send writes a typed message with data marshalled as its payload.
func (c *SyncConn) Send(msgType string, data any) error {
	msg := SyncMessage{Type: msgType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		msg.Data = raw
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrConnectionLost, err)
	}
	return nil
}

// Receive blocks for the next hub message.
func (c *SyncConn) Receive() (SyncMessage, error) {
	var msg SyncMessage
	if err := c.ws.ReadJSON(&msg); err != nil {
		return msg, fmt.Errorf("%w: %v", shared.ErrConnectionLost, err)
	}
	return msg, nil
}

// Close closes the connection.
func (c *SyncConn) Close() error {
	return c.ws.Close()
}
