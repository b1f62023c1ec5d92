// package hub relays playback events between player and controller connections
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/desertthunder/ytdj/internal/state"
)

// Role partitions connections for targeted broadcasts.
type Role string

const (
	RolePlayer     Role = "player"
	RoleController Role = "controller"
	// RoleAll targets every connection in [Hub.Broadcast].
	RoleAll Role = ""
)

// ParseRole maps a query value to a Role. Anything but "player" is a controller.
func ParseRole(s string) Role {
	if Role(s) == RolePlayer {
		return RolePlayer
	}
	return RoleController
}

// Conn is the minimal JSON transport a hub client needs.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

// Recorder persists announced plays.
type Recorder interface {
	Record(ctx context.Context, cue models.PlaybackCue) error
}

// SendResult reports delivery to one target of a broadcast.
type SendResult struct {
	ClientID string
	Err      error
}

type client struct {
	id   string
	role Role
	conn Conn

	mu sync.Mutex
}

func (c *client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// HubOpts configures a [Hub].
type HubOpts struct {
	Store    *state.Store
	Logger   *log.Logger
	QR       QREncoder
	Recorder Recorder
	Now      func() time.Time
}

// Hub tracks open connections by role and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client

	store    *state.Store
	logger   *log.Logger
	qr       QREncoder
	recorder Recorder
	now      func() time.Time
}

// New creates a Hub. A nil store gets a fresh one at full volume.
func New(opts HubOpts) *Hub {
	if opts.Store == nil {
		opts.Store = state.NewStore(100)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.QR == nil {
		opts.QR = EncodeQR
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Hub{
		clients:  make(map[string]*client),
		store:    opts.Store,
		logger:   shared.WithLogger(opts.Logger, "component", "hub"),
		qr:       opts.QR,
		recorder: opts.Recorder,
		now:      opts.Now,
	}
}

// Register adds conn under role and pushes the current master volume to it.
//
// If that first write fails the connection is dropped and [shared.ErrConnectionLost] returned.
func (h *Hub) Register(conn Conn, role Role) (string, error) {
	if role != RolePlayer {
		role = RoleController
	}
	c := &client{id: shared.GenerateID(), role: role, conn: conn}

	h.mu.Lock()
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client connected", "id", c.id, "role", role, "total", total)

	msg, _ := NewMessage(TypeVolume, VolumeData{Volume: h.store.Playback().MasterVolume})
	if err := c.send(msg); err != nil {
		h.evict(c.id)
		return "", fmt.Errorf("%w: %v", shared.ErrConnectionLost, err)
	}
	return c.id, nil
}

// Unregister removes the connection from every role set. It does not close it.
func (h *Hub) Unregister(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; !ok {
		return false
	}
	delete(h.clients, id)
	return true
}

func (h *Hub) evict(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()

	if ok {
		_ = c.conn.Close()
		h.logger.Warn("client evicted", "id", id, "role", c.role)
	}
}

// Count returns the number of open connections with role, or all of them for [RoleAll].
func (h *Hub) Count(role Role) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if role == RoleAll {
		return len(h.clients)
	}
	n := 0
	for _, c := range h.clients {
		if c.role == role {
			n++
		}
	}
	return n
}

func (h *Hub) targets(senderID string, role Role) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*client, 0, len(h.clients))
	for id, c := range h.clients {
		if id == senderID {
			continue
		}
		if role != RoleAll && c.role != role {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Broadcast sends msg to every connection with role except senderID.
//
// Sends run concurrently. A failed send evicts that connection and does not affect the others.
func (h *Hub) Broadcast(msg Message, senderID string, role Role) []SendResult {
	targets := h.targets(senderID, role)
	results := make([]SendResult, len(targets))

	var wg sync.WaitGroup
	for i, c := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = SendResult{ClientID: c.id, Err: c.send(msg)}
		}()
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			h.evict(r.ClientID)
		}
	}
	return results
}

// SendTo writes msg to a single connection.
func (h *Hub) SendTo(id string, msg Message) error {
	h.mu.RLock()
	c, ok := h.clients[id]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: client %s", shared.ErrConnectionLost, id)
	}
	if err := c.send(msg); err != nil {
		h.evict(id)
		return fmt.Errorf("%w: %v", shared.ErrConnectionLost, err)
	}
	return nil
}

// Handle dispatches one inbound message from senderID.
func (h *Hub) Handle(ctx context.Context, senderID string, msg Message) error {
	switch msg.Type {
	case TypePing:
		return h.SendTo(senderID, Message{Type: TypePong, TS: h.timestamp()})
	case TypePlay, TypeControl:
		h.Broadcast(Message{Type: msg.Type, Data: msg.Data}, senderID, RoleAll)
		return nil
	case TypeVolume:
		volume, err := ParseVolume(msg.Data)
		if err != nil {
			h.logger.Warn("ignoring volume message", "id", senderID, "error", err)
			return nil
		}
		state := h.store.SetVolume(volume)
		out, _ := NewMessage(TypeVolume, VolumeData{Volume: state.MasterVolume})
		h.Broadcast(out, senderID, RoleAll)
		return nil
	case TypeQR:
		var req QRRequest
		if len(msg.Data) > 0 {
			_ = json.Unmarshal(msg.Data, &req)
		}
		if req.URL == "" {
			return nil
		}
		img, err := h.qr(req.URL)
		if err != nil {
			h.logger.Warn("qr encode failed", "url", req.URL, "error", err)
			return nil
		}
		reply, _ := NewMessage(TypeQR, QRData{Img: img, URL: req.URL})
		return h.SendTo(senderID, reply)
	default:
		return fmt.Errorf("%w: %q", shared.ErrUnknownMessage, msg.Type)
	}
}

// Serve registers conn and runs its read loop until the peer goes away or ctx ends.
//
// Only this connection's reads block here; fan-out writes happen on the sender's loop.
func (h *Hub) Serve(ctx context.Context, conn Conn, role Role) error {
	id, err := h.Register(conn, role)
	if err != nil {
		return err
	}
	defer func() {
		if h.Unregister(id) {
			_ = conn.Close()
			h.logger.Info("client disconnected", "id", id, "total", h.Count(RoleAll))
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug("read ended", "id", id, "error", err)
			return nil
		}

		if err := h.Handle(ctx, id, msg); err != nil {
			if errors.Is(err, shared.ErrConnectionLost) {
				return err
			}
			h.logger.Warn("handle failed", "id", id, "type", msg.Type, "error", err)
		}
	}
}

// Announce records cue as now playing and sends a play event to every connection.
func (h *Hub) Announce(ctx context.Context, cue models.PlaybackCue) {
	h.store.SetNowPlaying(cue)

	msg, err := NewMessage(TypePlay, PlayData(cue))
	if err != nil {
		h.logger.Error("encode play", "error", err)
		return
	}
	results := h.Broadcast(msg, "", RoleAll)
	h.logger.Info("announced", "videoId", cue.VideoID, "title", cue.Title, "targets", len(results))

	if h.recorder != nil {
		if err := h.recorder.Record(ctx, cue); err != nil {
			h.logger.Warn("failed to record play", "videoId", cue.VideoID, "error", err)
		}
	}
}

// Cue records where the current track should start without notifying anyone.
func (h *Hub) Cue(seconds int) models.PlaybackState {
	return h.store.SetStartOffset(seconds)
}

// BroadcastVolume handles a raw text volume from the legacy endpoint and sends it to everyone.
func (h *Hub) BroadcastVolume(text string) ([]SendResult, error) {
	volume, err := ParseVolumeText(text)
	if err != nil {
		return nil, err
	}
	state := h.store.SetVolume(volume)
	msg, _ := NewMessage(TypeVolume, VolumeData{Volume: state.MasterVolume})
	return h.Broadcast(msg, "", RoleAll), nil
}

// BroadcastControl sends a raw JSON control payload from the legacy player endpoint to everyone.
func (h *Hub) BroadcastControl(raw []byte) ([]SendResult, error) {
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: control payload is not JSON", shared.ErrInvalidInput)
	}
	return h.Broadcast(Message{Type: TypeControl, Data: json.RawMessage(raw)}, "", RoleAll), nil
}

// QR renders url as a base64 PNG.
func (h *Hub) QR(url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	return h.qr(url)
}

// Store returns the state the hub writes playback changes to.
func (h *Hub) Store() *state.Store { return h.store }

func (h *Hub) timestamp() float64 {
	return float64(h.now().UnixNano()) / float64(time.Second)
}
