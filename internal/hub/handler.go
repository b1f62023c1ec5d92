package hub

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	SyncRoute   = "/ws/sync"
	VolumeRoute = "/ws/vol/"
	QRRoute     = "/ws/qr/"
	PlayerRoute = "/ws/player/"

	defaultWriteTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Players run in browsers and webviews on other hosts of the LAN.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn adapts a gorilla connection to [Conn], bounding every write by a deadline.
type wsConn struct {
	ws      *websocket.Conn
	timeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

func newWSConn(ws *websocket.Conn, timeout time.Duration) *wsConn {
	return &wsConn{ws: ws, timeout: timeout}
}

func (c *wsConn) WriteJSON(v any) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

func (c *wsConn) ReadJSON(v any) error { return c.ws.ReadJSON(v) }

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.timeout),
		)
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// Handler upgrades hub routes to websockets. It implements the server package's Handler interface.
type Handler struct {
	hub          *Hub
	writeTimeout time.Duration
	ctx          context.Context
}

// NewHandler serves h over websockets. Connections close when ctx is done.
func NewHandler(ctx context.Context, h *Hub, writeTimeout time.Duration) *Handler {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Handler{hub: h, writeTimeout: writeTimeout, ctx: ctx}
}

// Routes returns the websocket paths this handler serves.
func (h *Handler) Routes() []string {
	return []string{SyncRoute, VolumeRoute, QRRoute, PlayerRoute}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if !strings.HasSuffix(path, "/") && path != SyncRoute {
		path += "/"
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Warn("websocket upgrade failed", "path", r.URL.Path, "error", err)
		return
	}
	conn := newWSConn(ws, h.writeTimeout)

	stop := context.AfterFunc(h.ctx, func() { _ = conn.Close() })
	defer stop()

	switch path {
	case VolumeRoute:
		h.serveVolume(conn)
	case QRRoute:
		h.serveQR(conn)
	case PlayerRoute:
		h.serveControl(conn)
	default:
		if err := h.hub.Serve(h.ctx, conn, ParseRole(r.URL.Query().Get("role"))); err != nil {
			h.hub.logger.Debug("sync connection ended", "error", err)
		}
	}
}

// serveVolume reads raw text volumes and broadcasts each to every hub connection.
func (h *Handler) serveVolume(conn *wsConn) {
	defer conn.Close()
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}
		if _, err := h.hub.BroadcastVolume(string(data)); err != nil {
			h.hub.logger.Warn("ignoring legacy volume", "value", string(data), "error", err)
		}
	}
}

// serveQR answers each raw URL with its base64 QR code. Empty or unencodable input gets no reply.
func (h *Handler) serveQR(conn *wsConn) {
	defer conn.Close()
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}
		url := strings.TrimSpace(string(data))
		if url == "" {
			continue
		}
		img, err := h.hub.QR(url)
		if err != nil {
			h.hub.logger.Warn("qr encode failed", "url", url, "error", err)
			continue
		}
		if err := conn.ws.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
			return
		}
		if err := conn.ws.WriteMessage(websocket.TextMessage, []byte(img)); err != nil {
			return
		}
	}
}

// serveControl relays raw JSON player commands to everyone as control messages.
func (h *Handler) serveControl(conn *wsConn) {
	defer conn.Close()
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}
		if _, err := h.hub.BroadcastControl(data); err != nil {
			h.hub.logger.Warn("ignoring legacy control", "error", err)
		}
	}
}
