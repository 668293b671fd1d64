package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"hyperwatch/internal/core"
	"hyperwatch/internal/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type clientMessage struct {
	Type    string `json:"type"`
	Value   string `json:"value,omitempty"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode,omitempty"`
}

type panelMessage struct {
	Type string `json:"type"`
	core.Panel
}

type viewMessage struct {
	Type string         `json:"type"`
	View core.WatchView `json:"view"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// liveConn serializes writes; gorilla connections allow one concurrent writer.
type liveConn struct {
	ws     *websocket.Conn
	logger *utils.Logger
	mu     sync.Mutex
}

func (c *liveConn) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

func (c *liveConn) sendError(err error) {
	if err := c.send(errorMessage{Type: "error", Error: err.Error()}); err != nil {
		c.logger.Debug("Failed to send error frame:", err)
	}
}

func (c *liveConn) keepalive(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// read blocks for the next client frame.
func (c *liveConn) read() (clientMessage, error) {
	var msg clientMessage
	err := c.ws.ReadJSON(&msg)
	if err != nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
		c.logger.Warn("Live connection closed unexpectedly:", err)
	}
	return msg, err
}

type LiveHandler struct {
	manager *core.Manager
	logger  *utils.Logger
}

func NewLiveHandler(manager *core.Manager, logger *utils.Logger) *LiveHandler {
	return &LiveHandler{manager: manager, logger: logger}
}

func (h *LiveHandler) open(w http.ResponseWriter, r *http.Request, kind string) (*liveConn, context.Context, context.CancelFunc, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the request
		h.logger.Debug("WebSocket upgrade failed:", err)
		return nil, nil, nil, err
	}

	conn := &liveConn{ws: ws, logger: h.logger.With("conn", uuid.NewString(), "channel", kind)}
	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx, cancel := context.WithCancel(context.Background())
	go conn.keepalive(ctx)
	conn.logger.Debug("Live connection opened")
	return conn, ctx, cancel, nil
}

// Suggest drives one search box: input frames feed the debouncer, panel frames come back.
func (h *LiveHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	conn, _, cancel, err := h.open(w, r, "suggest")
	if err != nil {
		return
	}
	defer conn.ws.Close()
	defer cancel()

	suggester := h.manager.NewSuggester(func(p core.Panel) {
		if err := conn.send(panelMessage{Type: "panel", Panel: p}); err != nil {
			conn.logger.Debug("Failed to send panel:", err)
		}
	}, conn.logger)
	defer suggester.Close()

	for {
		msg, err := conn.read()
		if err != nil {
			return
		}
		switch msg.Type {
		case "input":
			suggester.Input(msg.Value)
		case "dismiss":
			suggester.Dismiss()
		default:
			conn.sendError(errors.New("unknown message type: " + msg.Type))
		}
	}
}

// Watch attaches to a session parked by the watch page and relays season and episode selections.
func (h *LiveHandler) Watch(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	session, err := h.manager.ClaimWatch(sessionID)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, core.ErrSessionClaimed) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}
	defer h.manager.ReleaseWatch(sessionID)

	conn, ctx, cancel, err := h.open(w, r, "watch")
	if err != nil {
		return
	}
	defer conn.ws.Close()
	defer cancel()

	if err := conn.send(viewMessage{Type: "view", View: session.Snapshot()}); err != nil {
		return
	}

	for {
		msg, err := conn.read()
		if err != nil {
			return
		}

		var view core.WatchView
		switch msg.Type {
		case "season":
			view, err = session.SelectSeason(ctx, msg.Season)
		case "episode":
			view, err = session.SelectEpisode(msg.Episode)
		default:
			err = errors.New("unknown message type: " + msg.Type)
		}
		if err != nil {
			conn.sendError(err)
			continue
		}
		if err := conn.send(viewMessage{Type: "view", View: view}); err != nil {
			conn.logger.Debug("Failed to send view:", err)
			return
		}
	}
}
