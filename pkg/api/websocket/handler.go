package websocket

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/taskhive/taskhive/internal/application/hub"
	"github.com/taskhive/taskhive/internal/application/presence"
	"github.com/taskhive/taskhive/pkg/domain"
	"github.com/taskhive/taskhive/pkg/ports"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin checks happen at the edge proxy
	},
}

var errBufferFull = errors.New("outbound buffer full")

// outboundBuffer is the per-connection event buffer. A slow reader overflows
// its own buffer without blocking delivery workers.
const outboundBuffer = 64

// ClientMessage is a control message sent by a connected client
type ClientMessage struct {
	Action  string `json:"action"` // "join", "leave", "heartbeat"
	Channel string `json:"channel,omitempty"`
}

// Handler handles WebSocket connections
type Handler struct {
	registry   *presence.Registry
	channels   *hub.Channels
	dispatcher *hub.Dispatcher
	logger     *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(registry *presence.Registry, channels *hub.Channels, dispatcher *hub.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		registry:   registry,
		channels:   channels,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandlePresenceStream upgrades the connection and runs it until the client
// goes away. Registration order matters: the sender is attached to the
// dispatcher before the registry announces the connection, so the new client
// never misses events addressed to it.
func (h *Handler) HandlePresenceStream(c *gin.Context) {
	userID := c.Query("user_id")
	userName := c.Query("user_name")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	connID := uuid.New().String()

	h.logger.Info("WebSocket connection established",
		zap.String("conn_id", connID),
		zap.String("user_id", userID),
		zap.String("client", c.ClientIP()))

	out := make(chan domain.Event, outboundBuffer)
	done := make(chan struct{})

	sender := ports.SenderFunc(func(event domain.Event) error {
		select {
		case out <- event:
			return nil
		default:
			return errBufferFull
		}
	})

	h.dispatcher.Attach(connID, sender)
	h.registry.OnConnect(connID, userID, userName)

	// Runs on every exit path, including abnormal transport termination,
	// so channel memberships never leak.
	defer h.registry.OnDisconnect(connID)
	defer close(done)

	go h.writePump(conn, connID, out, done)

	h.readLoop(conn, connID)
}

// readLoop consumes client control messages until the connection drops
func (h *Handler) readLoop(conn *websocket.Conn, connID string) {
	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("connection closed unexpectedly",
					zap.String("conn_id", connID),
					zap.Error(err))
			}
			return
		}

		switch msg.Action {
		case "join":
			if msg.Channel != "" {
				h.channels.Join(connID, msg.Channel)
			}
		case "leave":
			if msg.Channel != "" {
				h.channels.Leave(connID, msg.Channel)
			}
		case "heartbeat":
			if err := h.registry.Heartbeat(connID); err != nil {
				return
			}
		default:
			h.logger.Debug("unknown client action",
				zap.String("conn_id", connID),
				zap.String("action", msg.Action))
		}
	}
}

// writePump writes queued events to the client
func (h *Handler) writePump(conn *websocket.Conn, connID string, out <-chan domain.Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event := <-out:
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("failed to write event",
					zap.String("conn_id", connID),
					zap.Error(err))
				return
			}
		}
	}
}
