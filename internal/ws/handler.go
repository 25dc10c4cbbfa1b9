package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/realtime-chat/broker/internal/broker"
	"github.com/realtime-chat/broker/internal/model"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The broker is origin-agnostic; access control is a deployment concern.
		return true
	},
}

// Handler terminates chat WebSocket connections and feeds decoded events to
// the broadcast engine.
type Handler struct {
	engine         *broker.Engine
	log            *slog.Logger
	maxMessageSize int64
	sendBuffer     int
}

// NewHandler creates a gateway handler bound to the given engine.
func NewHandler(log *slog.Logger, engine *broker.Engine, maxMessageSize int64, sendBuffer int) *Handler {
	if maxMessageSize <= 0 {
		maxMessageSize = 4096
	}
	return &Handler{
		engine:         engine,
		log:            log,
		maxMessageSize: maxMessageSize,
		sendBuffer:     sendBuffer,
	}
}

// HandleConnection upgrades the HTTP request and runs the connection's pumps.
// The session exists from the moment of the upgrade until the read pump exits,
// at which point the engine is told exactly once.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, h.sendBuffer)
	sessionID := h.engine.OnConnect(client)

	go h.writePump(client)
	go h.readPump(client, sessionID)

	return nil
}

// readPump pumps inbound frames from the connection into the engine.
func (h *Handler) readPump(client *Client, sessionID string) {
	defer func() {
		h.engine.OnDisconnect(sessionID)
		client.Close()
		client.Conn().Close()
	}()

	client.Conn().SetReadLimit(h.maxMessageSize)
	client.Conn().SetReadDeadline(time.Now().Add(pongWait))
	client.Conn().SetPongHandler(func(string) error {
		client.Conn().SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := client.Conn().ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", "session", sessionID, "error", err)
			}
			break
		}

		h.dispatch(client, sessionID, raw)
	}
}

// dispatch decodes one inbound envelope and routes it. Malformed payloads are
// logged and dropped; the connection stays open.
func (h *Handler) dispatch(client *Client, sessionID string, raw []byte) {
	var env model.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.log.Warn("dropping malformed frame", "session", sessionID, "error", err)
		return
	}

	switch env.Event {
	case model.EventUserLogin:
		var name string
		if err := json.Unmarshal(env.Payload, &name); err != nil {
			h.log.Warn("dropping malformed login payload", "session", sessionID, "error", err)
			return
		}
		if err := h.engine.OnLogin(sessionID, name); err != nil {
			h.sendError(client, err)
		}

	case model.EventSendMessage:
		var payload model.SendPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			h.log.Warn("dropping malformed message payload", "session", sessionID, "error", err)
			return
		}
		if err := h.engine.OnSend(sessionID, payload.Text); err != nil {
			h.sendError(client, err)
		}

	case model.EventTyping:
		var isTyping bool
		if err := json.Unmarshal(env.Payload, &isTyping); err != nil {
			h.log.Warn("dropping malformed typing payload", "session", sessionID, "error", err)
			return
		}
		h.engine.OnTyping(sessionID, isTyping)

	default:
		h.log.Warn("dropping unknown event", "session", sessionID, "event", env.Event)
	}
}

// sendError surfaces a validation failure to the originating client only.
func (h *Handler) sendError(client *Client, cause error) {
	data, err := model.Encode(model.EventError, model.ErrorEvent{Message: cause.Error()})
	if err != nil {
		h.log.Error("failed to encode error event", "error", err)
		return
	}
	client.Send(data)
}

// writePump pumps queued events to the WebSocket connection.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn().Close()
	}()

	for {
		select {
		case message, ok := <-client.SendChan():
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The queue was closed
				client.Conn().WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One frame per event so clients can parse each JSON payload alone
			if err := client.Conn().WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(client.SendChan())
			for i := 0; i < n; i++ {
				queued := <-client.SendChan()
				client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.Conn().WriteMessage(websocket.TextMessage, queued); err != nil {
					return
				}
			}
		case <-ticker.C:
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn().WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
