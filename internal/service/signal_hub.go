package service

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/brownjh18/SafeTalk-sub001/internal/model"
)

// Peer represents one WebSocket connection subscribed to a session.
type Peer struct {
	SessionID string
	UserID    string
	Conn      *websocket.Conn
	Send      chan []byte
}

// SignalHub relays ephemeral signaling envelopes between the connected peers
// of a session. Nothing is persisted and delivery is at most once: a peer
// with a full send buffer simply misses the event.
type SignalHub struct {
	mu         sync.RWMutex
	peers      map[string]map[*Peer]struct{} // sessionID -> set of peers
	upgrader   websocket.Upgrader
	maxMsgSize int64
	log        *zap.Logger
}

// NewSignalHub creates a signaling hub.
func NewSignalHub(readBufSize, writeBufSize int, maxMessageSize int64, log *zap.Logger) *SignalHub {
	return &SignalHub{
		peers:      make(map[string]map[*Peer]struct{}),
		maxMsgSize: maxMessageSize,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufSize,
			WriteBufferSize: writeBufSize,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
	}
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *SignalHub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}

// Register adds a peer to a session and returns it with a cleanup function.
// The caller must run a write pump that drains Send and closes the
// connection when the channel closes.
func (h *SignalHub) Register(sessionID, userID string, conn *websocket.Conn) (*Peer, func()) {
	if h.maxMsgSize > 0 {
		conn.SetReadLimit(h.maxMsgSize)
	}
	p := &Peer{
		SessionID: sessionID,
		UserID:    userID,
		Conn:      conn,
		Send:      make(chan []byte, 64),
	}
	h.mu.Lock()
	if h.peers[sessionID] == nil {
		h.peers[sessionID] = make(map[*Peer]struct{})
	}
	h.peers[sessionID][p] = struct{}{}
	h.mu.Unlock()

	h.log.Info("peer registered",
		zap.String("session_id", sessionID),
		zap.String("user_id", userID))

	cleanup := func() {
		h.unregister(sessionID, p)
	}
	return p, cleanup
}

func (h *SignalHub) unregister(sessionID string, p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.peers[sessionID]
	if !ok {
		// Already swept by CloseSession.
		return
	}
	if _, ok := m[p]; !ok {
		return
	}
	delete(m, p)
	if len(m) == 0 {
		delete(h.peers, sessionID)
	}
	close(p.Send)
	h.log.Info("peer unregistered",
		zap.String("session_id", sessionID),
		zap.String("user_id", p.UserID))
}

// Relay delivers an envelope within a session. If env.To is set, only that
// peer's connections receive it; otherwise every peer except the sender does.
func (h *SignalHub) Relay(sessionID string, env model.SignalEnvelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.log.Warn("relay marshal failed", zap.Error(err))
		return
	}

	// Sends are non-blocking, so they stay under the read lock; Send
	// channels are only ever closed under the write lock, which keeps a
	// concurrent unregister/CloseSession from closing mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.peers[sessionID]
	if !ok {
		return
	}
	for p := range m {
		if p.UserID == env.From {
			continue
		}
		if env.To != "" && p.UserID != env.To {
			continue
		}
		select {
		case p.Send <- data:
		default:
			h.log.Warn("peer send buffer full, dropping event",
				zap.String("session_id", sessionID),
				zap.String("user_id", p.UserID),
				zap.String("type", string(env.Type)))
		}
	}
}

// Notify broadcasts a state-change event to every connected peer of the
// session except excludeUserID. Implements Notifier; called after the DB
// transaction commits, so a delivery failure never affects persisted state.
func (h *SignalHub) Notify(event, sessionID string, payload any, excludeUserID string) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn("notify marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.Relay(sessionID, model.SignalEnvelope{
		Type: model.SignalType(event),
		From: excludeUserID,
		Data: raw,
	})
}

// CloseSession drops every peer of the session. A final session_ended
// notice is queued before each Send channel closes; the peer's write pump
// drains it and tears down the connection. Channels close under the write
// lock (see Relay).
func (h *SignalHub) CloseSession(sessionID string) {
	closeMsg := map[string]string{"event": "session_ended", "session_id": sessionID}
	raw, _ := json.Marshal(closeMsg)

	h.mu.Lock()
	m, ok := h.peers[sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.peers, sessionID)
	for p := range m {
		select {
		case p.Send <- raw:
		default:
		}
		close(p.Send)
	}
	h.mu.Unlock()

	h.log.Info("session closed", zap.String("session_id", sessionID))
}

// PeerCount returns the number of peers in a session.
func (h *SignalHub) PeerCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers[sessionID])
}
