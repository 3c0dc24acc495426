package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/brownjh18/SafeTalk-sub001/internal/auth"
	"github.com/brownjh18/SafeTalk-sub001/internal/model"
	"github.com/brownjh18/SafeTalk-sub001/internal/service"
)

// SignalWSHandler handles WebSocket signaling connections for
// /ws/sessions/:session_id. Only the creator or active participants of an
// active session may connect.
type SignalWSHandler struct {
	hub          *service.SignalHub
	participants *service.ParticipantService
	logger       *zap.Logger
}

// NewSignalWSHandler creates the signaling WebSocket handler.
func NewSignalWSHandler(hub *service.SignalHub, participants *service.ParticipantService, logger *zap.Logger) *SignalWSHandler {
	return &SignalWSHandler{hub: hub, participants: participants, logger: logger}
}

// ServeWS upgrades the request and runs the relay loop.
func (h *SignalWSHandler) ServeWS(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}
	if err := h.participants.ActiveMembership(sessionID, ident.UserID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	peer, cleanup := h.hub.Register(sessionID, ident.UserID, conn)
	defer cleanup()

	go h.writePump(peer)
	h.readPump(peer)
}

// readPump parses signaling envelopes from the peer and relays them. The
// sender field always reflects the authenticated connection, whatever the
// client put there.
func (h *SignalWSHandler) readPump(p *service.Peer) {
	defer func() {
		_ = p.Conn.Close()
	}()
	for {
		_, data, err := p.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			break
		}
		var env model.SignalEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.logger.Debug("dropping malformed envelope",
				zap.String("session_id", p.SessionID),
				zap.String("user_id", p.UserID))
			continue
		}
		if !model.ValidSignalType(env.Type) {
			h.logger.Debug("dropping envelope with unknown type",
				zap.String("type", string(env.Type)),
				zap.String("user_id", p.UserID))
			continue
		}
		env.From = p.UserID
		h.hub.Relay(p.SessionID, env)
	}
}

func (h *SignalWSHandler) writePump(p *service.Peer) {
	defer func() {
		_ = p.Conn.Close()
	}()
	for data := range p.Send {
		if err := p.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
}
