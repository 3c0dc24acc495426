package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brownjh18/SafeTalk-sub001/internal/auth"
	"github.com/brownjh18/SafeTalk-sub001/internal/model"
	"github.com/brownjh18/SafeTalk-sub001/internal/service"
)

// SessionHandler handles the REST API for group sessions.
type SessionHandler struct {
	svc *service.SessionService
	cfg *service.WSConfig
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(svc *service.SessionService, wsBaseURL string) *SessionHandler {
	return &SessionHandler{
		svc: svc,
		cfg: &service.WSConfig{BaseURL: wsBaseURL},
	}
}

// CreateSession godoc
// POST /sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req model.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	sess, err := h.svc.Create(ident, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.CreateSessionResponse{
		SessionID: sess.ID,
		Mode:      string(sess.Mode),
		WSURL:     h.cfg.WSURL(sess.ID),
		IsActive:  sess.IsActive,
	})
}

// ListSessions godoc
// GET /sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	sessions, err := h.svc.List(ident)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession godoc
// GET /sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	sess, err := h.svc.Get(ident, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// UpdateSession godoc
// PATCH /sessions/:id
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req model.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	sess, err := h.svc.Update(c.Param("id"), ident.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// StartSession godoc
// POST /sessions/:id/start
func (h *SessionHandler) StartSession(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if err := h.svc.Start(c.Param("id"), ident.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_active": true})
}

// EndSession godoc
// POST /sessions/:id/end
func (h *SessionHandler) EndSession(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if err := h.svc.End(c.Param("id"), ident.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_active": false})
}

// DeleteSession godoc
// DELETE /sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if err := h.svc.Delete(c.Param("id"), ident.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
