package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brownjh18/SafeTalk-sub001/internal/auth"
	"github.com/brownjh18/SafeTalk-sub001/internal/model"
	"github.com/brownjh18/SafeTalk-sub001/internal/service"
)

// ParticipantHandler handles the join/invite/approve REST API.
type ParticipantHandler struct {
	svc *service.ParticipantService
}

// NewParticipantHandler creates a participant handler.
func NewParticipantHandler(svc *service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{svc: svc}
}

// RequestJoin godoc
// POST /sessions/:id/join
func (h *ParticipantHandler) RequestJoin(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	p, err := h.svc.RequestJoin(ident, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Invite godoc
// POST /sessions/:id/invite
func (h *ParticipantHandler) Invite(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req model.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	p, err := h.svc.Invite(c.Param("id"), ident.UserID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Approve godoc
// POST /sessions/:id/participants/:user_id/approve
func (h *ParticipantHandler) Approve(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	p, err := h.svc.Approve(c.Param("id"), ident.UserID, c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Reject godoc
// POST /sessions/:id/participants/:user_id/reject
func (h *ParticipantHandler) Reject(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if err := h.svc.Reject(c.Param("id"), ident.UserID, c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Accept godoc
// POST /sessions/:id/accept
func (h *ParticipantHandler) Accept(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	p, err := h.svc.Accept(c.Param("id"), ident.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Decline godoc
// POST /sessions/:id/decline
func (h *ParticipantHandler) Decline(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if err := h.svc.Decline(c.Param("id"), ident.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove godoc
// DELETE /sessions/:id/participants/:user_id
func (h *ParticipantHandler) Remove(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if err := h.svc.Remove(c.Param("id"), ident.UserID, c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Readd godoc
// POST /sessions/:id/participants/:user_id/readd
func (h *ParticipantHandler) Readd(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	p, err := h.svc.Readd(c.Param("id"), ident.UserID, c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Leave godoc
// POST /sessions/:id/leave
func (h *ParticipantHandler) Leave(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if err := h.svc.Leave(c.Param("id"), ident.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListParticipants godoc
// GET /sessions/:id/participants
func (h *ParticipantHandler) ListParticipants(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	participants, err := h.svc.List(ident, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SessionParticipantsResponse{
		SessionID:    c.Param("id"),
		Participants: participants,
	})
}
