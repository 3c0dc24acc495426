package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brownjh18/SafeTalk-sub001/internal/auth"
	"github.com/brownjh18/SafeTalk-sub001/internal/model"
	"github.com/brownjh18/SafeTalk-sub001/internal/service"
)

// MessageHandler handles the session message log REST API.
type MessageHandler struct {
	svc *service.MessageService
}

// NewMessageHandler creates a message handler.
func NewMessageHandler(svc *service.MessageService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// PostMessage godoc
// POST /sessions/:id/messages
func (h *MessageHandler) PostMessage(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req model.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	msg, err := h.svc.Post(c.Param("id"), ident.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// PostFile godoc
// POST /sessions/:id/messages/file (multipart: "file", optional "caption")
func (h *MessageHandler) PostFile(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()

	msg, err := h.svc.PostFile(c.Param("id"), ident.UserID, f, fh.Filename, c.PostForm("caption"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListMessages godoc
// GET /sessions/:id/messages?limit=n
func (h *MessageHandler) ListMessages(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := h.svc.List(c.Param("id"), ident.UserID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SessionMessagesResponse{
		SessionID: c.Param("id"),
		Messages:  messages,
	})
}

// DeleteMessage godoc
// DELETE /sessions/:id/messages/:message_id
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if err := h.svc.Delete(c.Param("id"), ident.UserID, c.Param("message_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
