package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brownjh18/SafeTalk-sub001/internal/handler"
	"github.com/brownjh18/SafeTalk-sub001/pkg/constants"
)

// New builds the HTTP router.
func New(
	authMW gin.HandlerFunc,
	sessions *handler.SessionHandler,
	participants *handler.ParticipantHandler,
	messages *handler.MessageHandler,
	signalWS *handler.SignalWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	api := r.Group("/", authMW)

	// REST sessions
	s := api.Group("/sessions")
	{
		s.POST("", sessions.CreateSession)
		s.GET("", sessions.ListSessions)
		s.GET("/:id", sessions.GetSession)
		s.PATCH("/:id", sessions.UpdateSession)
		s.DELETE("/:id", sessions.DeleteSession)
		s.POST("/:id/start", sessions.StartSession)
		s.POST("/:id/end", sessions.EndSession)

		// Participant workflow
		s.POST("/:id/join", participants.RequestJoin)
		s.POST("/:id/invite", participants.Invite)
		s.POST("/:id/accept", participants.Accept)
		s.POST("/:id/decline", participants.Decline)
		s.POST("/:id/leave", participants.Leave)
		s.GET("/:id/participants", participants.ListParticipants)
		s.POST("/:id/participants/:user_id/approve", participants.Approve)
		s.POST("/:id/participants/:user_id/reject", participants.Reject)
		s.POST("/:id/participants/:user_id/readd", participants.Readd)
		s.DELETE("/:id/participants/:user_id", participants.Remove)

		// Message log
		s.GET("/:id/messages", messages.ListMessages)
		s.POST("/:id/messages", messages.PostMessage)
		s.POST("/:id/messages/file", messages.PostFile)
		s.DELETE("/:id/messages/:message_id", messages.DeleteMessage)
	}

	// WebSocket signaling: /ws/sessions/:session_id
	api.GET("/ws/sessions/:session_id", signalWS.ServeWS)

	return r
}
