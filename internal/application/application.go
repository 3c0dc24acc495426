package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/brownjh18/SafeTalk-sub001/internal/auth"
	"github.com/brownjh18/SafeTalk-sub001/internal/config"
	"github.com/brownjh18/SafeTalk-sub001/internal/database"
	"github.com/brownjh18/SafeTalk-sub001/internal/filestore"
	"github.com/brownjh18/SafeTalk-sub001/internal/handler"
	"github.com/brownjh18/SafeTalk-sub001/internal/router"
	"github.com/brownjh18/SafeTalk-sub001/internal/service"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg *config.Config
	srv *http.Server
	db  *gorm.DB
	hub *service.SignalHub
}

// NewAPI creates the API application: validates config, runs migrations, opens DB, builds router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	files, err := filestore.New(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		return nil, fmt.Errorf("filestore: %w", err)
	}

	hub := service.NewSignalHub(cfg.WSReadBufferSize, cfg.WSWriteBufferSize, cfg.WSMaxMessageSize, logger)
	sessionSvc := service.NewSessionService(db, hub, logger)
	participantSvc := service.NewParticipantService(db, hub, logger)
	messageSvc := service.NewMessageService(db, files, hub, logger)

	sessionHandler := handler.NewSessionHandler(sessionSvc, cfg.WSBaseURL)
	participantHandler := handler.NewParticipantHandler(participantSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)
	signalWS := handler.NewSignalWSHandler(hub, participantSvc, logger)
	health := handler.NewHealthHandler()

	authMW := auth.Middleware([]byte(cfg.JWTSecret))
	r := router.New(authMW, sessionHandler, participantHandler, messageHandler, signalWS, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, hub: hub}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled; then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:     %s/health", base)
	log.Printf("  Ready:      %s/ready", base)
	log.Printf("  Sessions:   %s/sessions", base)
	log.Printf("  WebSocket:  ws://%s:%s/ws/sessions/:session_id", host, a.cfg.HTTPPort)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
