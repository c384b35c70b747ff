// Package api exposes the pool manager over HTTP: health, status,
// provider listing, and the transcription endpoint, following the same
// Gin-over-h2c server shape the rest of the gokit family uses.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/whisperpool/logger"
	"github.com/kbukum/whisperpool/pool"
)

// Config configures the outer HTTP surface.
type Config struct {
	Addr      string
	AuthToken string
}

// Server is the HTTP surface in front of a pool.Manager.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	cfg        Config
	log        *logger.Logger
}

// New builds a Server with routes registered against mgr.
func New(cfg Config, mgr *pool.Manager, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(recoveryMiddleware(log), requestIDMiddleware())

	h := &handlers{mgr: mgr, log: log.Named("api")}
	engine.GET("/health", h.health)
	engine.GET("/api/v1/status", h.status)
	engine.GET("/api/v1/providers", h.providers)

	transcriptions := engine.Group("/api/v1/transcriptions")
	if cfg.AuthToken != "" {
		transcriptions.Use(bearerAuth(cfg.AuthToken))
	}
	transcriptions.POST("", h.transcribe)

	h2s := &http2.Server{MaxConcurrentStreams: 250, IdleTimeout: 120 * time.Second}
	handler := h2c.NewHandler(engine, h2s)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: pool.ProxyTimeout + 10*time.Second,
			IdleTimeout:  120 * time.Second,
		},
		engine: engine,
		cfg:    cfg,
		log:    log.Named("api"),
	}
}

// Start binds the listener and begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.httpServer.Addr, err)
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	s.log.Info("http server started", logger.Fields("addr", s.httpServer.Addr))
	return nil
}

// Stop gracefully shuts the server down within the given context deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
