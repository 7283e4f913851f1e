// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes search aggregation and chat over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/chat"
	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	defaultRequestTimeout = 30 * time.Second
	shutdownTimeout       = 10 * time.Second
)

// Responder answers chat requests.
type Responder interface {
	Respond(ctx context.Context, req chat.Request) (chat.Response, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Registry *search.Registry
	Search   types.SearchConfig

	// Chat is optional; without it /api/ai is not registered.
	Chat Responder

	Config types.ServerConfig
	Logger *zap.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		recovery(s.logger()),
		requestID(),
		accessLog(s.logger()),
	)

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)

	// Chat is bounded by the source and completion timeouts instead.
	searches := api.Group("/search", timeout(s.requestTimeout()))
	searches.POST("", s.handleMultiSearch)
	searches.POST("/:source", s.handleSourceSearch)

	if s.Chat != nil {
		api.POST("/ai", s.handleChat)
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Config.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger().Info("listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger().Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"sources":   s.Registry.Sources(),
		"timestamp": s.now(),
	})
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Server) requestTimeout() time.Duration {
	if s.Config.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return s.Config.RequestTimeout
}

func (s *Server) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
