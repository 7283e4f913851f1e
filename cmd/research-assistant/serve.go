// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/chat"
	"github.com/pdiddy/research-assistant/internal/rag"
	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/internal/server"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the search endpoints under /api/search and, when an
OpenRouter API key is configured, the research chat under /api/ai.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx, stop := withSignals(cmd.Context())
		defer stop()

		gin.SetMode(gin.ReleaseMode)
		srv := newServer(cfg, logger)
		if srv.Chat == nil {
			logger.Warn("no completion API key configured; /api/ai disabled")
		}
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")

	rootCmd.AddCommand(serveCmd)
}

// newRegistry builds one long-lived backend per enabled source. Deadlines
// come from per-call contexts, so the client itself has no timeout.
func newRegistry(c types.Config) *search.Registry {
	return search.NewRegistry(&http.Client{}, c.Search)
}

// newChatService wires the completion client and the RAG panel, or returns
// nil when no API key is configured.
func newChatService(c types.Config, reg *search.Registry, log *zap.Logger) *chat.Service {
	if c.AI.APIKey == "" {
		return nil
	}
	return &chat.Service{
		Completer: &chat.OpenRouterClient{Config: c.AI, Client: &http.Client{}},
		Context: &rag.Assembler{
			Panel:  rag.NewPanel(reg, c.RAG.Panel),
			Config: c.Search,
			Logger: log.Named("rag"),
		},
		MinMessageLength: c.RAG.MinMessageLength,
		Logger:           log.Named("chat"),
	}
}

func newServer(c types.Config, log *zap.Logger) *server.Server {
	reg := newRegistry(c)
	srv := &server.Server{
		Registry: reg,
		Search:   c.Search,
		Config:   c.Server,
		Logger:   log.Named("server"),
	}
	// A nil *chat.Service stored in the interface would register /api/ai.
	if svc := newChatService(c, reg, log); svc != nil {
		srv.Chat = svc
	}
	return srv
}

// withSignals returns a context cancelled on interrupt.
func withSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
