// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/chat"
)

// handleChat serves POST /api/ai.
func (s *Server) handleChat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadBody})
		return
	}

	resp, err := s.Chat.Respond(c.Request.Context(), req)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
	case errors.Is(err, chat.ErrCompletion):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get AI response"})
	case err != nil:
		s.logger().Error("chat failed", zap.String(requestIDKey, c.GetString(requestIDKey)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	default:
		c.JSON(http.StatusOK, resp)
	}
}
