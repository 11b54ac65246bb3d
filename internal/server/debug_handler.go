package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
)

// handleListCalls returns the most recently ended calls.
func (s *Server) handleListCalls(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid limit"})
			return
		}
		if parsed > 500 {
			parsed = 500
		}
		limit = parsed
	}

	calls, err := s.opts.Calls.ListRecent(c.Request.Context(), limit)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Failed to list calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "calls": calls})
}

// handleGetCall returns one call with its stored events and tool runs.
func (s *Server) handleGetCall(c *gin.Context) {
	callID := c.Param("call_id")

	call, err := s.opts.Calls.FindByCallID(c.Request.Context(), callID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "call not found"})
			return
		}
		logger.FromContext(c.Request.Context()).Error("Failed to load call",
			zap.String("call_id", callID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	events, err := s.opts.Events.ListByCallID(c.Request.Context(), callID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	toolRuns, err := s.opts.ToolRuns.ListByCallID(c.Request.Context(), callID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"call":      call,
		"events":    events,
		"tool_runs": toolRuns,
	})
}
