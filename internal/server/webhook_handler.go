package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/riveops/api/rive-voice-intake/internal/observer"
	"gitlab.com/riveops/api/rive-voice-intake/internal/webhook"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
)

// handleBlandWebhook accepts any payload shape the telephony platform
// sends. Signature verification runs over the raw body before JSON
// parsing; a verified event is durably recorded before the 200 goes
// out, so an acknowledged delivery is never lost.
func (s *Server) handleBlandWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil || len(rawBody) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false})
		return
	}

	signature := c.GetHeader(webhook.SignatureHeader)
	if err := webhook.VerifySignature(s.opts.WebhookSecret, signature, rawBody); err != nil {
		observer.IncWebhookSignatureFailure()
		logger.FromContext(c.Request.Context()).Warn("Invalid webhook signature", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false})
		return
	}

	if !json.Valid(rawBody) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false})
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for name := range c.Request.Header {
		headers[name] = c.Request.Header.Get(name)
	}

	if _, err := s.opts.Intake.RecordIncomingEvent(c.Request.Context(), rawBody, headers); err != nil {
		logger.FromContext(c.Request.Context()).Error("Failed to record webhook event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
