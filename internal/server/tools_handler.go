package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
	"gitlab.com/riveops/api/rive-voice-intake/internal/reqctx"
	"gitlab.com/riveops/api/rive-voice-intake/internal/usecase"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
)

// toolQuery is shared by both tool endpoints. The voice platform puts
// the call identity in the query string and the captured fields in the
// body.
type toolQuery struct {
	CallID string `form:"call_id" binding:"required"`
	Caller string `form:"caller"`
}

// requireToolAuth enforces the bearer token on the tool endpoints.
// With no secret configured the endpoints are open, matching local
// development before the platform tooling is provisioned.
func (s *Server) requireToolAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := s.opts.ToolsSharedSecret
		if secret == "" {
			c.Next()
			return
		}
		if c.GetHeader("Authorization") != "Bearer "+secret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false})
			return
		}
		c.Next()
	}
}

func (s *Server) handleLogLeaseLead(c *gin.Context) {
	var query toolQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid query"})
		return
	}

	var input usecase.LeaseLeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	trimLeaseLead(&input)

	ctx := reqctx.WithCallID(c.Request.Context(), query.CallID)
	result, err := s.opts.Tools.LogLeaseLead(ctx, query.CallID, query.Caller, input)
	if err != nil {
		if apperrors.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		logger.FromContext(ctx).Error("Lease lead tool failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	resp := gin.H{"ok": true, "lead_id": result.ID}
	if result.Deduped {
		resp["deduped"] = true
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleLogMaintenanceTicket(c *gin.Context) {
	var query toolQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid query"})
		return
	}

	var input usecase.MaintenanceTicketInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	trimMaintenanceTicket(&input)

	ctx := reqctx.WithCallID(c.Request.Context(), query.CallID)
	result, err := s.opts.Tools.LogMaintenanceTicket(ctx, query.CallID, query.Caller, input)
	if err != nil {
		if apperrors.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		logger.FromContext(ctx).Error("Maintenance ticket tool failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	resp := gin.H{"ok": true, "ticket_id": result.ID}
	if result.Deduped {
		resp["deduped"] = true
	}
	c.JSON(http.StatusOK, resp)
}

// The voice agent fills tool arguments from conversation; whitespace
// padding and empty strings are routine and must not reach the sheet.
func trimLeaseLead(in *usecase.LeaseLeadInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.MoveInDate = strings.TrimSpace(in.MoveInDate)
	in.UnitType = strings.TrimSpace(in.UnitType)
	in.LeaseTerm = strings.TrimSpace(in.LeaseTerm)
	in.Budget = strings.TrimSpace(in.Budget)
	in.Pets = strings.TrimSpace(in.Pets)
	in.Notes = strings.TrimSpace(in.Notes)
}

func trimMaintenanceTicket(in *usecase.MaintenanceTicketInput) {
	in.UnitNumber = strings.TrimSpace(in.UnitNumber)
	in.IssueSummary = strings.TrimSpace(in.IssueSummary)
	in.Urgency = strings.TrimSpace(in.Urgency)
	in.AccessOK = strings.TrimSpace(in.AccessOK)
	in.Notes = strings.TrimSpace(in.Notes)
}
