package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
	"gitlab.com/riveops/api/rive-voice-intake/internal/observer"
	"gitlab.com/riveops/api/rive-voice-intake/internal/sheets"
	"gitlab.com/riveops/api/rive-voice-intake/internal/storage"
	"gitlab.com/riveops/api/rive-voice-intake/internal/validator"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/utils"
)

// Tool names as registered on the voice platform.
const (
	ToolNameLeaseLead         = "RiveLogLeaseLead"
	ToolNameMaintenanceTicket = "RiveLogMaintenanceTicket"
)

// LeaseLeadInput carries the fields the agent captured for a lease
// lead. All optional; empty fields stay off the sheet row.
type LeaseLeadInput struct {
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	MoveInDate string `json:"move_in_date,omitempty"`
	UnitType   string `json:"unit_type,omitempty"`
	LeaseTerm  string `json:"lease_term,omitempty"`
	Budget     string `json:"budget,omitempty"`
	Pets       string `json:"pets,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// MaintenanceTicketInput carries the fields the agent captured for a
// maintenance ticket.
type MaintenanceTicketInput struct {
	UnitNumber   string `json:"unit_number,omitempty"`
	IssueSummary string `json:"issue_summary,omitempty"`
	Urgency      string `json:"urgency,omitempty"`
	AccessOK     string `json:"access_ok,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// ToolResult is the outcome of a tool invocation. Deduped means a row
// for this call and kind already existed, so nothing was appended; the
// agent treats that as success.
type ToolResult struct {
	ID      string
	Deduped bool
}

// ToolService handles the voice agent's mid-call HTTP tools. Each tool
// appends exactly one sheet row per call, enforced by the write
// ledger; a retried tool call on the same call dedupes instead of
// double-logging.
type ToolService struct {
	ledger storage.WriteLedger
	runs   storage.ToolRunRepo
	writer sheets.Writer
	loc    *time.Location
}

// NewToolService creates the tool service.
func NewToolService(ledger storage.WriteLedger, runs storage.ToolRunRepo, writer sheets.Writer, loc *time.Location) *ToolService {
	return &ToolService{
		ledger: ledger,
		runs:   runs,
		writer: writer,
		loc:    loc,
	}
}

// LogLeaseLead appends a lease lead row for the call, at most once.
func (s *ToolService) LogLeaseLead(ctx context.Context, callID, callerPhone string, in LeaseLeadInput) (*ToolResult, error) {
	if err := validator.Validate(in); err != nil {
		observer.IncToolInvocation(ToolNameLeaseLead, "invalid")
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	now := utils.NowISOWithOffset(s.loc)

	inserted, err := s.ledger.TryInsert(ctx, callID, model.KindLeaseLead, model.KindLeaseLead.SheetTab(), now)
	if err != nil {
		observer.IncToolInvocation(ToolNameLeaseLead, "error")
		return nil, err
	}
	if !inserted {
		observer.IncToolInvocation(ToolNameLeaseLead, "deduped")
		logger.FromContext(ctx).Info("Lease lead already recorded, deduping",
			zap.String("call_id", callID))
		return &ToolResult{ID: callID, Deduped: true}, nil
	}

	row := sheets.LeaseLeadRow{
		CreatedAt:   now,
		CallID:      callID,
		CallerPhone: callerPhone,
		Name:        in.Name,
		Email:       in.Email,
		MoveInDate:  in.MoveInDate,
		UnitType:    in.UnitType,
		LeaseTerm:   in.LeaseTerm,
		Budget:      in.Budget,
		Pets:        in.Pets,
		Notes:       in.Notes,
		ToolLogged:  true,
	}
	if err := s.writer.AppendLeaseLead(ctx, row); err != nil {
		if delErr := s.ledger.Delete(ctx, callID, model.KindLeaseLead); delErr != nil {
			logger.FromContext(ctx).Error("Failed to release lease lead write after append failure",
				zap.String("call_id", callID),
				zap.Error(delErr))
		}
		observer.IncToolInvocation(ToolNameLeaseLead, "error")
		return nil, fmt.Errorf("failed to append lease lead for %s: %w", callID, err)
	}

	s.recordToolRun(ctx, callID, ToolNameLeaseLead, now,
		map[string]interface{}{"call_id": callID, "caller": callerPhone, "body": in},
		map[string]interface{}{"ok": true, "lead_id": callID})

	observer.IncToolInvocation(ToolNameLeaseLead, "success")
	logger.FromContext(ctx).Info("Lease lead recorded via tool", zap.String("call_id", callID))
	return &ToolResult{ID: callID}, nil
}

// LogMaintenanceTicket appends a maintenance ticket row for the call,
// at most once.
func (s *ToolService) LogMaintenanceTicket(ctx context.Context, callID, callerPhone string, in MaintenanceTicketInput) (*ToolResult, error) {
	if err := validator.Validate(in); err != nil {
		observer.IncToolInvocation(ToolNameMaintenanceTicket, "invalid")
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	now := utils.NowISOWithOffset(s.loc)

	inserted, err := s.ledger.TryInsert(ctx, callID, model.KindMaintenanceTicket, model.KindMaintenanceTicket.SheetTab(), now)
	if err != nil {
		observer.IncToolInvocation(ToolNameMaintenanceTicket, "error")
		return nil, err
	}
	if !inserted {
		observer.IncToolInvocation(ToolNameMaintenanceTicket, "deduped")
		logger.FromContext(ctx).Info("Maintenance ticket already recorded, deduping",
			zap.String("call_id", callID))
		return &ToolResult{ID: callID, Deduped: true}, nil
	}

	row := sheets.MaintenanceTicketRow{
		CreatedAt:    now,
		CallID:       callID,
		CallerPhone:  callerPhone,
		UnitNumber:   in.UnitNumber,
		IssueSummary: in.IssueSummary,
		Urgency:      in.Urgency,
		AccessOK:     in.AccessOK,
		Notes:        in.Notes,
		ToolLogged:   true,
	}
	if err := s.writer.AppendMaintenanceTicket(ctx, row); err != nil {
		if delErr := s.ledger.Delete(ctx, callID, model.KindMaintenanceTicket); delErr != nil {
			logger.FromContext(ctx).Error("Failed to release maintenance ticket write after append failure",
				zap.String("call_id", callID),
				zap.Error(delErr))
		}
		observer.IncToolInvocation(ToolNameMaintenanceTicket, "error")
		return nil, fmt.Errorf("failed to append maintenance ticket for %s: %w", callID, err)
	}

	s.recordToolRun(ctx, callID, ToolNameMaintenanceTicket, now,
		map[string]interface{}{"call_id": callID, "caller": callerPhone, "body": in},
		map[string]interface{}{"ok": true, "ticket_id": callID})

	observer.IncToolInvocation(ToolNameMaintenanceTicket, "success")
	logger.FromContext(ctx).Info("Maintenance ticket recorded via tool", zap.String("call_id", callID))
	return &ToolResult{ID: callID}, nil
}

// recordToolRun appends the audit record. The sheet row is already
// committed at this point, so a failed audit write is logged and
// dropped rather than failing the invocation and inviting a duplicate
// row on retry.
func (s *ToolService) recordToolRun(ctx context.Context, callID, toolName, createdAt string, request, response map[string]interface{}) {
	run := &model.ToolRun{
		CallID:    callID,
		ToolName:  toolName,
		CreatedAt: createdAt,
		Request:   datatypes.JSON(utils.MustMarshalJSON(request)),
		Response:  datatypes.JSON(utils.MustMarshalJSON(response)),
	}
	if err := s.runs.Save(ctx, run); err != nil {
		logger.FromContext(ctx).Error("Failed to record tool run",
			zap.String("call_id", callID),
			zap.String("tool_name", toolName),
			zap.Error(err))
	}
}
