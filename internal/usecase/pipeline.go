package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/riveops/api/rive-voice-intake/internal/analyzer"
	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
	"gitlab.com/riveops/api/rive-voice-intake/internal/observer"
	"gitlab.com/riveops/api/rive-voice-intake/internal/sheets"
	"gitlab.com/riveops/api/rive-voice-intake/internal/storage"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/utils"
)

// Sheet cells cap out at 50k characters; these margins keep rows well
// under the limit.
const (
	maxSummaryCell    = 5000
	maxTranscriptCell = 45000
	maxAnalysisCell   = 45000
)

// CompletionPipeline turns a completion event into its side effects:
// an analysis, an updated call projection, a Call Logs row, and, when
// the agent's tools never ran during the call, a fallback lead or
// ticket row recovered from the analysis. Every external append is
// gated on the write ledger, so replaying the same event is harmless.
type CompletionPipeline struct {
	calls  storage.CallRepo
	ledger storage.WriteLedger
	writer sheets.Writer
	// analysis is nil when no analyzer API key is configured; the
	// pipeline then logs calls without classification.
	analysis analyzer.Analyzer
	loc      *time.Location
}

// NewCompletionPipeline creates the pipeline.
func NewCompletionPipeline(
	calls storage.CallRepo,
	ledger storage.WriteLedger,
	writer sheets.Writer,
	analysis analyzer.Analyzer,
	loc *time.Location,
) *CompletionPipeline {
	return &CompletionPipeline{
		calls:    calls,
		ledger:   ledger,
		writer:   writer,
		analysis: analysis,
		loc:      loc,
	}
}

// ProcessEvent runs the completion pipeline for one persisted event.
// Events without a call ID, and events that don't look like the end of
// a call, are skipped without error.
func (p *CompletionPipeline) ProcessEvent(ctx context.Context, event *model.Event) error {
	if event.CallID == nil || *event.CallID == "" {
		return nil
	}
	payload := model.ParseWebhookPayload(event.Payload)
	if !payload.IsCompletion() {
		return nil
	}
	return p.processCompletion(ctx, *event.CallID, payload)
}

func (p *CompletionPipeline) processCompletion(ctx context.Context, callID string, payload model.WebhookPayload) error {
	log := logger.FromContext(ctx)
	now := utils.NowISOWithOffset(p.loc)
	details := payload.CallDetails()

	// Analysis failure aborts the whole run before any state changes,
	// so the next duplicate delivery retries from scratch.
	var callAnalysis *model.CallAnalysis
	if p.analysis != nil {
		var err error
		callAnalysis, err = p.analysis.Analyze(ctx, callID)
		if err != nil {
			return fmt.Errorf("analysis failed for call %s: %w", callID, err)
		}
	}

	call := model.Call{
		CallID:          callID,
		StartedAt:       details.StartedAt,
		EndedAt:         details.EndedAt,
		FromNumber:      details.From,
		ToNumber:        details.To,
		AnsweredBy:      details.AnsweredBy,
		DurationMinutes: details.DurationMinutes,
		Summary:         details.Summary,
		Transcript:      details.Transcript,
		RecordingURL:    details.RecordingURL,
	}
	if call.EndedAt == nil {
		call.EndedAt = &now
	}
	if callAnalysis != nil {
		intent := string(callAnalysis.Intent)
		call.DetectedIntent = &intent
		call.Analysis = datatypes.JSON(utils.MustMarshalJSON(callAnalysis))
	}
	if err := p.calls.Upsert(ctx, call); err != nil {
		return fmt.Errorf("failed to upsert call %s: %w", callID, err)
	}

	proceed, err := p.appendCallLog(ctx, callID, now, details, callAnalysis)
	if err != nil {
		return err
	}
	// A deduped call log means an earlier run already got this far;
	// nothing left to do.
	if !proceed {
		return nil
	}

	// Fallback intake failures never fail the run: the Call Logs row is
	// already committed, and the compensation below keeps the lead or
	// ticket claimable by a later delivery.
	if callAnalysis != nil {
		callerPhone := ""
		if details.From != nil {
			callerPhone = *details.From
		}
		if err := p.tryFallbackIntake(ctx, callID, callerPhone, *callAnalysis); err != nil {
			log.Warn("Fallback intake failed",
				zap.String("call_id", callID),
				zap.Error(err))
		}
	}
	return nil
}

// appendCallLog writes the Call Logs row, gated on the ledger. It
// returns false when the row was already claimed by an earlier run.
func (p *CompletionPipeline) appendCallLog(ctx context.Context, callID, now string, details model.CallDetails, callAnalysis *model.CallAnalysis) (bool, error) {
	inserted, err := p.ledger.TryInsert(ctx, callID, model.KindCallLog, model.KindCallLog.SheetTab(), now)
	if err != nil {
		return false, fmt.Errorf("failed to claim call log write for %s: %w", callID, err)
	}
	if !inserted {
		logger.FromContext(ctx).Debug("Call log already written, skipping",
			zap.String("call_id", callID))
		observer.IncPipelineAction("", "call_log_deduped", "none")
		return false, nil
	}

	row := sheets.CallLogRow{
		CreatedAt:    now,
		CallID:       callID,
		From:         deref(details.From),
		To:           deref(details.To),
		AnsweredBy:   deref(details.AnsweredBy),
		Summary:      utils.TruncateForCell(deref(details.Summary), maxSummaryCell),
		Transcript:   utils.TruncateForCell(deref(details.Transcript), maxTranscriptCell),
		RecordingURL: deref(details.RecordingURL),
	}
	if details.DurationMinutes != nil {
		row.DurationMinutes = *details.DurationMinutes
	}
	if callAnalysis != nil {
		row.DetectedIntent = string(callAnalysis.Intent)
		row.EvalJSON = utils.TruncateForCell(utils.MarshalJSONOrEmpty(callAnalysis), maxAnalysisCell)
	}

	if err := p.writer.AppendCallLog(ctx, row); err != nil {
		// Release the ledger slot so a later delivery can retry the row.
		if delErr := p.ledger.Delete(ctx, callID, model.KindCallLog); delErr != nil {
			logger.FromContext(ctx).Error("Failed to release call log write after append failure",
				zap.String("call_id", callID),
				zap.Error(delErr))
		}
		return false, fmt.Errorf("failed to append call log for %s: %w", callID, err)
	}
	return true, nil
}

// tryFallbackIntake recovers a lead or ticket from the analysis when
// the agent's tools never fired during the call. An intent alone is
// not enough; the analysis must have captured at least one usable
// field, otherwise the row would be noise.
func (p *CompletionPipeline) tryFallbackIntake(ctx context.Context, callID, callerPhone string, a model.CallAnalysis) error {
	switch a.Intent {
	case model.IntentLease:
		return p.fallbackLeaseLead(ctx, callID, callerPhone, a)
	case model.IntentMaintenance:
		return p.fallbackMaintenanceTicket(ctx, callID, callerPhone, a)
	default:
		return nil
	}
}

func (p *CompletionPipeline) fallbackLeaseLead(ctx context.Context, callID, callerPhone string, a model.CallAnalysis) error {
	has, err := p.ledger.Has(ctx, callID, model.KindLeaseLead)
	if err != nil {
		return err
	}
	if has || !a.HasLeaseDetail() {
		return nil
	}

	now := utils.NowISOWithOffset(p.loc)
	inserted, err := p.ledger.TryInsert(ctx, callID, model.KindLeaseLead, model.KindLeaseLead.SheetTab(), now)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	row := sheets.LeaseLeadRow{
		CreatedAt:   now,
		CallID:      callID,
		CallerPhone: callerPhone,
		Name:        a.Name,
		Email:       a.Email,
		MoveInDate:  a.MoveInDate,
		UnitType:    a.UnitType,
		LeaseTerm:   a.LeaseTerm,
		Budget:      a.Budget,
		Pets:        a.Pets,
		Notes:       a.FallbackNotes(),
		ToolLogged:  false,
	}
	if err := p.writer.AppendLeaseLead(ctx, row); err != nil {
		if delErr := p.ledger.Delete(ctx, callID, model.KindLeaseLead); delErr != nil {
			logger.FromContext(ctx).Error("Failed to release lease lead write after append failure",
				zap.String("call_id", callID),
				zap.Error(delErr))
		}
		return err
	}
	observer.IncPipelineAction("", "fallback_lease_lead", "none")
	logger.FromContext(ctx).Info("Fallback lease lead recorded", zap.String("call_id", callID))
	return nil
}

func (p *CompletionPipeline) fallbackMaintenanceTicket(ctx context.Context, callID, callerPhone string, a model.CallAnalysis) error {
	has, err := p.ledger.Has(ctx, callID, model.KindMaintenanceTicket)
	if err != nil {
		return err
	}
	if has || !a.HasMaintenanceDetail() {
		return nil
	}

	now := utils.NowISOWithOffset(p.loc)
	inserted, err := p.ledger.TryInsert(ctx, callID, model.KindMaintenanceTicket, model.KindMaintenanceTicket.SheetTab(), now)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	row := sheets.MaintenanceTicketRow{
		CreatedAt:    now,
		CallID:       callID,
		CallerPhone:  callerPhone,
		UnitNumber:   a.UnitNumber,
		IssueSummary: a.IssueSummary,
		Urgency:      a.Urgency,
		AccessOK:     a.AccessOK,
		Notes:        a.FallbackNotes(),
		ToolLogged:   false,
	}
	if err := p.writer.AppendMaintenanceTicket(ctx, row); err != nil {
		if delErr := p.ledger.Delete(ctx, callID, model.KindMaintenanceTicket); delErr != nil {
			logger.FromContext(ctx).Error("Failed to release maintenance ticket write after append failure",
				zap.String("call_id", callID),
				zap.Error(delErr))
		}
		return err
	}
	observer.IncPipelineAction("", "fallback_maintenance_ticket", "none")
	logger.FromContext(ctx).Info("Fallback maintenance ticket recorded", zap.String("call_id", callID))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
