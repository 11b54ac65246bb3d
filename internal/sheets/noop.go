package sheets

import (
	"context"

	"go.uber.org/zap"

	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
)

// NoopWriter discards rows. Used when the Apps Script endpoint is not
// configured so the rest of the pipeline still runs locally; the write
// ledger still records the append as done.
type NoopWriter struct{}

// NewNoopWriter creates a writer that drops every row.
func NewNoopWriter() *NoopWriter {
	return &NoopWriter{}
}

func (w *NoopWriter) AppendLeaseLead(ctx context.Context, row LeaseLeadRow) error {
	logger.FromContext(ctx).Debug("Sheets writer not configured, dropping lease lead row",
		zap.String("call_id", row.CallID))
	return nil
}

func (w *NoopWriter) AppendMaintenanceTicket(ctx context.Context, row MaintenanceTicketRow) error {
	logger.FromContext(ctx).Debug("Sheets writer not configured, dropping maintenance ticket row",
		zap.String("call_id", row.CallID))
	return nil
}

func (w *NoopWriter) AppendCallLog(ctx context.Context, row CallLogRow) error {
	logger.FromContext(ctx).Debug("Sheets writer not configured, dropping call log row",
		zap.String("call_id", row.CallID))
	return nil
}

var _ Writer = (*NoopWriter)(nil)
var _ Writer = (*AppsScriptWriter)(nil)
