package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
	"gitlab.com/riveops/api/rive-voice-intake/internal/observer"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/utils"
)

// Row type discriminators understood by the Apps Script endpoint.
const (
	rowTypeLeaseLead         = "lease_lead"
	rowTypeMaintenanceTicket = "maintenance_ticket"
	rowTypeCallLog           = "call_log"
)

type appsScriptBody struct {
	Token   string      `json:"token"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// AppsScriptWriter posts rows to a Google Apps Script web app that
// appends them to the spreadsheet. The script authenticates on a
// shared token carried in the body.
type AppsScriptWriter struct {
	httpClient *http.Client
	url        string
	token      string
}

// NewAppsScriptWriter creates a writer for the given Apps Script URL.
func NewAppsScriptWriter(url, token string, timeout time.Duration) (*AppsScriptWriter, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: sheets Apps Script URL is required", apperrors.ErrBadRequest)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: sheets Apps Script token is required", apperrors.ErrBadRequest)
	}
	return &AppsScriptWriter{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		token:      token,
	}, nil
}

// AppendLeaseLead appends a row to the "Lease Leads" tab.
func (w *AppsScriptWriter) AppendLeaseLead(ctx context.Context, row LeaseLeadRow) error {
	return w.post(ctx, rowTypeLeaseLead, row)
}

// AppendMaintenanceTicket appends a row to the "Maintenance Tickets" tab.
func (w *AppsScriptWriter) AppendMaintenanceTicket(ctx context.Context, row MaintenanceTicketRow) error {
	return w.post(ctx, rowTypeMaintenanceTicket, row)
}

// AppendCallLog appends a row to the "Call Logs" tab.
func (w *AppsScriptWriter) AppendCallLog(ctx context.Context, row CallLogRow) error {
	return w.post(ctx, rowTypeCallLog, row)
}

func (w *AppsScriptWriter) post(ctx context.Context, rowType string, payload interface{}) error {
	body, err := json.Marshal(appsScriptBody{
		Token:   w.token,
		Type:    rowType,
		Payload: payload,
	})
	if err != nil {
		observer.IncSheetAppendFailure(rowType)
		return fmt.Errorf("%w: failed to marshal %s row: %w", apperrors.ErrSheets, rowType, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		observer.IncSheetAppendFailure(rowType)
		return fmt.Errorf("%w: failed to build sheets request: %w", apperrors.ErrSheets, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		observer.IncSheetAppendFailure(rowType)
		logger.FromContext(ctx).Error("Sheets append request failed",
			zap.String("row_type", rowType),
			zap.Error(err))
		return fmt.Errorf("%w: sheets request failed: %w", apperrors.ErrSheets, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observer.IncSheetAppendFailure(rowType)
		logger.FromContext(ctx).Error("Sheets append rejected",
			zap.String("row_type", rowType),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: sheets Apps Script returned status %d: %s",
			apperrors.ErrSheets, resp.StatusCode, utils.TruncateForCell(string(respBody), 500))
	}

	observer.IncSheetAppendSuccess(rowType)
	logger.FromContext(ctx).Debug("Sheets row appended", zap.String("row_type", rowType))
	return nil
}
