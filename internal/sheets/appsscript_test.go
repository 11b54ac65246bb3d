package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
)

func newTestWriter(t *testing.T, handler http.HandlerFunc) *AppsScriptWriter {
	t.Helper()
	logger.Log = zaptest.NewLogger(t).Named("test")

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	writer, err := NewAppsScriptWriter(server.URL, "sheet-token", 5*time.Second)
	require.NoError(t, err)
	return writer
}

func TestAppsScriptWriter_AppendLeaseLead(t *testing.T) {
	var got appsScriptBody
	writer := newTestWriter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := writer.AppendLeaseLead(context.Background(), LeaseLeadRow{
		CreatedAt:   "2026-08-30T10:00:00-07:00",
		CallID:      "call-1",
		CallerPhone: "+15550001111",
		Name:        "Jordan Smith",
		ToolLogged:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "sheet-token", got.Token)
	assert.Equal(t, "lease_lead", got.Type)

	payload, ok := got.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "call-1", payload["call_id"])
	assert.Equal(t, "Jordan Smith", payload["name"])
	assert.Equal(t, true, payload["tool_logged"])
	// Empty optional fields stay off the row entirely
	assert.NotContains(t, payload, "email")
}

func TestAppsScriptWriter_AppendMaintenanceTicket(t *testing.T) {
	var got appsScriptBody
	writer := newTestWriter(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := writer.AppendMaintenanceTicket(context.Background(), MaintenanceTicketRow{
		CreatedAt:    "2026-08-30T10:00:00-07:00",
		CallID:       "call-2",
		UnitNumber:   "4B",
		IssueSummary: "Leaking sink",
		Notes:        "FALLBACK: extracted from call analysis",
	})
	require.NoError(t, err)

	assert.Equal(t, "maintenance_ticket", got.Type)
	payload := got.Payload.(map[string]interface{})
	assert.Equal(t, "4B", payload["unit_number"])
	assert.Equal(t, false, payload["tool_logged"])
}

func TestAppsScriptWriter_AppendCallLog_ServerError(t *testing.T) {
	writer := newTestWriter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "script exploded", http.StatusInternalServerError)
	})

	err := writer.AppendCallLog(context.Background(), CallLogRow{CallID: "call-3"})
	require.Error(t, err)
	assert.True(t, apperrors.IsSheetsError(err))
	assert.Contains(t, err.Error(), "500")
}

func TestNewAppsScriptWriter_Validation(t *testing.T) {
	_, err := NewAppsScriptWriter("", "token", time.Second)
	assert.True(t, apperrors.IsBadRequestError(err))

	_, err = NewAppsScriptWriter("https://script.example.com", "", time.Second)
	assert.True(t, apperrors.IsBadRequestError(err))
}
