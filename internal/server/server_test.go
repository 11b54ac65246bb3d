package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
	sheetsmock "gitlab.com/riveops/api/rive-voice-intake/internal/sheets/mock"
	storagemock "gitlab.com/riveops/api/rive-voice-intake/internal/storage/mock"
	"gitlab.com/riveops/api/rive-voice-intake/internal/usecase"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
)

type nopEnqueuer struct {
	events []*model.Event
}

func (e *nopEnqueuer) Enqueue(ctx context.Context, event *model.Event) {
	e.events = append(e.events, event)
}

type serverMocks struct {
	events   *storagemock.EventRepoMock
	calls    *storagemock.CallRepoMock
	ledger   *storagemock.WriteLedgerMock
	toolRuns *storagemock.ToolRunRepoMock
	writer   *sheetsmock.WriterMock
	enqueuer *nopEnqueuer
}

func newTestServer(t *testing.T, webhookSecret, toolsSecret string) (*Server, *serverMocks) {
	t.Helper()
	logger.Log = zaptest.NewLogger(t).Named("test")

	m := &serverMocks{
		events:   new(storagemock.EventRepoMock),
		calls:    new(storagemock.CallRepoMock),
		ledger:   new(storagemock.WriteLedgerMock),
		toolRuns: new(storagemock.ToolRunRepoMock),
		writer:   new(sheetsmock.WriterMock),
		enqueuer: &nopEnqueuer{},
	}

	s := New(0, "test", Options{
		WebhookSecret:     webhookSecret,
		ToolsSharedSecret: toolsSecret,
		Intake:            usecase.NewIntakeService(m.events, m.enqueuer, time.UTC),
		Tools:             usecase.NewToolService(m.ledger, m.toolRuns, m.writer, time.UTC),
		Calls:             m.calls,
		Events:            m.events,
		ToolRuns:          m.toolRuns,
	})
	return s, m
}

func doRequest(s *Server, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// --- Webhook Route Tests ---

func TestWebhook_ValidSignature(t *testing.T) {
	s, m := newTestServer(t, "hooksecret", "")
	m.events.On("Save", mock.Anything, mock.AnythingOfType("*model.Event")).Return(nil).Once()

	body := []byte(`{"call_id":"c1","completed":true}`)
	w := doRequest(s, http.MethodPost, "/webhooks/bland", body, map[string]string{
		"X-Webhook-Signature": signBody("hooksecret", body),
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Len(t, m.enqueuer.events, 1)
}

func TestWebhook_InvalidSignature(t *testing.T) {
	s, m := newTestServer(t, "hooksecret", "")

	body := []byte(`{"call_id":"c1"}`)
	w := doRequest(s, http.MethodPost, "/webhooks/bland", body, map[string]string{
		"X-Webhook-Signature": signBody("wrongsecret", body),
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	m.events.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Empty(t, m.enqueuer.events)
}

func TestWebhook_NoSecretSkipsVerification(t *testing.T) {
	s, m := newTestServer(t, "", "")
	m.events.On("Save", mock.Anything, mock.AnythingOfType("*model.Event")).Return(nil).Once()

	w := doRequest(s, http.MethodPost, "/webhooks/bland", []byte(`{"call_id":"c2"}`), nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhook_MalformedJSON(t *testing.T) {
	s, m := newTestServer(t, "", "")

	w := doRequest(s, http.MethodPost, "/webhooks/bland", []byte(`{not json`), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.events.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestWebhook_EmptyBody(t *testing.T) {
	s, _ := newTestServer(t, "", "")

	w := doRequest(s, http.MethodPost, "/webhooks/bland", nil, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_StorageFailure(t *testing.T) {
	s, m := newTestServer(t, "", "")
	m.events.On("Save", mock.Anything, mock.AnythingOfType("*model.Event")).
		Return(fmt.Errorf("disk full")).Once()

	w := doRequest(s, http.MethodPost, "/webhooks/bland", []byte(`{"call_id":"c3"}`), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, m.enqueuer.events)
}

// --- Tool Route Tests ---

func TestToolRoute_LeaseLead(t *testing.T) {
	s, m := newTestServer(t, "", "toolsecret")

	m.ledger.On("TryInsert", mock.Anything, "c1", model.KindLeaseLead, "Lease Leads", mock.AnythingOfType("string")).
		Return(true, nil).Once()
	m.writer.On("AppendLeaseLead", mock.Anything, mock.AnythingOfType("sheets.LeaseLeadRow")).Return(nil).Once()
	m.toolRuns.On("Save", mock.Anything, mock.AnythingOfType("*model.ToolRun")).Return(nil).Once()

	body := []byte(`{"name":"  Jordan Smith  ","email":"jordan@example.com"}`)
	w := doRequest(s, http.MethodPost, "/tools/log-lease-lead?call_id=c1&caller=%2B15550001111", body, map[string]string{
		"Authorization": "Bearer toolsecret",
		"Content-Type":  "application/json",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, "c1", resp["lead_id"])
	assert.NotContains(t, resp, "deduped")
}

func TestToolRoute_BearerAuthRequired(t *testing.T) {
	s, m := newTestServer(t, "", "toolsecret")

	w := doRequest(s, http.MethodPost, "/tools/log-lease-lead?call_id=c1", []byte(`{}`), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(s, http.MethodPost, "/tools/log-lease-lead?call_id=c1", []byte(`{}`), map[string]string{
		"Authorization": "Bearer wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	m.ledger.AssertNotCalled(t, "TryInsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestToolRoute_NoSecretAllowsLocalDev(t *testing.T) {
	s, m := newTestServer(t, "", "")

	m.ledger.On("TryInsert", mock.Anything, "c2", model.KindMaintenanceTicket, "Maintenance Tickets", mock.AnythingOfType("string")).
		Return(true, nil).Once()
	m.writer.On("AppendMaintenanceTicket", mock.Anything, mock.AnythingOfType("sheets.MaintenanceTicketRow")).Return(nil).Once()
	m.toolRuns.On("Save", mock.Anything, mock.AnythingOfType("*model.ToolRun")).Return(nil).Once()

	w := doRequest(s, http.MethodPost, "/tools/log-maintenance-ticket?call_id=c2",
		[]byte(`{"unit_number":"4B","issue_summary":"leak"}`),
		map[string]string{"Content-Type": "application/json"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestToolRoute_MissingCallID(t *testing.T) {
	s, _ := newTestServer(t, "", "")

	w := doRequest(s, http.MethodPost, "/tools/log-lease-lead", []byte(`{}`),
		map[string]string{"Content-Type": "application/json"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid query")
}

func TestToolRoute_Deduped(t *testing.T) {
	s, m := newTestServer(t, "", "")

	m.ledger.On("TryInsert", mock.Anything, "c3", model.KindMaintenanceTicket, "Maintenance Tickets", mock.AnythingOfType("string")).
		Return(false, nil).Once()

	w := doRequest(s, http.MethodPost, "/tools/log-maintenance-ticket?call_id=c3",
		[]byte(`{"issue_summary":"leak"}`),
		map[string]string{"Content-Type": "application/json"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["deduped"])
	assert.Equal(t, "c3", resp["ticket_id"])
	m.writer.AssertNotCalled(t, "AppendMaintenanceTicket", mock.Anything, mock.Anything)
}

func TestToolRoute_SheetFailure(t *testing.T) {
	s, m := newTestServer(t, "", "")

	m.ledger.On("TryInsert", mock.Anything, "c4", model.KindLeaseLead, "Lease Leads", mock.AnythingOfType("string")).
		Return(true, nil).Once()
	m.writer.On("AppendLeaseLead", mock.Anything, mock.AnythingOfType("sheets.LeaseLeadRow")).
		Return(fmt.Errorf("sheets request failed")).Once()
	m.ledger.On("Delete", mock.Anything, "c4", model.KindLeaseLead).Return(nil).Once()

	w := doRequest(s, http.MethodPost, "/tools/log-lease-lead?call_id=c4",
		[]byte(`{"name":"Jordan"}`),
		map[string]string{"Content-Type": "application/json"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	m.ledger.AssertExpectations(t)
}

// --- Debug Route Tests ---

func TestDebugRoute_ListCalls(t *testing.T) {
	s, m := newTestServer(t, "", "")

	ended := "2026-08-30T10:00:00-07:00"
	m.calls.On("ListRecent", mock.Anything, 50).
		Return([]model.Call{{CallID: "c1", EndedAt: &ended}}, nil).Once()

	w := doRequest(s, http.MethodGet, "/debug/calls", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"c1"`)
}

func TestDebugRoute_ListCalls_Limit(t *testing.T) {
	s, m := newTestServer(t, "", "")

	m.calls.On("ListRecent", mock.Anything, 5).Return([]model.Call{}, nil).Once()

	w := doRequest(s, http.MethodGet, "/debug/calls?limit=5", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/debug/calls?limit=zero", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDebugRoute_GetCall(t *testing.T) {
	s, m := newTestServer(t, "", "")

	m.calls.On("FindByCallID", mock.Anything, "c1").Return(&model.Call{CallID: "c1"}, nil).Once()
	m.events.On("ListByCallID", mock.Anything, "c1").Return([]model.Event{{ID: 1}}, nil).Once()
	m.toolRuns.On("ListByCallID", mock.Anything, "c1").Return([]model.ToolRun{}, nil).Once()

	w := doRequest(s, http.MethodGet, "/debug/calls/c1", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.NotNil(t, resp["call"])
	assert.NotNil(t, resp["events"])
}

func TestDebugRoute_GetCall_NotFound(t *testing.T) {
	s, m := newTestServer(t, "", "")

	m.calls.On("FindByCallID", mock.Anything, "nope").Return(nil, apperrors.ErrNotFound).Once()

	w := doRequest(s, http.MethodGet, "/debug/calls/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
