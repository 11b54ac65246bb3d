package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
	"gitlab.com/riveops/api/rive-voice-intake/internal/sheets"
	sheetsmock "gitlab.com/riveops/api/rive-voice-intake/internal/sheets/mock"
	storagemock "gitlab.com/riveops/api/rive-voice-intake/internal/storage/mock"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
)

func newTestToolService(t *testing.T) (*ToolService, *storagemock.WriteLedgerMock, *storagemock.ToolRunRepoMock, *sheetsmock.WriterMock) {
	t.Helper()
	logger.Log = zaptest.NewLogger(t).Named("test")

	ledger := new(storagemock.WriteLedgerMock)
	runs := new(storagemock.ToolRunRepoMock)
	writer := new(sheetsmock.WriterMock)
	return NewToolService(ledger, runs, writer, time.UTC), ledger, runs, writer
}

func TestToolService_LogLeaseLead(t *testing.T) {
	s, ledger, runs, writer := newTestToolService(t)

	ledger.On("TryInsert", mock.Anything, "c1", model.KindLeaseLead, "Lease Leads", mock.AnythingOfType("string")).
		Return(true, nil).Once()

	var row sheets.LeaseLeadRow
	writer.On("AppendLeaseLead", mock.Anything, mock.AnythingOfType("sheets.LeaseLeadRow")).
		Run(func(args mock.Arguments) { row = args.Get(1).(sheets.LeaseLeadRow) }).
		Return(nil).Once()

	var run *model.ToolRun
	runs.On("Save", mock.Anything, mock.AnythingOfType("*model.ToolRun")).
		Run(func(args mock.Arguments) { run = args.Get(1).(*model.ToolRun) }).
		Return(nil).Once()

	result, err := s.LogLeaseLead(context.Background(), "c1", "+15550001111", LeaseLeadInput{
		Name:     "Jordan Smith",
		Email:    "jordan@example.com",
		UnitType: "2BR",
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", result.ID)
	assert.False(t, result.Deduped)

	assert.Equal(t, "Jordan Smith", row.Name)
	assert.True(t, row.ToolLogged)
	assert.Equal(t, "+15550001111", row.CallerPhone)

	require.NotNil(t, run)
	assert.Equal(t, "c1", run.CallID)
	assert.Equal(t, ToolNameLeaseLead, run.ToolName)

	ledger.AssertExpectations(t)
	writer.AssertExpectations(t)
	runs.AssertExpectations(t)
}

func TestToolService_LogLeaseLead_Deduped(t *testing.T) {
	s, ledger, runs, writer := newTestToolService(t)

	ledger.On("TryInsert", mock.Anything, "c2", model.KindLeaseLead, "Lease Leads", mock.AnythingOfType("string")).
		Return(false, nil).Once()

	result, err := s.LogLeaseLead(context.Background(), "c2", "", LeaseLeadInput{Name: "Dup"})
	require.NoError(t, err)
	assert.Equal(t, "c2", result.ID)
	assert.True(t, result.Deduped)

	writer.AssertNotCalled(t, "AppendLeaseLead", mock.Anything, mock.Anything)
	runs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestToolService_LogLeaseLead_SheetFailureCompensates(t *testing.T) {
	s, ledger, runs, writer := newTestToolService(t)

	ledger.On("TryInsert", mock.Anything, "c3", model.KindLeaseLead, "Lease Leads", mock.AnythingOfType("string")).
		Return(true, nil).Once()
	writer.On("AppendLeaseLead", mock.Anything, mock.AnythingOfType("sheets.LeaseLeadRow")).
		Return(fmt.Errorf("sheets request failed")).Once()
	ledger.On("Delete", mock.Anything, "c3", model.KindLeaseLead).Return(nil).Once()

	result, err := s.LogLeaseLead(context.Background(), "c3", "", LeaseLeadInput{Name: "Jordan"})
	require.Error(t, err)
	assert.Nil(t, result)

	ledger.AssertExpectations(t)
	runs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestToolService_LogMaintenanceTicket(t *testing.T) {
	s, ledger, runs, writer := newTestToolService(t)

	ledger.On("TryInsert", mock.Anything, "c4", model.KindMaintenanceTicket, "Maintenance Tickets", mock.AnythingOfType("string")).
		Return(true, nil).Once()

	var row sheets.MaintenanceTicketRow
	writer.On("AppendMaintenanceTicket", mock.Anything, mock.AnythingOfType("sheets.MaintenanceTicketRow")).
		Run(func(args mock.Arguments) { row = args.Get(1).(sheets.MaintenanceTicketRow) }).
		Return(nil).Once()
	runs.On("Save", mock.Anything, mock.AnythingOfType("*model.ToolRun")).Return(nil).Once()

	result, err := s.LogMaintenanceTicket(context.Background(), "c4", "+15550003333", MaintenanceTicketInput{
		UnitNumber:   "4B",
		IssueSummary: "Leaking sink",
		Urgency:      "Urgent",
	})
	require.NoError(t, err)
	assert.Equal(t, "c4", result.ID)
	assert.False(t, result.Deduped)

	assert.Equal(t, "4B", row.UnitNumber)
	assert.True(t, row.ToolLogged)

	ledger.AssertExpectations(t)
	writer.AssertExpectations(t)
}

func TestToolService_AuditFailureDoesNotFailInvocation(t *testing.T) {
	s, ledger, runs, writer := newTestToolService(t)

	ledger.On("TryInsert", mock.Anything, "c5", model.KindMaintenanceTicket, "Maintenance Tickets", mock.AnythingOfType("string")).
		Return(true, nil).Once()
	writer.On("AppendMaintenanceTicket", mock.Anything, mock.AnythingOfType("sheets.MaintenanceTicketRow")).
		Return(nil).Once()
	runs.On("Save", mock.Anything, mock.AnythingOfType("*model.ToolRun")).
		Return(fmt.Errorf("database error")).Once()

	// The sheet row is committed; losing the audit record must not turn
	// the invocation into a retryable failure.
	result, err := s.LogMaintenanceTicket(context.Background(), "c5", "", MaintenanceTicketInput{IssueSummary: "heater"})
	require.NoError(t, err)
	assert.False(t, result.Deduped)

	ledger.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestToolService_LogLeaseLead_InvalidEmail(t *testing.T) {
	s, ledger, _, writer := newTestToolService(t)

	_, err := s.LogLeaseLead(context.Background(), "c6", "", LeaseLeadInput{
		Name:  "Jordan Smith",
		Email: "not-an-email",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
	assert.Contains(t, err.Error(), "email")

	ledger.AssertNotCalled(t, "TryInsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	writer.AssertNotCalled(t, "AppendLeaseLead", mock.Anything, mock.Anything)
}
