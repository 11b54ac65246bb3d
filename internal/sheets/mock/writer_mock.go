package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/riveops/api/rive-voice-intake/internal/sheets"
)

// WriterMock mocks the sheets.Writer interface
type WriterMock struct {
	mock.Mock
}

// AppendLeaseLead mocks the AppendLeaseLead method
func (m *WriterMock) AppendLeaseLead(ctx context.Context, row sheets.LeaseLeadRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

// AppendMaintenanceTicket mocks the AppendMaintenanceTicket method
func (m *WriterMock) AppendMaintenanceTicket(ctx context.Context, row sheets.MaintenanceTicketRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

// AppendCallLog mocks the AppendCallLog method
func (m *WriterMock) AppendCallLog(ctx context.Context, row sheets.CallLogRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}
