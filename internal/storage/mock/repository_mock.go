package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
)

// --- EventRepo Mock ---

// EventRepoMock mocks the EventRepo interface
type EventRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *EventRepoMock) Save(ctx context.Context, event *model.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// ListByCallID mocks the ListByCallID method
func (m *EventRepoMock) ListByCallID(ctx context.Context, callID string) ([]model.Event, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Event), args.Error(1)
}

// Close mocks the Close method
func (m *EventRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- CallRepo Mock ---

// CallRepoMock mocks the CallRepo interface
type CallRepoMock struct {
	mock.Mock
}

// Upsert mocks the Upsert method
func (m *CallRepoMock) Upsert(ctx context.Context, call model.Call) error {
	args := m.Called(ctx, call)
	return args.Error(0)
}

// FindByCallID mocks the FindByCallID method
func (m *CallRepoMock) FindByCallID(ctx context.Context, callID string) (*model.Call, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Call), args.Error(1)
}

// ListRecent mocks the ListRecent method
func (m *CallRepoMock) ListRecent(ctx context.Context, limit int) ([]model.Call, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Call), args.Error(1)
}

// Close mocks the Close method
func (m *CallRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- WriteLedger Mock ---

// WriteLedgerMock mocks the WriteLedger interface
type WriteLedgerMock struct {
	mock.Mock
}

// TryInsert mocks the TryInsert method
func (m *WriteLedgerMock) TryInsert(ctx context.Context, callID string, kind model.WriteKind, sheetTab string, createdAt string) (bool, error) {
	args := m.Called(ctx, callID, kind, sheetTab, createdAt)
	return args.Bool(0), args.Error(1)
}

// Has mocks the Has method
func (m *WriteLedgerMock) Has(ctx context.Context, callID string, kind model.WriteKind) (bool, error) {
	args := m.Called(ctx, callID, kind)
	return args.Bool(0), args.Error(1)
}

// Delete mocks the Delete method
func (m *WriteLedgerMock) Delete(ctx context.Context, callID string, kind model.WriteKind) error {
	args := m.Called(ctx, callID, kind)
	return args.Error(0)
}

// Close mocks the Close method
func (m *WriteLedgerMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- ToolRunRepo Mock ---

// ToolRunRepoMock mocks the ToolRunRepo interface
type ToolRunRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *ToolRunRepoMock) Save(ctx context.Context, run *model.ToolRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// ListByCallID mocks the ListByCallID method
func (m *ToolRunRepoMock) ListByCallID(ctx context.Context, callID string) ([]model.ToolRun, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ToolRun), args.Error(1)
}

// Close mocks the Close method
func (m *ToolRunRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
