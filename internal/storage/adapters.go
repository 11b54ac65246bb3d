package storage

import (
	"context"

	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
)

// EventRepoAdapter adapts the SqliteRepo to the EventRepo interface
type EventRepoAdapter struct {
	sqlite *SqliteRepo
}

// NewEventRepoAdapter creates a new event repository adapter
func NewEventRepoAdapter(sqlite *SqliteRepo) EventRepo {
	return &EventRepoAdapter{sqlite: sqlite}
}

// Save appends an event to the log
func (a *EventRepoAdapter) Save(ctx context.Context, event *model.Event) error {
	return a.sqlite.SaveEvent(ctx, event)
}

// ListByCallID lists stored events for a call
func (a *EventRepoAdapter) ListByCallID(ctx context.Context, callID string) ([]model.Event, error) {
	return a.sqlite.ListEventsByCallID(ctx, callID)
}

func (a *EventRepoAdapter) Close(ctx context.Context) error {
	return a.sqlite.Close(ctx)
}

// CallRepoAdapter adapts the SqliteRepo to the CallRepo interface
type CallRepoAdapter struct {
	sqlite *SqliteRepo
}

// NewCallRepoAdapter creates a new call repository adapter
func NewCallRepoAdapter(sqlite *SqliteRepo) CallRepo {
	return &CallRepoAdapter{sqlite: sqlite}
}

// Upsert stores the latest projection of a call
func (a *CallRepoAdapter) Upsert(ctx context.Context, call model.Call) error {
	return a.sqlite.UpsertCall(ctx, call)
}

// FindByCallID finds a call by ID
func (a *CallRepoAdapter) FindByCallID(ctx context.Context, callID string) (*model.Call, error) {
	return a.sqlite.FindCallByCallID(ctx, callID)
}

// ListRecent lists the most recently ended calls
func (a *CallRepoAdapter) ListRecent(ctx context.Context, limit int) ([]model.Call, error) {
	return a.sqlite.ListRecentCalls(ctx, limit)
}

func (a *CallRepoAdapter) Close(ctx context.Context) error {
	return a.sqlite.Close(ctx)
}

// WriteLedgerAdapter adapts the SqliteRepo to the WriteLedger interface
type WriteLedgerAdapter struct {
	sqlite *SqliteRepo
}

// NewWriteLedgerAdapter creates a new write ledger adapter
func NewWriteLedgerAdapter(sqlite *SqliteRepo) WriteLedger {
	return &WriteLedgerAdapter{sqlite: sqlite}
}

// TryInsert attempts the atomic conditional insert
func (a *WriteLedgerAdapter) TryInsert(ctx context.Context, callID string, kind model.WriteKind, sheetTab string, createdAt string) (bool, error) {
	return a.sqlite.TryInsertWrite(ctx, callID, kind, sheetTab, createdAt)
}

// Has checks whether a write record exists
func (a *WriteLedgerAdapter) Has(ctx context.Context, callID string, kind model.WriteKind) (bool, error) {
	return a.sqlite.HasWrite(ctx, callID, kind)
}

// Delete removes a write record
func (a *WriteLedgerAdapter) Delete(ctx context.Context, callID string, kind model.WriteKind) error {
	return a.sqlite.DeleteWrite(ctx, callID, kind)
}

func (a *WriteLedgerAdapter) Close(ctx context.Context) error {
	return a.sqlite.Close(ctx)
}

// ToolRunRepoAdapter adapts the SqliteRepo to the ToolRunRepo interface
type ToolRunRepoAdapter struct {
	sqlite *SqliteRepo
}

// NewToolRunRepoAdapter creates a new tool run repository adapter
func NewToolRunRepoAdapter(sqlite *SqliteRepo) ToolRunRepo {
	return &ToolRunRepoAdapter{sqlite: sqlite}
}

// Save appends a tool invocation record
func (a *ToolRunRepoAdapter) Save(ctx context.Context, run *model.ToolRun) error {
	return a.sqlite.SaveToolRun(ctx, run)
}

// ListByCallID lists tool invocations for a call
func (a *ToolRunRepoAdapter) ListByCallID(ctx context.Context, callID string) ([]model.ToolRun, error) {
	return a.sqlite.ListToolRunsByCallID(ctx, callID)
}

func (a *ToolRunRepoAdapter) Close(ctx context.Context) error {
	return a.sqlite.Close(ctx)
}

// Ensure adapters implement the interfaces
var _ EventRepo = (*EventRepoAdapter)(nil)
var _ CallRepo = (*CallRepoAdapter)(nil)
var _ WriteLedger = (*WriteLedgerAdapter)(nil)
var _ ToolRunRepo = (*ToolRunRepoAdapter)(nil)
