package storage

import (
	"context"

	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
)

// EventRepo defines append-only event log operations
type EventRepo interface {
	Save(ctx context.Context, event *model.Event) error
	ListByCallID(ctx context.Context, callID string) ([]model.Event, error)
	Close(ctx context.Context) error
}

// CallRepo defines call projection operations
type CallRepo interface {
	Upsert(ctx context.Context, call model.Call) error
	FindByCallID(ctx context.Context, callID string) (*model.Call, error)
	ListRecent(ctx context.Context, limit int) ([]model.Call, error)
	Close(ctx context.Context) error
}

// WriteLedger defines the at-most-once ledger guarding external side effects
type WriteLedger interface {
	// TryInsert attempts the atomic conditional insert for (callID, kind).
	// It returns true when this caller just acquired exclusive rights to
	// perform the side effect, false when a write for the pair already
	// exists. Two concurrent attempts for the same pair see exactly one
	// true.
	TryInsert(ctx context.Context, callID string, kind model.WriteKind, sheetTab string, createdAt string) (bool, error)
	Has(ctx context.Context, callID string, kind model.WriteKind) (bool, error)
	// Delete releases the (callID, kind) lock, compensating for a failed
	// external append so a later delivery can retry.
	Delete(ctx context.Context, callID string, kind model.WriteKind) error
	Close(ctx context.Context) error
}

// ToolRunRepo defines tool invocation audit log operations
type ToolRunRepo interface {
	Save(ctx context.Context, run *model.ToolRun) error
	ListByCallID(ctx context.Context, callID string) ([]model.ToolRun, error)
	Close(ctx context.Context) error
}
