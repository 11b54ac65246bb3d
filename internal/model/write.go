package model

// WriteKind is the unit of idempotency: one external side effect per
// (call, kind).
type WriteKind string

const (
	KindLeaseLead         WriteKind = "LEASE_LEAD"
	KindMaintenanceTicket WriteKind = "MAINTENANCE_TICKET"
	KindCallLog           WriteKind = "CALL_LOG"
)

// SheetTab returns the destination tab name for a write kind.
func (k WriteKind) SheetTab() string {
	switch k {
	case KindLeaseLead:
		return "Lease Leads"
	case KindMaintenanceTicket:
		return "Maintenance Tickets"
	case KindCallLog:
		return "Call Logs"
	default:
		return ""
	}
}

// Valid reports whether the kind is one of the known write kinds.
func (k WriteKind) Valid() bool {
	switch k {
	case KindLeaseLead, KindMaintenanceTicket, KindCallLog:
		return true
	}
	return false
}

// WriteRecord is the idempotency ledger row guarding an external side
// effect. The (call_id, kind) uniqueness constraint is the only
// concurrency-control primitive in the system: presence means the side
// effect is in flight or committed, absence means safe to attempt.
// Rows are deleted only as compensation for a failed external append.
type WriteRecord struct {
	ID        int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	CallID    string    `json:"call_id" gorm:"column:call_id;not null;uniqueIndex:idx_writes_call_kind" validate:"required"`
	Kind      WriteKind `json:"kind" gorm:"column:kind;not null;uniqueIndex:idx_writes_call_kind" validate:"required"`
	SheetTab  string    `json:"sheet_tab" gorm:"column:sheet_tab"`
	CreatedAt string    `json:"created_at" gorm:"column:created_at;not null"`
}

// TableName specifies the table name for GORM.
func (WriteRecord) TableName() string {
	return "writes"
}
