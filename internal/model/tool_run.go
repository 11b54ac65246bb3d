package model

import (
	"gorm.io/datatypes"
)

// ToolRun is the audit record of the voice agent invoking one of the
// mid-call HTTP tools. Append-only; not part of the idempotency
// mechanism (the writes ledger is).
type ToolRun struct {
	ID        int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	CallID    string         `json:"call_id" gorm:"column:call_id;not null;index" validate:"required"`
	ToolName  string         `json:"tool_name" gorm:"column:tool_name;not null" validate:"required"`
	CreatedAt string         `json:"created_at" gorm:"column:created_at;not null"`
	Request   datatypes.JSON `json:"request" gorm:"column:request"`
	Response  datatypes.JSON `json:"response" gorm:"column:response"`
}

// TableName specifies the table name for GORM.
func (ToolRun) TableName() string {
	return "tool_runs"
}
