package model

import (
	"gorm.io/datatypes"
)

// Event is one inbound webhook delivery, stored verbatim. Events are
// append-only: rows are never updated or deleted, and duplicates are
// expected because upstream delivery is at-least-once. Row id order is
// the replay/audit ordering contract.
type Event struct {
	ID int64 `json:"id" gorm:"primaryKey;autoIncrement"`
	// ReceivedAt is an ISO-8601 timestamp with an explicit zone offset.
	ReceivedAt string `json:"received_at" gorm:"column:received_at;not null" validate:"required"`
	// CallID is extracted heuristically from the payload; nil when the
	// payload carried no recognizable call identifier.
	CallID   *string        `json:"call_id,omitempty" gorm:"column:call_id;index"`
	Category *string        `json:"category,omitempty" gorm:"column:category"`
	Payload  datatypes.JSON `json:"payload" gorm:"column:payload;not null"`
	// Headers is a snapshot of the transport metadata at receipt time.
	Headers datatypes.JSON `json:"headers,omitempty" gorm:"column:headers"`
}

// TableName specifies the table name for GORM.
func (Event) TableName() string {
	return "events"
}
