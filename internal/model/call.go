package model

import (
	"gorm.io/datatypes"
)

// Call is the mutable projection of a finished phone call, keyed by the
// platform's call ID. It is rebuilt wholesale on every completion event
// for that call: duplicates overwrite, last write wins per row.
type Call struct {
	CallID          string         `json:"call_id" gorm:"column:call_id;primaryKey" validate:"required"`
	StartedAt       *string        `json:"started_at,omitempty" gorm:"column:started_at"`
	EndedAt         *string        `json:"ended_at,omitempty" gorm:"column:ended_at;index"`
	FromNumber      *string        `json:"from_number,omitempty" gorm:"column:from_number"`
	ToNumber        *string        `json:"to_number,omitempty" gorm:"column:to_number"`
	AnsweredBy      *string        `json:"answered_by,omitempty" gorm:"column:answered_by"`
	DurationMinutes *float64       `json:"duration_minutes,omitempty" gorm:"column:duration_minutes"`
	Summary         *string        `json:"summary,omitempty" gorm:"column:summary"`
	Transcript      *string        `json:"transcript,omitempty" gorm:"column:transcript"`
	RecordingURL    *string        `json:"recording_url,omitempty" gorm:"column:recording_url"`
	DetectedIntent  *string        `json:"detected_intent,omitempty" gorm:"column:detected_intent"`
	Analysis        datatypes.JSON `json:"analysis,omitempty" gorm:"column:analysis"`
}

// TableName specifies the table name for GORM.
func (Call) TableName() string {
	return "calls"
}

// CallUpdatableFields returns the column names replaced during the
// ON CONFLICT clause of an upsert. Every field except the key: an upsert
// fully replaces the row.
func CallUpdatableFields() []string {
	return []string{
		"started_at", "ended_at", "from_number", "to_number", "answered_by",
		"duration_minutes", "summary", "transcript", "recording_url",
		"detected_intent", "analysis",
	}
}
