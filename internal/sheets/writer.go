// Package sheets appends rows to the property team's spreadsheet
// tabs. The spreadsheet is the human-facing output of the whole
// service; the write ledger guards every append so a row lands at most
// once per (call, kind).
package sheets

import "context"

// LeaseLeadRow is one row on the "Lease Leads" tab.
type LeaseLeadRow struct {
	CreatedAt   string `json:"created_at"`
	CallID      string `json:"call_id"`
	CallerPhone string `json:"caller_phone"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	MoveInDate  string `json:"move_in_date,omitempty"`
	UnitType    string `json:"unit_type,omitempty"`
	LeaseTerm   string `json:"lease_term,omitempty"`
	Budget      string `json:"budget,omitempty"`
	Pets        string `json:"pets,omitempty"`
	Notes       string `json:"notes,omitempty"`
	// ToolLogged distinguishes rows submitted live by the voice agent's
	// tool call from rows recovered out of post-call analysis.
	ToolLogged bool `json:"tool_logged"`
}

// MaintenanceTicketRow is one row on the "Maintenance Tickets" tab.
type MaintenanceTicketRow struct {
	CreatedAt    string `json:"created_at"`
	CallID       string `json:"call_id"`
	CallerPhone  string `json:"caller_phone"`
	UnitNumber   string `json:"unit_number,omitempty"`
	IssueSummary string `json:"issue_summary,omitempty"`
	Urgency      string `json:"urgency,omitempty"`
	AccessOK     string `json:"access_ok,omitempty"`
	Notes        string `json:"notes,omitempty"`
	ToolLogged   bool   `json:"tool_logged"`
}

// CallLogRow is one row on the "Call Logs" tab.
type CallLogRow struct {
	CreatedAt       string  `json:"created_at"`
	CallID          string  `json:"call_id"`
	From            string  `json:"from,omitempty"`
	To              string  `json:"to,omitempty"`
	AnsweredBy      string  `json:"answered_by,omitempty"`
	DurationMinutes float64 `json:"duration_minutes,omitempty"`
	Summary         string  `json:"summary,omitempty"`
	Transcript      string  `json:"transcript,omitempty"`
	RecordingURL    string  `json:"recording_url,omitempty"`
	DetectedIntent  string  `json:"detected_intent,omitempty"`
	EvalJSON        string  `json:"eval_json,omitempty"`
}

// Writer appends rows to the spreadsheet tabs.
type Writer interface {
	AppendLeaseLead(ctx context.Context, row LeaseLeadRow) error
	AppendMaintenanceTicket(ctx context.Context, row MaintenanceTicketRow) error
	AppendCallLog(ctx context.Context, row CallLogRow) error
}
