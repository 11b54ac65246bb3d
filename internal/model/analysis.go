package model

import "strings"

// Intent is the analyzer's classification of a finished call.
type Intent string

const (
	IntentLease       Intent = "LEASE"
	IntentMaintenance Intent = "MAINTENANCE"
	IntentOther       Intent = "OTHER"
)

// NormalizeIntent maps a free-form analyzer answer onto a known intent.
// Anything unrecognized collapses to OTHER.
func NormalizeIntent(v string) Intent {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case string(IntentLease):
		return IntentLease
	case string(IntentMaintenance):
		return IntentMaintenance
	default:
		return IntentOther
	}
}

// CallAnalysis is the analyzer's verdict on a completed call: the
// caller's intent, whether the agent routed it correctly, and any
// lead/ticket fields captured during the conversation. Optional fields
// are empty strings when the caller never provided them.
type CallAnalysis struct {
	Intent          Intent `json:"intent"`
	RoutedCorrectly *bool  `json:"routed_correctly"`

	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	MoveInDate string `json:"move_in_date,omitempty"`
	UnitType   string `json:"unit_type,omitempty"`
	LeaseTerm  string `json:"lease_term,omitempty"`
	Budget     string `json:"budget,omitempty"`
	Pets       string `json:"pets,omitempty"`

	UnitNumber   string `json:"unit_number,omitempty"`
	IssueSummary string `json:"issue_summary,omitempty"`
	Urgency      string `json:"urgency,omitempty"`
	AccessOK     string `json:"access_ok,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// HasLeaseDetail reports whether the analysis captured at least one
// usable lease-lead field. Fallback intake requires a non-empty lead:
// an intent with nothing extracted is not worth a row.
func (a CallAnalysis) HasLeaseDetail() bool {
	return a.Name != "" || a.Email != "" || a.MoveInDate != "" || a.UnitType != ""
}

// HasMaintenanceDetail reports whether the analysis captured at least
// one usable maintenance-ticket field.
func (a CallAnalysis) HasMaintenanceDetail() bool {
	return a.UnitNumber != "" || a.IssueSummary != ""
}

// FallbackNotes builds the notes cell for an analysis-derived fallback
// row, marking it distinctly from tool-submitted rows.
func (a CallAnalysis) FallbackNotes() string {
	if a.Notes != "" {
		return "FALLBACK: " + a.Notes
	}
	return "FALLBACK: extracted from call analysis"
}
