package model

import (
	"encoding/json"
	"strings"
)

// WebhookPayload is a normalized view over an inbound webhook body.
// The telephony platform sends several payload shapes on one endpoint
// (queue updates, post-call reports, call-detail documents), so every
// accessor type-checks defensively and reports absence instead of
// failing. The raw document is preserved verbatim for the event log.
type WebhookPayload struct {
	raw json.RawMessage
	obj map[string]interface{}
}

// ParseWebhookPayload wraps a raw webhook body. Non-object bodies are
// accepted; all accessors simply report absence for them.
func ParseWebhookPayload(raw []byte) WebhookPayload {
	p := WebhookPayload{raw: json.RawMessage(raw)}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err == nil {
		p.obj = obj
	}
	return p
}

// Raw returns the verbatim payload bytes.
func (p WebhookPayload) Raw() json.RawMessage {
	return p.raw
}

// CallID extracts the call identifier, checking the known field
// spellings in order: call_id, c_id, data.call_id.
func (p WebhookPayload) CallID() string {
	if s := p.stringField("call_id"); s != "" {
		return s
	}
	if s := p.stringField("c_id"); s != "" {
		return s
	}
	if data, ok := p.obj["data"].(map[string]interface{}); ok {
		if s, ok := data["call_id"].(string); ok {
			return s
		}
	}
	return ""
}

// Category extracts the event category, preferring `category` over `type`.
func (p WebhookPayload) Category() string {
	if s := p.stringField("category"); s != "" {
		return s
	}
	return p.stringField("type")
}

// IsCompletion classifies the payload as the end of a call. Post-call
// webhooks carry `completed: true` or `status: "completed"`; call-detail
// documents are recognized by a populated transcript or summary. The
// heuristic is lossy on purpose: a false negative is retried by the next
// duplicate delivery, and a false positive is harmless because every
// side effect downstream is idempotent per write kind.
func (p WebhookPayload) IsCompletion() bool {
	if p.obj == nil {
		return false
	}
	if b, ok := p.obj["completed"].(bool); ok && b {
		return true
	}
	if strings.EqualFold(p.stringField("status"), "completed") {
		return true
	}
	if p.stringField("concatenated_transcript") != "" {
		return true
	}
	if p.stringField("summary") != "" {
		return true
	}
	return false
}

// CallDetails holds the call fields a completion payload may carry.
// Every field is optional; extraction never fails.
type CallDetails struct {
	From            *string
	To              *string
	AnsweredBy      *string
	DurationMinutes *float64
	Summary         *string
	Transcript      *string
	RecordingURL    *string
	StartedAt       *string
	EndedAt         *string
}

// CallDetails extracts whatever call fields the payload carries.
func (p WebhookPayload) CallDetails() CallDetails {
	return CallDetails{
		From:            p.stringPtr("from"),
		To:              p.stringPtr("to"),
		AnsweredBy:      p.stringPtr("answered_by"),
		DurationMinutes: p.numberPtr("call_length"),
		Summary:         p.stringPtr("summary"),
		Transcript:      p.stringPtr("concatenated_transcript"),
		RecordingURL:    p.stringPtr("recording_url"),
		StartedAt:       p.stringPtr("created_at"),
		EndedAt:         p.stringPtr("completed_at"),
	}
}

func (p WebhookPayload) stringField(key string) string {
	if p.obj == nil {
		return ""
	}
	s, _ := p.obj[key].(string)
	return s
}

func (p WebhookPayload) stringPtr(key string) *string {
	if s := p.stringField(key); s != "" {
		return &s
	}
	return nil
}

func (p WebhookPayload) numberPtr(key string) *float64 {
	if p.obj == nil {
		return nil
	}
	if f, ok := p.obj[key].(float64); ok {
		return &f
	}
	return nil
}
