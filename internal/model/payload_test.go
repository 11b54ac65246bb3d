package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookPayloadCallID(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "call_id field",
			body:     `{"call_id":"abc"}`,
			expected: "abc",
		},
		{
			name:     "c_id fallback",
			body:     `{"c_id":"def"}`,
			expected: "def",
		},
		{
			name:     "nested data.call_id",
			body:     `{"data":{"call_id":"ghi"}}`,
			expected: "ghi",
		},
		{
			name:     "call_id wins over c_id",
			body:     `{"call_id":"abc","c_id":"def"}`,
			expected: "abc",
		},
		{
			name:     "missing",
			body:     `{"event":"queue"}`,
			expected: "",
		},
		{
			name:     "non-object body",
			body:     `[1,2,3]`,
			expected: "",
		},
		{
			name:     "non-string call_id ignored",
			body:     `{"call_id":42}`,
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := ParseWebhookPayload([]byte(tc.body))
			assert.Equal(t, tc.expected, p.CallID())
		})
	}
}

func TestWebhookPayloadCategory(t *testing.T) {
	p := ParseWebhookPayload([]byte(`{"category":"call_ended","type":"webhook"}`))
	assert.Equal(t, "call_ended", p.Category())

	p = ParseWebhookPayload([]byte(`{"type":"webhook"}`))
	assert.Equal(t, "webhook", p.Category())

	p = ParseWebhookPayload([]byte(`{}`))
	assert.Equal(t, "", p.Category())
}

func TestWebhookPayloadIsCompletion(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected bool
	}{
		{
			name:     "completed flag",
			body:     `{"completed":true}`,
			expected: true,
		},
		{
			name:     "completed false",
			body:     `{"completed":false}`,
			expected: false,
		},
		{
			name:     "status completed",
			body:     `{"status":"completed"}`,
			expected: true,
		},
		{
			name:     "status completed mixed case",
			body:     `{"status":"Completed"}`,
			expected: true,
		},
		{
			name:     "status in progress",
			body:     `{"status":"in-progress"}`,
			expected: false,
		},
		{
			name:     "transcript present",
			body:     `{"concatenated_transcript":"hello"}`,
			expected: true,
		},
		{
			name:     "summary present",
			body:     `{"summary":"caller asked about rent"}`,
			expected: true,
		},
		{
			name:     "queue update",
			body:     `{"event":"queue","call_id":"abc"}`,
			expected: false,
		},
		{
			name:     "non-object body",
			body:     `"completed"`,
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := ParseWebhookPayload([]byte(tc.body))
			assert.Equal(t, tc.expected, p.IsCompletion())
		})
	}
}

func TestWebhookPayloadCallDetails(t *testing.T) {
	body := `{
		"call_id": "abc",
		"from": "+15550001111",
		"to": "+15552223333",
		"answered_by": "human",
		"call_length": 4.5,
		"summary": "tour request",
		"concatenated_transcript": "hi there",
		"recording_url": "https://example.com/rec.mp3",
		"created_at": "2026-02-03T13:40:00-08:00",
		"completed_at": "2026-02-03T13:45:00-08:00"
	}`
	d := ParseWebhookPayload([]byte(body)).CallDetails()

	require.NotNil(t, d.From)
	assert.Equal(t, "+15550001111", *d.From)
	require.NotNil(t, d.To)
	assert.Equal(t, "+15552223333", *d.To)
	require.NotNil(t, d.AnsweredBy)
	assert.Equal(t, "human", *d.AnsweredBy)
	require.NotNil(t, d.DurationMinutes)
	assert.Equal(t, 4.5, *d.DurationMinutes)
	require.NotNil(t, d.Summary)
	assert.Equal(t, "tour request", *d.Summary)
	require.NotNil(t, d.Transcript)
	require.NotNil(t, d.RecordingURL)
	require.NotNil(t, d.StartedAt)
	require.NotNil(t, d.EndedAt)
	assert.Equal(t, "2026-02-03T13:45:00-08:00", *d.EndedAt)
}

func TestWebhookPayloadCallDetailsEmpty(t *testing.T) {
	d := ParseWebhookPayload([]byte(`{"call_id":"abc"}`)).CallDetails()

	assert.Nil(t, d.From)
	assert.Nil(t, d.DurationMinutes)
	assert.Nil(t, d.Summary)
	assert.Nil(t, d.EndedAt)
}

func TestWebhookPayloadRawPreserved(t *testing.T) {
	body := []byte(`{"call_id":"abc","extra":{"nested":[1,2]}}`)
	p := ParseWebhookPayload(body)
	assert.JSONEq(t, string(body), string(p.Raw()))
}
