// Package analyzer asks the voice platform's post-call analysis API to
// classify a finished call and extract any lead or ticket fields the
// caller volunteered.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
	"gitlab.com/riveops/api/rive-voice-intake/internal/observer"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/utils"
)

// Analyzer produces a structured analysis for a completed call.
type Analyzer interface {
	Analyze(ctx context.Context, callID string) (*model.CallAnalysis, error)
}

// analysisGoal frames the evaluation for the analysis model.
const analysisGoal = "Categorize and evaluate a phone call for The Rive inbound line (leasing vs maintenance vs other), and extract any captured lead/ticket fields without inventing information."

// analysisQuestions are positional: the answer at index i belongs to
// question i, so the order here is load-bearing.
var analysisQuestions = [][2]string{
	{"What is the caller's intent? Answer exactly one of: LEASE, MAINTENANCE, OTHER.", "string"},
	{"Did the agent correctly route the call for the caller's intent? Answer true or false.", "boolean"},

	{"Extract the caller name if provided, otherwise null.", "string"},
	{"Extract the caller email if provided, otherwise null.", "string"},
	{"Extract the desired move-in date/timeframe if provided, otherwise null.", "string"},
	{"Extract the desired unit type (Studio/1BR/2BR/Other) if provided, otherwise null.", "string"},
	{"Extract the desired lease term (6/12/18 months) if provided, otherwise null.", "string"},
	{"Extract the budget if provided, otherwise null.", "string"},
	{"Extract pets info if provided, otherwise null.", "string"},

	{"If maintenance: extract the unit number if provided, otherwise null.", "string"},
	{"If maintenance: extract the issue summary if provided, otherwise null.", "string"},
	{"If maintenance: extract urgency (Emergency/Urgent/Routine/Unknown) if provided, otherwise null.", "string"},
	{"If maintenance: is access OK to enter when not home? Answer Yes/No/Unknown.", "string"},

	{"Any other important notes to store for follow-up? Keep it brief.", "string"},
}

type analyzeRequest struct {
	Goal      string      `json:"goal"`
	Questions [][2]string `json:"questions"`
}

type analyzeResponse struct {
	Answers []interface{} `json:"answers"`
}

// BlandClient calls the Bland post-call analysis endpoint.
type BlandClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewBlandClient creates an analyzer client for the given API base URL.
func NewBlandClient(baseURL, apiKey string, timeout time.Duration) (*BlandClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: analyzer base URL is required", apperrors.ErrBadRequest)
	}
	return &BlandClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}, nil
}

// Analyze submits the evaluation questions for a call and maps the
// positional answers onto a CallAnalysis.
func (c *BlandClient) Analyze(ctx context.Context, callID string) (*model.CallAnalysis, error) {
	startTime := utils.Now()
	analysis, err := c.analyze(ctx, callID)
	observer.ObserveAnalyzerRequest(time.Since(startTime), err)

	if err != nil {
		logger.FromContext(ctx).Error("Call analysis failed",
			zap.String("call_id", callID),
			zap.Error(err))
		return nil, err
	}
	logger.FromContext(ctx).Debug("Call analysis completed",
		zap.String("call_id", callID),
		zap.String("intent", string(analysis.Intent)))
	return analysis, nil
}

func (c *BlandClient) analyze(ctx context.Context, callID string) (*model.CallAnalysis, error) {
	body, err := json.Marshal(analyzeRequest{
		Goal:      analysisGoal,
		Questions: analysisQuestions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal analyze request: %w", apperrors.ErrAnalyzer, err)
	}

	endpoint := fmt.Sprintf("%s/v1/calls/%s/analyze", c.baseURL, url.PathEscape(callID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build analyze request: %w", apperrors.ErrAnalyzer, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: analyze request failed: %w", apperrors.ErrAnalyzer, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read analyze response: %w", apperrors.ErrAnalyzer, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: analyze API returned status %d: %s",
			apperrors.ErrAnalyzer, resp.StatusCode, utils.TruncateForCell(string(respBody), 500))
	}

	var parsed analyzeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode analyze response: %w", apperrors.ErrAnalyzer, err)
	}

	return mapAnswers(parsed.Answers), nil
}

// mapAnswers converts the positional answer slice into a CallAnalysis.
// A short or malformed slice degrades to OTHER with no extracted
// fields rather than failing the run.
func mapAnswers(answers []interface{}) *model.CallAnalysis {
	analysis := &model.CallAnalysis{Intent: model.IntentOther}

	if s, ok := answerAt(answers, 0).(string); ok {
		analysis.Intent = model.NormalizeIntent(s)
	}
	if b, ok := answerAt(answers, 1).(bool); ok {
		analysis.RoutedCorrectly = &b
	}

	setIfString(&analysis.Name, answerAt(answers, 2))
	setIfString(&analysis.Email, answerAt(answers, 3))
	setIfString(&analysis.MoveInDate, answerAt(answers, 4))
	setIfString(&analysis.UnitType, answerAt(answers, 5))
	setIfString(&analysis.LeaseTerm, answerAt(answers, 6))
	setIfString(&analysis.Budget, answerAt(answers, 7))
	setIfString(&analysis.Pets, answerAt(answers, 8))

	setIfString(&analysis.UnitNumber, answerAt(answers, 9))
	setIfString(&analysis.IssueSummary, answerAt(answers, 10))
	setIfString(&analysis.Urgency, answerAt(answers, 11))
	setIfString(&analysis.AccessOK, answerAt(answers, 12))

	setIfString(&analysis.Notes, answerAt(answers, 13))
	return analysis
}

func answerAt(answers []interface{}, i int) interface{} {
	if i >= len(answers) {
		return nil
	}
	return answers[i]
}

// setIfString stores a trimmed string answer, dropping empty values
// and the literal "null" the model emits for unknown fields.
func setIfString(dst *string, v interface{}) {
	s, ok := v.(string)
	if !ok {
		return
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return
	}
	*dst = s
}
