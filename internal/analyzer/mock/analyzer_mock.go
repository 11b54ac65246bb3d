package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
)

// AnalyzerMock mocks the analyzer.Analyzer interface
type AnalyzerMock struct {
	mock.Mock
}

// Analyze mocks the Analyze method
func (m *AnalyzerMock) Analyze(ctx context.Context, callID string) (*model.CallAnalysis, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CallAnalysis), args.Error(1)
}
