package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
	"gitlab.com/riveops/api/rive-voice-intake/internal/observer"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/utils"
)

// SaveToolRun appends a tool invocation audit record.
func (r *SqliteRepo) SaveToolRun(ctx context.Context, run *model.ToolRun) error {
	if run.CallID == "" {
		return fmt.Errorf("%w: tool run is missing call_id", apperrors.ErrBadRequest)
	}
	if run.CreatedAt == "" {
		run.CreatedAt = utils.FormatISO8601(utils.Now())
	}

	operation := func() error {
		result := r.db.WithContext(ctx).Create(run)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveToolRun Commit", operation)
	observer.ObserveDbOperationDuration("insert", "tool_run", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save tool run after retries",
			zap.String("call_id", run.CallID),
			zap.String("tool_name", run.ToolName),
			zap.Error(commitErr))
		return commitErr // Already wrapped
	}

	return nil
}

// ListToolRunsByCallID returns every tool invocation recorded for a
// call, oldest first.
func (r *SqliteRepo) ListToolRunsByCallID(ctx context.Context, callID string) ([]model.ToolRun, error) {
	loggerCtx := logger.FromContext(ctx)

	var runs []model.ToolRun
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("call_id = ?", callID).
			Order("id ASC").
			Find(&runs)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "ListToolRunsByCallID", operation)
	observer.ObserveDbOperationDuration("list_by_call_id", "tool_run", time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to list tool runs by call_id after retries",
			zap.String("call_id", callID),
			zap.Error(findErr))
		return nil, findErr // Already wrapped
	}

	return runs, nil
}
