package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	apperrors "gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
	"gitlab.com/riveops/api/rive-voice-intake/internal/observer"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/utils"
)

// UpsertCall stores the latest projection of a call. Replays and
// out-of-order deliveries converge because every upsert carries the
// full field set for the call.
func (r *SqliteRepo) UpsertCall(ctx context.Context, call model.Call) error {
	if call.CallID == "" {
		return fmt.Errorf("%w: call is missing call_id", apperrors.ErrBadRequest)
	}

	operation := func() error {
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "call_id"}},
			DoUpdates: clause.AssignmentColumns(model.CallUpdatableFields()),
		}).Create(&call)

		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpsertCall Commit", operation)
	observer.ObserveDbOperationDuration("upsert", "call", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to upsert call after retries",
			zap.String("call_id", call.CallID),
			zap.Error(commitErr))
		return commitErr // Already wrapped
	}

	return nil
}

// FindCallByCallID finds a call projection by ID.
func (r *SqliteRepo) FindCallByCallID(ctx context.Context, callID string) (*model.Call, error) {
	loggerCtx := logger.FromContext(ctx)

	var call model.Call
	operation := func() error {
		result := r.db.WithContext(ctx).Where("call_id = ?", callID).First(&call)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindCallByCallID", operation)
	observer.ObserveDbOperationDuration("find", "call", time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find call by call_id after retries",
			zap.String("call_id", callID),
			zap.Error(findErr))
		return nil, findErr // Already wrapped
	}

	return &call, nil
}

// ListRecentCalls returns up to limit calls, most recently ended first.
// Calls without an end timestamp sort last.
func (r *SqliteRepo) ListRecentCalls(ctx context.Context, limit int) ([]model.Call, error) {
	loggerCtx := logger.FromContext(ctx)

	if limit <= 0 {
		limit = 50
	}

	var calls []model.Call
	operation := func() error {
		result := r.db.WithContext(ctx).
			Order("(ended_at IS NULL) ASC, ended_at DESC").
			Limit(limit).
			Find(&calls)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "ListRecentCalls", operation)
	observer.ObserveDbOperationDuration("list_recent", "call", time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to list recent calls after retries",
			zap.Int("limit", limit),
			zap.Error(findErr))
		return nil, findErr // Already wrapped
	}

	return calls, nil
}
