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

// SaveEvent appends an event to the log. The log is append-only;
// duplicate deliveries of the same upstream event become separate rows.
func (r *SqliteRepo) SaveEvent(ctx context.Context, event *model.Event) error {
	if event.ReceivedAt == "" {
		event.ReceivedAt = utils.FormatISO8601(utils.Now())
	}

	operation := func() error {
		result := r.db.WithContext(ctx).Create(event)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveEvent Commit", operation)
	observer.ObserveDbOperationDuration("insert", "event", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save event after retries",
			zap.Stringp("call_id", event.CallID),
			zap.Error(commitErr))
		return commitErr // Already wrapped
	}

	return nil
}

// ListEventsByCallID returns every stored event for a call, oldest first.
func (r *SqliteRepo) ListEventsByCallID(ctx context.Context, callID string) ([]model.Event, error) {
	loggerCtx := logger.FromContext(ctx)

	var events []model.Event
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("call_id = ?", callID).
			Order("id ASC").
			Find(&events)
		if result.Error != nil {
			// Find multiple doesn't return ErrRecordNotFound
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil // Success, even if no records found
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "ListEventsByCallID", operation)
	observer.ObserveDbOperationDuration("list_by_call_id", "event", time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to list events by call_id after retries",
			zap.String("call_id", callID),
			zap.Error(findErr))
		return nil, findErr // Already wrapped
	}

	return events, nil // Return the potentially empty slice
}
