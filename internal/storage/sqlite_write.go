package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
	"gitlab.com/riveops/api/rive-voice-intake/internal/observer"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/utils"
)

// TryInsertWrite attempts the conditional insert guarding a single
// external side effect. The unique index on (call_id, kind) makes the
// insert atomic: of any number of concurrent attempts for the same
// pair, exactly one observes true.
func (r *SqliteRepo) TryInsertWrite(ctx context.Context, callID string, kind model.WriteKind, sheetTab string, createdAt string) (bool, error) {
	if callID == "" {
		return false, fmt.Errorf("%w: write record is missing call_id", apperrors.ErrBadRequest)
	}
	if !kind.Valid() {
		return false, fmt.Errorf("%w: unknown write kind %q", apperrors.ErrBadRequest, kind)
	}
	if createdAt == "" {
		createdAt = utils.FormatISO8601(utils.Now())
	}

	record := model.WriteRecord{
		CallID:    callID,
		Kind:      kind,
		SheetTab:  sheetTab,
		CreatedAt: createdAt,
	}

	var inserted bool
	operation := func() error {
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "call_id"}, {Name: "kind"}},
			DoNothing: true,
		}).Create(&record)

		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		inserted = result.RowsAffected > 0
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "TryInsertWrite Commit", operation)
	observer.ObserveDbOperationDuration("try_insert", "write", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to insert write record after retries",
			zap.String("call_id", callID),
			zap.String("kind", string(kind)),
			zap.Error(commitErr))
		return false, commitErr // Already wrapped
	}

	return inserted, nil
}

// HasWrite reports whether a write record exists for (callID, kind).
// Callers must not use this as a guard for side effects; only
// TryInsertWrite grants the right to perform one.
func (r *SqliteRepo) HasWrite(ctx context.Context, callID string, kind model.WriteKind) (bool, error) {
	loggerCtx := logger.FromContext(ctx)

	var record model.WriteRecord
	var found bool
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("call_id = ? AND kind = ?", callID, kind).
			First(&record)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				found = false
				return nil
			}
			return checkConstraintViolation(result.Error)
		}
		found = true
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "HasWrite", operation)
	observer.ObserveDbOperationDuration("exists", "write", time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to check write record after retries",
			zap.String("call_id", callID),
			zap.String("kind", string(kind)),
			zap.Error(findErr))
		return false, findErr // Already wrapped
	}

	return found, nil
}

// DeleteWrite removes the write record for (callID, kind), releasing
// the pair so a later delivery may retry the external append. Deleting
// a record that does not exist is not an error.
func (r *SqliteRepo) DeleteWrite(ctx context.Context, callID string, kind model.WriteKind) error {
	operation := func() error {
		result := r.db.WithContext(ctx).
			Where("call_id = ? AND kind = ?", callID, kind).
			Delete(&model.WriteRecord{})
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "DeleteWrite Commit", operation)
	observer.ObserveDbOperationDuration("delete", "write", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to delete write record after retries",
			zap.String("call_id", callID),
			zap.String("kind", string(kind)),
			zap.Error(commitErr))
		return commitErr // Already wrapped
	}

	return nil
}
