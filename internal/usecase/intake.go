// Package usecase holds the service's business flows: recording
// inbound webhook events, processing call completions, and handling
// the voice agent's mid-call tool invocations.
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	apperrors "gitlab.com/riveops/api/rive-voice-intake/internal/apperrors"
	"gitlab.com/riveops/api/rive-voice-intake/internal/model"
	"gitlab.com/riveops/api/rive-voice-intake/internal/observer"
	"gitlab.com/riveops/api/rive-voice-intake/internal/storage"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/utils"
)

// Enqueuer hands a persisted event to the asynchronous pipeline.
type Enqueuer interface {
	Enqueue(ctx context.Context, event *model.Event)
}

// IntakeService records inbound webhook events. Persisting the event
// happens before enqueueing it: once the caller gets a 200 the payload
// is on disk, whatever the pipeline later does with it.
type IntakeService struct {
	events   storage.EventRepo
	enqueuer Enqueuer
	loc      *time.Location
}

// NewIntakeService creates the intake service.
func NewIntakeService(events storage.EventRepo, enqueuer Enqueuer, loc *time.Location) *IntakeService {
	return &IntakeService{
		events:   events,
		enqueuer: enqueuer,
		loc:      loc,
	}
}

// RecordIncomingEvent appends the raw webhook payload to the event log
// and queues it for asynchronous processing. Payloads without a call
// ID or category are stored all the same; classification happens in
// the pipeline, not here.
func (s *IntakeService) RecordIncomingEvent(ctx context.Context, rawBody []byte, headers map[string]string) (*model.Event, error) {
	payload := model.ParseWebhookPayload(rawBody)

	event := &model.Event{
		ReceivedAt: utils.NowISOWithOffset(s.loc),
		Payload:    datatypes.JSON(rawBody),
	}
	if callID := payload.CallID(); callID != "" {
		event.CallID = &callID
	}
	if category := payload.Category(); category != "" {
		event.Category = &category
	}
	if len(headers) > 0 {
		headerJSON, err := json.Marshal(headers)
		if err == nil {
			event.Headers = datatypes.JSON(headerJSON)
		}
	}

	if err := s.events.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("%w: failed to record event: %w", apperrors.ErrDatabase, err)
	}

	category := ""
	if event.Category != nil {
		category = *event.Category
	}
	observer.IncEventsReceived(category)
	logger.FromContext(ctx).Info("Webhook event recorded",
		zap.Int64("event_id", event.ID),
		zap.Stringp("call_id", event.CallID),
		zap.Stringp("category", event.Category))

	s.enqueuer.Enqueue(ctx, event)
	return event, nil
}
