package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/worker"
)

const publishTimeout = 5 * time.Second

// ActivityRecorder publishes activity events off the request path.
// A nil recorder drops events.
type ActivityRecorder struct {
	publisher integration.ActivityPublisher
	pool      *worker.WorkerPool
	logger    zerolog.Logger
	now       func() time.Time
}

func NewActivityRecorder(publisher integration.ActivityPublisher, pool *worker.WorkerPool, logger zerolog.Logger) *ActivityRecorder {
	return &ActivityRecorder{
		publisher: publisher,
		pool:      pool,
		logger:    logger.With().Str("component", "activity").Logger(),
		now:       time.Now,
	}
}

func (r *ActivityRecorder) Record(eventType string, actor *models.Session, subjectID string, details map[string]string) {
	if r == nil {
		return
	}

	event := &models.ActivityEvent{
		Type:      eventType,
		SubjectID: subjectID,
		Details:   details,
		Timestamp: r.now().Unix(),
	}
	if actor != nil {
		event.UserID = actor.ID
		event.Role = actor.Role
	}

	err := r.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := r.publisher.Publish(ctx, event); err != nil {
			r.logger.Error().Err(err).Str("type", event.Type).Msg("Failed to publish activity event")
		}
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("type", event.Type).Msg("Activity event dropped")
	}
}
