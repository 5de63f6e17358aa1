package kafka_middleware

import (
	"context"
	"time"

	"courtbook/pkg/kafka"
	"courtbook/pkg/logger"
)

// LoggingProducerMiddleware logs each publish with its outcome and duration.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.PublishFunc) error {
		start := time.Now()

		log.Debug("Publishing booking event",
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
		)

		err := next(ctx, msg)

		if err != nil {
			log.Error("Failed to publish booking event",
				"key", msg.Key,
				"event_id", msg.GetEventID(),
				"event_type", msg.GetEventType(),
				"duration", time.Since(start),
				"error", err,
			)
		} else {
			log.Debug("Published booking event",
				"key", msg.Key,
				"event_id", msg.GetEventID(),
				"event_type", msg.GetEventType(),
				"duration", time.Since(start),
			)
		}

		return err
	}
}
