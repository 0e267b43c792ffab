package ports

import (
	"context"

	"tour-playback-service/internal/domain"
)

// Outbound sink for run lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.RunEvent) error
	Close() error
}
