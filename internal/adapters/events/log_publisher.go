package events

import (
	"context"
	"log"

	"tour-playback-service/internal/domain"
)

// LogPublisher writes events to the process log. It is used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev domain.RunEvent) error {
	log.Printf("event=%s run_id=%s gen=%d", ev.Type, ev.RunID, ev.Generation)
	return nil
}

func (LogPublisher) Close() error { return nil }
