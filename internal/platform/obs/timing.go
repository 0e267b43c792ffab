package obs

import (
	"context"
	"log"
	"strings"
	"time"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "req_id"
	RunIDKey     ctxKey = "run_id"
)

// Time logs how long the named operation took once the returned func runs.
// Request and run ids found on ctx are added to the line.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	fields := contextFields(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("%sop=%s dur=%dms err=%v", fields, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("%sop=%s dur=%dms", fields, name, dur.Milliseconds())
	}
}

// WithRequestID returns ctx carrying id for Time's log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithRunID tags ctx with the playback run it works on.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

func contextFields(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("req_id=" + RequestID(ctx) + " ")
	if runID, _ := ctx.Value(RunIDKey).(string); runID != "" {
		b.WriteString("run_id=" + runID + " ")
	}
	return b.String()
}
