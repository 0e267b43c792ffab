package engine

import (
	"slices"

	"tour-playback-service/internal/domain"
)

// Trail is the append-only, ordered record of edges completed in one run.
// It is owned by the Scheduler; only copies leave it.
type Trail struct {
	edges []domain.Edge
}

func (t *Trail) Reset() { t.edges = nil }

// Append records a completed edge. The scheduler appends each edge at most once per run.
func (t *Trail) Append(e domain.Edge) { t.edges = append(t.edges, e) }

// All returns the edges in completion order; earlier edges are drawn first.
func (t *Trail) All() []domain.Edge { return slices.Clone(t.edges) }

func (t *Trail) Len() int { return len(t.edges) }

func (t *Trail) Contains(e domain.Edge) bool { return slices.Contains(t.edges, e) }
