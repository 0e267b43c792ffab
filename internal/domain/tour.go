package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTour     = errors.New("tour is empty")
	ErrTourLength    = errors.New("tour length does not match location count")
	ErrTourIndex     = errors.New("tour index out of range")
	ErrTourDuplicate = errors.New("tour visits a location more than once")
)

// One directional traversal segment of a Tour.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Ordered cyclic visiting sequence produced by a solver.
// The last location connects back to the first.
type Tour []int

// Validate checks that the tour visits each of n locations exactly once.
func (t Tour) Validate(n int) error {
	if len(t) == 0 {
		return ErrEmptyTour
	}
	if len(t) != n {
		return fmt.Errorf("validate tour: got %d stops for %d locations: %w", len(t), n, ErrTourLength)
	}

	seen := make(map[int]struct{}, len(t))
	for pos, idx := range t {
		if idx < 0 || idx >= n {
			return fmt.Errorf("validate tour: position %d holds %d: %w", pos, idx, ErrTourIndex)
		}
		if _, ok := seen[idx]; ok {
			return fmt.Errorf("validate tour: location %d: %w", idx, ErrTourDuplicate)
		}
		seen[idx] = struct{}{}
	}

	return nil
}

// Edges returns the closed sequence of edges, including the return leg
// from the last stop back to the first. A single-stop tour yields one self-edge.
func (t Tour) Edges() []Edge {
	if len(t) == 0 {
		return nil
	}

	edges := make([]Edge, 0, len(t))
	for i := range t {
		edges = append(edges, Edge{From: t[i], To: t[(i+1)%len(t)]})
	}
	return edges
}
