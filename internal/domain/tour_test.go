package domain

import (
	"errors"
	"testing"
)

func TestTourValidate(t *testing.T) {
	tests := []struct {
		name string
		tour Tour
		n    int
		want error
	}{
		{name: "valid", tour: Tour{2, 0, 1}, n: 3},
		{name: "single", tour: Tour{0}, n: 1},
		{name: "empty", tour: Tour{}, n: 3, want: ErrEmptyTour},
		{name: "short", tour: Tour{0, 1}, n: 3, want: ErrTourLength},
		{name: "long", tour: Tour{0, 1, 2, 3}, n: 3, want: ErrTourLength},
		{name: "out of range", tour: Tour{0, 1, 5}, n: 3, want: ErrTourIndex},
		{name: "negative", tour: Tour{0, -1, 2}, n: 3, want: ErrTourIndex},
		{name: "duplicate", tour: Tour{0, 1, 1}, n: 3, want: ErrTourDuplicate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tour.Validate(tc.n)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTourEdgesClosesCycle(t *testing.T) {
	edges := Tour{0, 1, 2}.Edges()
	want := []Edge{{From: 0, To: 1}, {From: 1, To: 2}, {From: 2, To: 0}}

	if len(edges) != len(want) {
		t.Fatalf("expected %d edges, got %d", len(want), len(edges))
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Fatalf("edge %d = %v, want %v", i, edges[i], want[i])
		}
	}
}

func TestTourEdgesSingleStop(t *testing.T) {
	edges := Tour{0}.Edges()
	if len(edges) != 1 || edges[0] != (Edge{From: 0, To: 0}) {
		t.Fatalf("expected single self-edge, got %v", edges)
	}
}
