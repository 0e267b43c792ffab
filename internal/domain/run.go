package domain

import (
	"errors"
	"time"
)

type RunStatus string

const (
	RunAnimating  RunStatus = "animating"
	RunCompleted  RunStatus = "completed"
	RunSuperseded RunStatus = "superseded"
)

// Archived summary of one solve-and-play run.
type RunRecord struct {
	RunID        string
	Status       RunStatus
	Cities       []string
	Tour         Tour
	Cost         float64
	TotalSupply  float64
	SupplyWeight float64
	StressFactor float64
	CreatedAt    time.Time
	FinishedAt   *time.Time
}

// Named location data set available for loading.
type Dataset struct {
	Name    string
	CSVData string
}

var ErrDatasetNotFound = errors.New("dataset not found")

type RunEventType string

const (
	RunStarted    RunEventType = "run.started"
	RunEdgeDone   RunEventType = "run.edge_done"
	RunFinished   RunEventType = "run.finished"
	RunReplaced   RunEventType = "run.superseded"
	RunSolveError RunEventType = "run.solve_failed"
)

// Lifecycle notification emitted to downstream consumers.
type RunEvent struct {
	Type       RunEventType `json:"type"`
	RunID      string       `json:"run_id,omitempty"`
	Generation uint64       `json:"generation,omitempty"`
	Tour       Tour         `json:"tour,omitempty"`
	Cost       float64      `json:"cost,omitempty"`
	Edge       *Edge        `json:"edge,omitempty"`
	Message    string       `json:"message,omitempty"`
	At         time.Time    `json:"at"`
}
