package services

import "errors"

var (
	// ErrInvalidInput marks failures caused by the caller's data rather than
	// the solver or the infrastructure.
	ErrInvalidInput = errors.New("invalid input")
	ErrNoLocations  = errors.New("no locations")
	// ErrSolveSuperseded is returned to a solve whose result arrived after a
	// newer request took over.
	ErrSolveSuperseded = errors.New("solve superseded by a newer request")
)
