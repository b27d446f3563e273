package paging

import "errors"

var (
	// ErrCapacityExceeded is returned when an insertion would exceed a fixed
	// capacity. Nothing is inserted when it is returned.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrBlockNotFound is returned when a block that was never admitted is
	// requested.
	ErrBlockNotFound = errors.New("block not found")

	// ErrInvalidProcessSize is returned when a process size is outside the
	// allowed range.
	ErrInvalidProcessSize = errors.New("invalid process size")
)
