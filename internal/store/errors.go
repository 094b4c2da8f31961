package store

import "errors"

var (
	// ErrConflict is returned when a reservation's time range overlaps an
	// existing reservation on the same facility, or the range is empty or
	// inverted.
	ErrConflict = errors.New("reservation time conflict")

	// ErrInUse is returned when deleting a row that other rows still
	// reference.
	ErrInUse = errors.New("record is referenced by other records")
)
