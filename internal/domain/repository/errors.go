package repository

import "errors"

var (
	// ErrDuplicate is returned when a write violates a uniqueness constraint
	// (token per doctor and day, one active invoice per visit, receipt number).
	ErrDuplicate = errors.New("duplicate record")

	// ErrTransaction is returned when a transaction cannot begin or commit
	ErrTransaction = errors.New("transaction failed")
)
