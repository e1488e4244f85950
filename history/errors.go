package history

import "errors"

var (
	// ErrRecordNotFound indicates no record exists for the (name, version).
	ErrRecordNotFound = errors.New("history record not found")

	// ErrAttemptInProgress indicates a Running record already exists for
	// the (name, version). Two runs racing to begin the same migration
	// means the single-writer precondition was violated.
	ErrAttemptInProgress = errors.New("migration attempt already in progress")

	// ErrAlreadyApplied indicates the record is Completed or Skipped.
	// Terminal satisfied records are never reopened.
	ErrAlreadyApplied = errors.New("migration already applied")
)
