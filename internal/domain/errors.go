package domain

import "errors"

var (
	// ErrTargetNotFound is returned when an EduStop id does not resolve.
	ErrTargetNotFound = errors.New("edustop not found")
	// ErrTooFar is returned when the caller is outside the proximity threshold.
	ErrTooFar = errors.New("caller is too far from the edustop")
	// ErrLimitExceeded is returned when an EduStop has issued its quota of tasks for the window.
	ErrLimitExceeded = errors.New("task limit for this edustop reached")
	// ErrNoTasksAvailable indicates the task pool is empty.
	ErrNoTasksAvailable = errors.New("no tasks available")
	// ErrInvalidOrExpiredToken is returned for unknown, expired or already consumed task tokens.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrStorageFailure wraps failures of Redis or Postgres.
	ErrStorageFailure = errors.New("storage failure")
	// ErrInvalidCoordinates indicates a latitude, longitude or radius out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrUserNotFound is returned when the ranking ledger has no such user.
	ErrUserNotFound = errors.New("user not found")
)
