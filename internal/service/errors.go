package service

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")

	// ErrAllFeedsFailed marks a pass where every configured feed failed,
	// as opposed to the normal partial-failure mode.
	ErrAllFeedsFailed = errors.New("all feeds failed")

	// ErrSuperseded marks an aggregation run whose result was outdated by
	// a newer run before it finished; callers discard the result.
	ErrSuperseded = errors.New("aggregation superseded")

	// ErrSyncInFlight is returned when a manual sync is requested while
	// another sync is running.
	ErrSyncInFlight = errors.New("sync already in progress")
)
