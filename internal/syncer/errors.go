package syncer

import "errors"

var (
	// ErrPersistence aborts a pass; feed failures never do.
	ErrPersistence = errors.New("persistence failure")

	ErrSyncInProgress = errors.New("sync already in progress")
)
