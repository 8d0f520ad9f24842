package tracker

import "errors"

var (
	// ErrPersistence wraps failures of the ledgers or the event log. The
	// in-memory state stays usable after it is returned.
	ErrPersistence = errors.New("persistence failure")
	// ErrClosed is returned by Runner.Do after Close.
	ErrClosed = errors.New("tracker closed")
)
