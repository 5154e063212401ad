package service

import "errors"

var (
	// ErrFetch marks a network or timeout failure on a remote call
	ErrFetch = errors.New("remote fetch failed")
	// ErrParse marks a malformed markup payload
	ErrParse = errors.New("malformed markup")
	// ErrStorage marks a failed read or write against the store
	ErrStorage = errors.New("storage failure")
	// ErrBatchFatal marks a run that could not even list the monitored statutes
	ErrBatchFatal = errors.New("batch run aborted")
)
