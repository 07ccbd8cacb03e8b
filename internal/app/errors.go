package service

import "errors"

// Sentinel kinds for run failures.
var (
	ErrAllGroupsFailed = errors.New("every group failed to fit")
	ErrEnqueue         = errors.New("enqueue fit job")
)
