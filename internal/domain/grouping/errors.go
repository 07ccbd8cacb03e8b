package grouping

import "errors"

// Sentinel kinds for grouping errors.
var (
	ErrNoRecords     = errors.New("no records")
	ErrInvalidRank   = errors.New("invalid preliminary rank")
	ErrInvalidScheme = errors.New("invalid outcome scheme")
	// ErrEmptyGroup annotates a group with no qualifying observations. The
	// grouper does not return it; the fit for such a group is the prior.
	ErrEmptyGroup = errors.New("empty group")
)
