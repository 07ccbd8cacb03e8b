package repository

import "errors"

// Sentinel kinds for record source errors.
var (
	ErrNoRecords       = errors.New("no records in source")
	ErrMissingColumn   = errors.New("missing required column")
	ErrMalformedRecord = errors.New("malformed record")
	ErrDuplicateRecord = errors.New("duplicate season slot")
)
