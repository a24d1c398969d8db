package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedVenue is returned when an unknown venue name reaches a
	// normalizer or fee lookup. This is a configuration error, never retried.
	ErrUnsupportedVenue = errors.New("unsupported venue")

	// ErrMissingTag is returned when a snapshot cannot be resolved to a
	// canonical event tag.
	ErrMissingTag = errors.New("snapshot has no canonical event tag")

	// ErrTagMismatch is returned when two snapshots resolve to different
	// canonical tags and therefore describe different events.
	ErrTagMismatch = errors.New("snapshots resolve to different event tags")

	// ErrDegenerateOdds is returned by Kelly sizing when odds equal exactly 1,
	// which would divide by zero.
	ErrDegenerateOdds = errors.New("odds of exactly 1 are degenerate")

	// ErrNotFound is returned by stores and caches when a record is absent.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports a schema invariant violation during construction of
// a canonical entity. It is fatal to the single construction call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ParseError reports a malformed or missing required field in a raw venue
// payload, identifying both the venue and the offending field.
type ParseError struct {
	Venue Exchange
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s payload: field %q: %v", e.Venue, e.Field, e.Err)
	}
	return fmt.Sprintf("%s payload: field %q missing or malformed", e.Venue, e.Field)
}

func (e *ParseError) Unwrap() error { return e.Err }
