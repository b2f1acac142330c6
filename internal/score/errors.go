// internal/score/errors.go
package score

import "errors"

// Line classification errors
var (
	// ErrUnrecognized indicates the line matches none of the known event shapes
	ErrUnrecognized = errors.New("unrecognized log line")

	// ErrMalformed indicates the line has a known shape but a field failed to parse
	ErrMalformed = errors.New("malformed log line")
)

// Board errors
var (
	// ErrUnknownSlot indicates a slot id that has no CPU/GPU mapping
	ErrUnknownSlot = errors.New("unknown slot")
)
