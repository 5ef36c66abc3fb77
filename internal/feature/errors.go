package feature

import "errors"

var (
	// ErrInvalidSnapshot reports a snapshot that is malformed or violates
	// the cross-field invariants (aligned lengths, label range, unique classes).
	ErrInvalidSnapshot = errors.New("invalid feature snapshot")

	// ErrDegenerateVector reports a zero-norm vector that cannot be normalized.
	ErrDegenerateVector = errors.New("degenerate zero-norm vector")

	// ErrDimensionMismatch reports a query vector whose dimension does not
	// match the store. Indicates embedder/store version skew, not bad data.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
