package tensor

import "errors"

// Common errors. Operations wrap these with the offending ranks and
// dimensions; match them with errors.Is.
var (
	ErrInvalidShape        = errors.New("invalid shape")
	ErrInvalidRank         = errors.New("invalid rank index")
	ErrIndexOutOfRange     = errors.New("element index out of range")
	ErrMismatchedStructure = errors.New("mismatched structure")
	ErrMissingSubordinate  = errors.New("missing subordinate")
	ErrScalarResult        = errors.New("operation yields a scalar")
)
