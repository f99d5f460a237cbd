package collection

import "errors"

// Precondition violations. Operations panic with one of these wrapped in a
// descriptive message; they indicate a programming error in the caller.
var (
	ErrUnknownGroup       = errors.New("unknown group")
	ErrUnknownAttribute   = errors.New("unknown attribute")
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrDuplicateIndex     = errors.New("duplicate index")
	ErrNotPermutation     = errors.New("reorder is not a permutation")
	ErrCyclicDependency   = errors.New("cyclic group dependency")
	ErrSizeMismatch       = errors.New("attribute size does not match group")
)
