package schema

import "errors"

// Lookup and uniqueness failures raised while mutating a Schema. A change
// that trips one of these was built against a different baseline than the
// one it is being applied to.
var (
	ErrUnknownTable        = errors.New("unknown table")
	ErrDuplicateTable      = errors.New("table already exists")
	ErrUnknownField        = errors.New("unknown field")
	ErrDuplicateField      = errors.New("field already exists")
	ErrUnknownConstraint   = errors.New("unknown constraint")
	ErrDuplicateConstraint = errors.New("constraint already exists")
	ErrUnknownIndex        = errors.New("unknown index")
	ErrDuplicateIndex      = errors.New("index already exists")
)
