package repository

import "errors"

// ErrPreconditionFailed is returned when a conditional write matched no
// rows, meaning a concurrent mutation invalidated the caller's view.
var ErrPreconditionFailed = errors.New("precondition failed")

// ErrDuplicate is returned when an insert hit a unique constraint.
var ErrDuplicate = errors.New("duplicate row")
