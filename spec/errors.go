package spec

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrSessionNotFound   = errors.New("session not found")
	ErrDuplicateIdentity = errors.New("duplicate document identity")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrDocumentInvalid   = errors.New("invalid document")

	// ErrInvalidOrder is returned when a proposed order is not a permutation
	// of the session's current document identities.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrStaleSession is returned when a caller references an epoch that a
	// Reset has since invalidated.
	ErrStaleSession = errors.New("stale session")

	// ErrEmptyMerge is returned when a merge is triggered with nothing to merge.
	ErrEmptyMerge = errors.New("nothing to merge")

	// ErrMergeFailed is returned when a merge produced no output at all.
	ErrMergeFailed = errors.New("merge failed")
)

// OrderProblem classifies why a proposed order was rejected.
type OrderProblem string

const (
	OrderWrongLength OrderProblem = "wrong length"
	OrderDuplicate   OrderProblem = "duplicate identity"
	OrderUnknown     OrderProblem = "unknown identity"
)

// OrderError describes a rejected reorder. It matches ErrInvalidOrder.
type OrderError struct {
	Problem OrderProblem
	ID      DocumentID
	Got     int
	Want    int
}

func (e *OrderError) Error() string {
	switch e.Problem {
	case OrderWrongLength:
		return fmt.Sprintf("%v: %s (got %d, want %d)", ErrInvalidOrder, e.Problem, e.Got, e.Want)
	default:
		return fmt.Sprintf("%v: %s %q", ErrInvalidOrder, e.Problem, e.ID)
	}
}

func (e *OrderError) Unwrap() error { return ErrInvalidOrder }
