// Package ordermerge keeps an ordered set of uploaded documents per session
// and merges them into one document in the chosen order.
//
// A session tracks which documents are known and the order they are in. The
// order survives repeated uploads of a same-size document set, and a Reset
// advances the session epoch so references taken before it are rejected.
// Merges run against a snapshot and report per-document failures instead of
// aborting.
package ordermerge

import (
	"github.com/flexigpt/ordermerge-go/spec"
)

var (
	ErrInvalidOrder      = spec.ErrInvalidOrder
	ErrStaleSession      = spec.ErrStaleSession
	ErrEmptyMerge        = spec.ErrEmptyMerge
	ErrMergeFailed       = spec.ErrMergeFailed
	ErrSessionNotFound   = spec.ErrSessionNotFound
	ErrDuplicateIdentity = spec.ErrDuplicateIdentity
)
