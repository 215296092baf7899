// Package apperr defines sentinel errors shared across packages.
package apperr

import "errors"

var (
	// ErrNotFound marks an operation against an id that matches nothing.
	// Repository updates do NOT return it (a missing id is a silent no-op
	// there); it is used where the caller holds local state keyed by id,
	// such as the client cache.
	ErrNotFound = errors.New("not found")
)
