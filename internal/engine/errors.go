package engine

import "errors"

// Expected failure modes. Callers outside the core switch on these instead
// of catching panics; none of them indicate a bug.
var (
	// ErrNotFound means the referenced order id is not in the local store
	// (or, for Recover, not in the soft-deleted slot).
	ErrNotFound = errors.New("order not found")

	// ErrConflict means a newer version of the record already exists and the
	// caller's edit was based on a stale copy.
	ErrConflict = errors.New("a newer version exists")

	// ErrExists means a recover was attempted for an id that is still in the
	// active set.
	ErrExists = errors.New("order already active")

	// ErrIDCollision means a unique order id could not be allocated within
	// the bounded number of attempts. Practically unreachable with random
	// 128-bit identifiers.
	ErrIDCollision = errors.New("could not allocate a unique order id")
)
