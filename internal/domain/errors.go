package domain

import "errors"

// Generation outcomes. Each failure mode is a distinct sentinel so
// callers can branch on errors.Is; none is ever downgraded to a partial
// lineup.
var (
	// ErrInsufficientPool: fewer than the minimum number of eligible
	// episodes survived filtering.
	ErrInsufficientPool = errors.New("insufficient candidate pool")

	// ErrUnsatisfiableRequest: an explicit request cannot be honored
	// from the eligible pool.
	ErrUnsatisfiableRequest = errors.New("unsatisfiable request")

	// ErrRuntimeUnsatisfiable: no lineup meets the duration tolerance
	// within retry bounds.
	ErrRuntimeUnsatisfiable = errors.New("runtime unsatisfiable")

	// ErrDuplicateSession: a non-superseded session already exists for
	// the date and no regenerate intent was given.
	ErrDuplicateSession = errors.New("duplicate session")

	// ErrPersistenceFailure: the atomic commit of a session did not
	// succeed.
	ErrPersistenceFailure = errors.New("persistence failure")
)
