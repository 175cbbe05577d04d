package ports

import "errors"

// ErrNotFound: the row (episode, session, play, request) does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict: a uniqueness rule was hit, such as a second live session
// for a date, a duplicate episode path, or a second rating on one play.
var ErrConflict = errors.New("conflict")
