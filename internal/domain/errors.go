package domain

import "errors"

var (
	// ErrQuizNotFound indicates the requested quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrDraftNotFound is returned when a wizard action arrives for an
	// administrator with no active draft.
	ErrDraftNotFound = errors.New("draft not found")
)
