package library

import "errors"

var (
	// ErrNotFound indicates the requested identity is not in the catalog.
	ErrNotFound = errors.New("not found")

	// ErrNoContent indicates a build found nothing and some subtrees were unreadable.
	ErrNoContent = errors.New("no media content found")
)
