package fsaccess

import "errors"

var (
	// ErrPermissionDenied indicates the read grant on a directory or file is
	// missing or was revoked.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound indicates the reference no longer resolves.
	ErrNotFound = errors.New("not found")

	// ErrNotDirectory indicates a listing was requested on a file.
	ErrNotDirectory = errors.New("not a directory")

	// ErrIsDirectory indicates a file read was requested on a directory.
	ErrIsDirectory = errors.New("is a directory")
)
