// Package fsaccess abstracts directory listing, file reads and permission
// queries behind opaque references so the rest of the library never holds an
// I/O capability.
package fsaccess

import (
	"context"
	"io"
	"io/fs"
)

// Ref is an opaque, comparable token naming a file or directory within a
// provider. Only the provider that issued it can resolve it.
type Ref string

// Kind distinguishes files from directories.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// Permission is the current read grant on a reference.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionPrompt  Permission = "prompt"
)

// Entry is one child of a listed directory.
type Entry struct {
	Name string
	Kind Kind
	Ref  Ref
}

// File is an open media file. Seeking is required for ranged playback.
type File interface {
	io.ReadSeekCloser
	Stat() (fs.FileInfo, error)
}

//go:generate mockgen -source=provider.go -destination=mocks/provider_mock.go -package=mocks -exclude_interfaces=File

// Provider resolves references to directory listings and file contents.
type Provider interface {
	// Root returns the reference of the library root.
	Root() Ref
	// Name returns the display name of a reference.
	Name(ref Ref) string
	// List enumerates the direct children of a directory. Order is unspecified.
	List(ctx context.Context, ref Ref) ([]Entry, error)
	// Open opens a file for reading.
	Open(ctx context.Context, ref Ref) (File, error)
	// QueryPermission reports the read grant on ref.
	QueryPermission(ctx context.Context, ref Ref) (Permission, error)
}
