package fsaccess

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

const rootRef Ref = "/"

// AferoProvider serves a directory tree held in an afero filesystem. The
// filesystem root is the library root.
type AferoProvider struct {
	fs       afero.Fs
	rootName string
}

// NewAferoProvider creates a provider over fsys. rootName is the display name of
// the library root and becomes the first segment of every media path.
func NewAferoProvider(fsys afero.Fs, rootName string) *AferoProvider {
	return &AferoProvider{fs: fsys, rootName: rootName}
}

// NewOSProvider creates a provider rooted at dir on the local disk.
func NewOSProvider(dir string) *AferoProvider {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return NewAferoProvider(afero.NewBasePathFs(afero.NewOsFs(), abs), filepath.Base(abs))
}

// Root returns the root reference.
func (p *AferoProvider) Root() Ref { return rootRef }

// Name returns the last path element of ref, or the library name for the root.
func (p *AferoProvider) Name(ref Ref) string {
	clean := path.Clean("/" + string(ref))
	if clean == "/" {
		return p.rootName
	}
	return path.Base(clean)
}

// List enumerates the children of a directory.
func (p *AferoProvider) List(ctx context.Context, ref Ref) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := path.Clean("/" + string(ref))

	info, err := p.fs.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, mapFSError(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("list %s: %w", dir, ErrNotDirectory)
	}

	infos, err := afero.ReadDir(p.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, mapFSError(err))
	}

	entries := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		kind := KindFile
		if fi.IsDir() {
			kind = KindDirectory
		}
		entries = append(entries, Entry{
			Name: fi.Name(),
			Kind: kind,
			Ref:  Ref(path.Join(dir, fi.Name())),
		})
	}
	return entries, nil
}

// Open opens a file for reading.
func (p *AferoProvider) Open(ctx context.Context, ref Ref) (File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := path.Clean("/" + string(ref))

	f, err := p.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, mapFSError(err))
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", name, mapFSError(err))
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", name, ErrIsDirectory)
	}
	return f, nil
}

// QueryPermission reports granted when ref can be opened, denied otherwise.
// A local filesystem never answers prompt.
func (p *AferoProvider) QueryPermission(ctx context.Context, ref Ref) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := path.Clean("/" + string(ref))

	f, err := p.fs.Open(name)
	if err != nil {
		mapped := mapFSError(err)
		if errors.Is(mapped, ErrPermissionDenied) || errors.Is(mapped, ErrNotFound) {
			return PermissionDenied, nil
		}
		return "", fmt.Errorf("query permission %s: %w", name, mapped)
	}
	_ = f.Close()
	return PermissionGranted, nil
}

// mapFSError converts filesystem errors to the package sentinels.
func mapFSError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrPermission), os.IsPermission(err):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case errors.Is(err, fs.ErrNotExist), os.IsNotExist(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return err
	}
}
