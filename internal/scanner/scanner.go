// Package scanner walks a directory tree through an fsaccess.Provider and
// flattens it into media nodes.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/vmunix/reelshelf/internal/fsaccess"
	"github.com/vmunix/reelshelf/pkg/medianame"
)

// DefaultMaxDepth bounds how many directory levels a scan descends.
const DefaultMaxDepth = 3

// MediaNode is one file or directory discovered by a scan.
type MediaNode struct {
	Name string
	Kind fsaccess.Kind
	// Path is the slash-joined path of the directory containing the node,
	// starting with the scan base.
	Path string
	// Depth is the level of the containing directory; children of the scan
	// root have depth 0.
	Depth int
	Ref   fsaccess.Ref
}

// Identity returns the stable join key Path + "/" + Name.
func (n MediaNode) Identity() string {
	return n.Path + "/" + n.Name
}

// Failure records a subtree that could not be enumerated.
type Failure struct {
	Path string
	Err  error
}

// Result is the flattened output of a scan.
type Result struct {
	Files       []MediaNode // video files only
	Directories []MediaNode // every directory, unfiltered
	Failures    []Failure
}

// Scanner walks directory trees.
type Scanner struct {
	provider fsaccess.Provider
	logger   *slog.Logger
}

// New creates a scanner over the given provider.
func New(p fsaccess.Provider, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{provider: p, logger: logger}
}

// Provider returns the underlying directory access provider.
func (s *Scanner) Provider() fsaccess.Provider {
	return s.provider
}

// Scan walks the tree under root up to maxDepth levels. Each directory is
// listed completely before its subdirectories are visited; a directory at the
// depth ceiling appears in the result but is not descended into. base is the
// path reported for root's own children.
//
// Only a failure to list root is returned as an error. Unreadable subtrees are
// recorded in Result.Failures and skipped.
func (s *Scanner) Scan(ctx context.Context, root fsaccess.Ref, base string, maxDepth int) (*Result, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	res := &Result{}

	entries, err := s.provider.List(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", base, err)
	}
	if err := s.walk(ctx, entries, base, 0, maxDepth, res); err != nil {
		return nil, err
	}

	s.logger.Debug("scan complete",
		"base", base,
		"files", len(res.Files),
		"directories", len(res.Directories),
		"failures", len(res.Failures))
	return res, nil
}

func (s *Scanner) walk(ctx context.Context, entries []fsaccess.Entry, dirPath string, depth, maxDepth int, res *Result) error {
	var subdirs []MediaNode
	for _, e := range entries {
		node := MediaNode{Name: e.Name, Kind: e.Kind, Path: dirPath, Depth: depth, Ref: e.Ref}
		switch e.Kind {
		case fsaccess.KindDirectory:
			res.Directories = append(res.Directories, node)
			subdirs = append(subdirs, node)
		case fsaccess.KindFile:
			if medianame.IsVideoFile(e.Name) {
				res.Files = append(res.Files, node)
			}
		}
	}

	if depth+1 >= maxDepth {
		return nil
	}

	for _, dir := range subdirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		childPath := path.Join(dirPath, dir.Name)
		children, err := s.provider.List(ctx, dir.Ref)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.logger.Warn("skipping unreadable directory", "path", childPath, "error", err)
			res.Failures = append(res.Failures, Failure{Path: childPath, Err: err})
			continue
		}
		if err := s.walk(ctx, children, childPath, depth+1, maxDepth, res); err != nil {
			return err
		}
	}
	return nil
}
