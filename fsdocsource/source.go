// Package fsdocsource loads documents from the filesystem and gives each one
// a unique identity before it enters a session.
package fsdocsource

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/flexigpt/ordermerge-go/internal/pathutil"
	"github.com/flexigpt/ordermerge-go/spec"
)

// CollisionPolicy decides what happens when two files share a base name.
type CollisionPolicy string

const (
	// CollisionSuffix renames later files to "name (2).ext", "name (3).ext", ...
	CollisionSuffix CollisionPolicy = "suffix"
	// CollisionFail rejects the whole load with spec.ErrDuplicateIdentity.
	CollisionFail CollisionPolicy = "fail"
)

const defaultConcurrency = 4

type fileError struct {
	path string
	err  error
}

func (e fileError) Error() string {
	return fmt.Sprintf("document %q: %v", e.path, e.err)
}

func (e fileError) Unwrap() error { return e.err }

type Loader struct {
	root        string
	collisions  CollisionPolicy
	maxFileSize int64
	concurrency int
}

type Option func(*Loader) error

// WithRoot resolves relative paths under dir and rejects paths escaping it.
// Without a root, paths are used as given.
func WithRoot(dir string) Option {
	return func(l *Loader) error {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("%w: root is empty", spec.ErrInvalidArgument)
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		l.root = abs
		return nil
	}
}

func WithCollisionPolicy(p CollisionPolicy) Option {
	return func(l *Loader) error {
		switch p {
		case CollisionSuffix, CollisionFail:
			l.collisions = p
			return nil
		default:
			return fmt.Errorf("%w: unknown collision policy %q", spec.ErrInvalidArgument, p)
		}
	}
}

// WithMaxFileSize rejects files larger than n bytes. Zero means no limit.
func WithMaxFileSize(n int64) Option {
	return func(l *Loader) error {
		if n < 0 {
			return fmt.Errorf("%w: max file size must be >= 0", spec.ErrInvalidArgument)
		}
		l.maxFileSize = n
		return nil
	}
}

// WithConcurrency bounds parallel file reads. Default is 4.
func WithConcurrency(n int) Option {
	return func(l *Loader) error {
		if n <= 0 {
			return fmt.Errorf("%w: concurrency must be > 0", spec.ErrInvalidArgument)
		}
		l.concurrency = n
		return nil
	}
}

func New(opts ...Option) (*Loader, error) {
	l := &Loader{
		collisions:  CollisionSuffix,
		concurrency: defaultConcurrency,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Load reads every path and returns documents in argument order. The first
// read error cancels the remaining reads.
func (l *Loader) Load(ctx context.Context, paths []string) ([]spec.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no paths", spec.ErrInvalidArgument)
	}

	names, err := l.identities(paths)
	if err != nil {
		return nil, err
	}

	contents := make([][]byte, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			b, err := l.readFile(gctx, p)
			if err != nil {
				return fileError{path: p, err: err}
			}
			contents[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]spec.Document, 0, len(paths))
	for i := range paths {
		d, err := spec.NewDocument(names[i], contents[i])
		if err != nil {
			return nil, fileError{path: paths[i], err: err}
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (l *Loader) identities(paths []string) ([]string, error) {
	names := make([]string, len(paths))
	taken := make(map[string]struct{}, len(paths))
	for i, p := range paths {
		base, err := pathutil.IdentityFromPath(p)
		if err != nil {
			return nil, fileError{path: p, err: err}
		}
		name := base
		if _, dup := taken[name]; dup {
			if l.collisions == CollisionFail {
				return nil, fileError{path: p, err: fmt.Errorf("%w: %q", spec.ErrDuplicateIdentity, base)}
			}
			for n := 2; ; n++ {
				name = pathutil.NumberedName(base, n)
				if _, used := taken[name]; !used && !containsLater(paths[i+1:], name) {
					break
				}
			}
		}
		taken[name] = struct{}{}
		names[i] = name
	}
	return names, nil
}

// containsLater reports whether a later path will claim name as its own
// base name, so a generated suffix does not steal it.
func containsLater(rest []string, name string) bool {
	for _, p := range rest {
		if base, err := pathutil.IdentityFromPath(p); err == nil && base == name {
			return true
		}
	}
	return false
}

func (l *Loader) resolve(p string) (string, error) {
	if l.root == "" {
		return p, nil
	}
	return pathutil.ResolveUnderRoot(l.root, p)
}

func (l *Loader) readFile(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: is a directory", spec.ErrInvalidArgument)
	}
	if l.maxFileSize > 0 && fi.Size() > l.maxFileSize {
		return nil, fmt.Errorf("%w: file too large (%d > %d bytes)", spec.ErrInvalidArgument, fi.Size(), l.maxFileSize)
	}
	var r io.Reader = f
	if l.maxFileSize > 0 {
		r = io.LimitReader(f, l.maxFileSize+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if l.maxFileSize > 0 && int64(len(b)) > l.maxFileSize {
		return nil, fmt.Errorf("%w: file too large", spec.ErrInvalidArgument)
	}
	return b, nil
}
