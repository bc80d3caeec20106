package ordermerge

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/flexigpt/ordermerge-go/spec"
)

type runtimeOptions struct {
	logger *slog.Logger
	format spec.Format

	sessionTTL      time.Duration
	maxSessions     int
	maxDocuments    int
	duplicatePolicy spec.DuplicatePolicy
}

type Option func(*runtimeOptions) error

func WithLogger(l *slog.Logger) Option {
	return func(o *runtimeOptions) error {
		o.logger = l
		return nil
	}
}

// WithFormat sets the document format merges are performed in.
// Default is PDF (pdfformat).
func WithFormat(f spec.Format) Option {
	return func(o *runtimeOptions) error {
		if f == nil {
			return fmt.Errorf("%w: format is nil", spec.ErrInvalidArgument)
		}
		o.format = f
		return nil
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(o *runtimeOptions) error {
		o.sessionTTL = ttl
		return nil
	}
}

func WithMaxSessions(maxSessions int) Option {
	return func(o *runtimeOptions) error {
		o.maxSessions = maxSessions
		return nil
	}
}

// WithMaxDocuments caps the number of documents per session. Zero means no limit.
func WithMaxDocuments(n int) Option {
	return func(o *runtimeOptions) error {
		if n < 0 {
			return fmt.Errorf("%w: max documents must be >= 0", spec.ErrInvalidArgument)
		}
		o.maxDocuments = n
		return nil
	}
}

// WithDuplicatePolicy controls how repeated identities in ReplaceDocuments
// are handled. Default is spec.DuplicateLastWins.
func WithDuplicatePolicy(p spec.DuplicatePolicy) Option {
	return func(o *runtimeOptions) error {
		if !p.Valid() {
			return fmt.Errorf("%w: unknown duplicate policy %q", spec.ErrInvalidArgument, p)
		}
		o.duplicatePolicy = p
		return nil
	}
}
