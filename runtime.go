package ordermerge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flexigpt/ordermerge-go/pdfformat"
	"github.com/flexigpt/ordermerge-go/spec"

	"github.com/flexigpt/ordermerge-go/internal/merge"
	"github.com/flexigpt/ordermerge-go/internal/session"
)

// Runtime owns merge sessions. It is safe for concurrent use; each session
// serializes its own mutations and merges run on snapshots.
type Runtime struct {
	logger   *slog.Logger
	format   spec.Format
	sessions *session.Store
}

func New(opts ...Option) (*Runtime, error) {
	o := runtimeOptions{
		logger:          slog.Default(),
		duplicatePolicy: spec.DuplicateLastWins,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.format == nil {
		f, err := pdfformat.New()
		if err != nil {
			return nil, err
		}
		o.format = f
	}

	return &Runtime{
		logger: o.logger,
		format: o.format,
		sessions: session.NewStore(session.StoreConfig{
			TTL:             o.sessionTTL,
			MaxSessions:     o.maxSessions,
			MaxDocuments:    o.maxDocuments,
			DuplicatePolicy: o.duplicatePolicy,
			Logger:          o.logger,
		}),
	}, nil
}

// Format returns the format merges are performed in.
func (r *Runtime) Format() spec.Format { return r.format }

func (r *Runtime) NewSession(ctx context.Context) (spec.SessionID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s := r.sessions.NewSession()
	r.logger.Debug("session created", "session", string(s.ID()))
	return s.ID(), nil
}

func (r *Runtime) CloseSession(ctx context.Context, id spec.SessionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(string(id)) == "" {
		return nil
	}
	r.sessions.Delete(id)
	return nil
}

// Session returns a convenience wrapper bound to a session ID.
func (r *Runtime) Session(id spec.SessionID) *Session {
	return &Session{rt: r, id: id}
}

// ReplaceDocuments swaps the session's document set. See session rules:
// a same-size set keeps the current order (dropping vanished identities and
// appending new ones); any other change resets the order to docs order.
func (r *Runtime) ReplaceDocuments(
	ctx context.Context,
	id spec.SessionID,
	docs []spec.Document,
) (spec.ReplaceResult, error) {
	if err := ctx.Err(); err != nil {
		return spec.ReplaceResult{}, err
	}
	s, err := r.mustGetSession(id)
	if err != nil {
		return spec.ReplaceResult{}, err
	}
	return s.ReplaceDocuments(docs)
}

// Reorder sets a new order. epoch must be the epoch the caller last observed.
func (r *Runtime) Reorder(
	ctx context.Context,
	id spec.SessionID,
	epoch uint64,
	order []spec.DocumentID,
) (spec.SessionView, error) {
	if err := ctx.Err(); err != nil {
		return spec.SessionView{}, err
	}
	s, err := r.mustGetSession(id)
	if err != nil {
		return spec.SessionView{}, err
	}
	return s.Reorder(epoch, order)
}

// Reset invalidates every identity and epoch issued so far.
func (r *Runtime) Reset(ctx context.Context, id spec.SessionID) (spec.SessionView, error) {
	if err := ctx.Err(); err != nil {
		return spec.SessionView{}, err
	}
	s, err := r.mustGetSession(id)
	if err != nil {
		return spec.SessionView{}, err
	}
	view, err := s.Reset()
	if err != nil {
		return spec.SessionView{}, err
	}
	r.logger.Info("session reset", "session", string(id), "epoch", view.Epoch)
	return view, nil
}

func (r *Runtime) CurrentOrder(ctx context.Context, id spec.SessionID) (spec.SessionView, error) {
	if err := ctx.Err(); err != nil {
		return spec.SessionView{}, err
	}
	s, err := r.mustGetSession(id)
	if err != nil {
		return spec.SessionView{}, err
	}
	return s.CurrentOrder()
}

// Merge snapshots the session at epoch and merges its documents in order.
// onProgress may be nil. Later mutations of the session do not affect a
// merge in flight.
func (r *Runtime) Merge(
	ctx context.Context,
	id spec.SessionID,
	epoch uint64,
	onProgress spec.ProgressFunc,
) (spec.MergeResult, error) {
	if err := ctx.Err(); err != nil {
		return spec.MergeResult{}, err
	}
	s, err := r.mustGetSession(id)
	if err != nil {
		return spec.MergeResult{}, err
	}
	snap, err := s.Snapshot(epoch)
	if err != nil {
		return spec.MergeResult{}, err
	}

	res, err := merge.Run(ctx, r.format, merge.Input{
		Epoch:     snap.Epoch,
		Order:     snap.Order,
		Documents: snap.Documents,
	}, onProgress, r.logger.With("session", string(id)))
	if err != nil {
		return res, fmt.Errorf("session %s: %w", id, err)
	}
	return res, nil
}

func (r *Runtime) mustGetSession(id spec.SessionID) (*session.Session, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, spec.ErrSessionNotFound
	}
	s, ok := r.sessions.Get(id)
	if !ok {
		return nil, spec.ErrSessionNotFound
	}
	return s, nil
}
