package ordermerge

import (
	"context"
	"errors"

	"github.com/flexigpt/ordermerge-go/spec"
)

// Session is a handle bound to one session ID. It holds no state of its own.
type Session struct {
	rt *Runtime
	id spec.SessionID
}

func (s *Session) ID() spec.SessionID { return s.id }

func (s *Session) ReplaceDocuments(ctx context.Context, docs []spec.Document) (spec.ReplaceResult, error) {
	if s == nil || s.rt == nil {
		return spec.ReplaceResult{}, errors.New("nil session runtime")
	}
	return s.rt.ReplaceDocuments(ctx, s.id, docs)
}

func (s *Session) Reorder(ctx context.Context, epoch uint64, order []spec.DocumentID) (spec.SessionView, error) {
	if s == nil || s.rt == nil {
		return spec.SessionView{}, errors.New("nil session runtime")
	}
	return s.rt.Reorder(ctx, s.id, epoch, order)
}

func (s *Session) Reset(ctx context.Context) (spec.SessionView, error) {
	if s == nil || s.rt == nil {
		return spec.SessionView{}, errors.New("nil session runtime")
	}
	return s.rt.Reset(ctx, s.id)
}

func (s *Session) CurrentOrder(ctx context.Context) (spec.SessionView, error) {
	if s == nil || s.rt == nil {
		return spec.SessionView{}, errors.New("nil session runtime")
	}
	return s.rt.CurrentOrder(ctx, s.id)
}

func (s *Session) Merge(ctx context.Context, epoch uint64, onProgress spec.ProgressFunc) (spec.MergeResult, error) {
	if s == nil || s.rt == nil {
		return spec.MergeResult{}, errors.New("nil session runtime")
	}
	return s.rt.Merge(ctx, s.id, epoch, onProgress)
}

func (s *Session) Close(ctx context.Context) error {
	if s == nil || s.rt == nil {
		return errors.New("nil session runtime")
	}
	return s.rt.CloseSession(ctx, s.id)
}
