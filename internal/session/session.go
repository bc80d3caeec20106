package session

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/flexigpt/ordermerge-go/spec"
)

type SessionConfig struct {
	ID              spec.SessionID
	MaxDocuments    int
	DuplicatePolicy spec.DuplicatePolicy
	Logger          *slog.Logger

	// Touch is called on every operation so the owning store can keep
	// the session alive. May be nil.
	Touch func()
}

// Session owns the document set and merge order for one user.
type Session struct {
	id spec.SessionID

	mu sync.Mutex

	maxDocs   int
	dupPolicy spec.DuplicatePolicy
	logger    *slog.Logger
	touch     func()

	epoch uint64
	docs  map[spec.DocumentID]spec.Document
	// Nil means no order has been established in this epoch.
	order []spec.DocumentID

	closed atomic.Bool
}

// Snapshot is an immutable copy of a session's order and documents.
type Snapshot struct {
	Epoch     uint64
	Order     []spec.DocumentID
	Documents map[spec.DocumentID]spec.Document
}

func newSession(cfg SessionConfig) *Session {
	p := cfg.DuplicatePolicy
	if !p.Valid() {
		p = spec.DuplicateLastWins
	}
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Session{
		id:        cfg.ID,
		maxDocs:   cfg.MaxDocuments,
		dupPolicy: p,
		logger:    l.With("session", string(cfg.ID)),
		touch:     cfg.Touch,
		docs:      map[spec.DocumentID]spec.Document{},
	}
}

func (s *Session) ID() spec.SessionID { return s.id }

// ReplaceDocuments swaps in a new document set. When the deduplicated set has
// the same size as the previous one, the existing order is carried over:
// identities that disappeared are dropped and new ones are appended in input
// order. Otherwise the order becomes the input order.
func (s *Session) ReplaceDocuments(docs []spec.Document) (spec.ReplaceResult, error) {
	if err := s.begin(); err != nil {
		return spec.ReplaceResult{}, err
	}

	nextDocs := make(map[spec.DocumentID]spec.Document, len(docs))
	insertion := make([]spec.DocumentID, 0, len(docs))
	var dups []spec.DocumentID
	for i, d := range docs {
		id := d.ID()
		if _, err := spec.ParseDocumentID(string(id)); err != nil {
			return spec.ReplaceResult{}, fmt.Errorf("document %d: %w", i, err)
		}
		if _, seen := nextDocs[id]; seen {
			if s.dupPolicy == spec.DuplicateReject {
				return spec.ReplaceResult{}, fmt.Errorf("%w: %q", spec.ErrDuplicateIdentity, id)
			}
			if !slices.Contains(dups, id) {
				dups = append(dups, id)
			}
		} else {
			insertion = append(insertion, id)
		}
		nextDocs[id] = d
	}
	if s.maxDocs > 0 && len(nextDocs) > s.maxDocs {
		return spec.ReplaceResult{}, fmt.Errorf(
			"%w: too many documents (%d > %d)",
			spec.ErrInvalidArgument,
			len(nextDocs),
			s.maxDocs,
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reset := s.order == nil || len(nextDocs) != len(s.docs)
	var nextOrder []spec.DocumentID
	if reset {
		nextOrder = insertion
	} else {
		nextOrder = reconcileOrder(s.order, insertion, nextDocs)
	}

	s.docs = nextDocs
	s.order = nextOrder

	if len(dups) > 0 {
		s.logger.Warn("duplicate document identities, keeping last content", "ids", dups)
	}
	s.logger.Debug("documents replaced", "count", len(nextDocs), "orderReset", reset)

	return spec.ReplaceResult{
		SessionView: s.viewLocked(),
		Duplicates:  dups,
		OrderReset:  reset,
	}, nil
}

// reconcileOrder keeps prev's relative order for identities still present,
// then appends identities from insertion that prev did not have.
func reconcileOrder(
	prev, insertion []spec.DocumentID,
	docs map[spec.DocumentID]spec.Document,
) []spec.DocumentID {
	out := make([]spec.DocumentID, 0, len(docs))
	kept := make(map[spec.DocumentID]struct{}, len(prev))
	for _, id := range prev {
		if _, ok := docs[id]; ok {
			out = append(out, id)
			kept[id] = struct{}{}
		}
	}
	for _, id := range insertion {
		if _, ok := kept[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Reorder replaces the order with newOrder, which must be a permutation of
// the current identities. epoch must be the session's current epoch.
func (s *Session) Reorder(epoch uint64, newOrder []spec.DocumentID) (spec.SessionView, error) {
	if err := s.begin(); err != nil {
		return spec.SessionView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEpochLocked(epoch); err != nil {
		return spec.SessionView{}, err
	}
	if err := validatePermutation(newOrder, s.docs); err != nil {
		return spec.SessionView{}, err
	}
	s.order = slices.Clone(newOrder)
	return s.viewLocked(), nil
}

func validatePermutation(order []spec.DocumentID, docs map[spec.DocumentID]spec.Document) error {
	if len(order) != len(docs) {
		return &spec.OrderError{Problem: spec.OrderWrongLength, Got: len(order), Want: len(docs)}
	}
	seen := make(map[spec.DocumentID]struct{}, len(order))
	for _, id := range order {
		if _, ok := docs[id]; !ok {
			return &spec.OrderError{Problem: spec.OrderUnknown, ID: id}
		}
		if _, dup := seen[id]; dup {
			return &spec.OrderError{Problem: spec.OrderDuplicate, ID: id}
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Reset advances the epoch and forgets all documents and the order.
func (s *Session) Reset() (spec.SessionView, error) {
	if err := s.begin(); err != nil {
		return spec.SessionView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.docs = map[spec.DocumentID]spec.Document{}
	s.order = nil
	s.logger.Debug("session reset", "epoch", s.epoch)
	return s.viewLocked(), nil
}

func (s *Session) CurrentOrder() (spec.SessionView, error) {
	if err := s.begin(); err != nil {
		return spec.SessionView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(), nil
}

// Snapshot copies the order and document map for a merge. Document contents
// are immutable and shared.
func (s *Session) Snapshot(epoch uint64) (Snapshot, error) {
	if err := s.begin(); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEpochLocked(epoch); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Epoch:     s.epoch,
		Order:     slices.Clone(s.order),
		Documents: maps.Clone(s.docs),
	}, nil
}

func (s *Session) begin() error {
	if s.closed.Load() {
		return spec.ErrSessionNotFound
	}
	if s.touch != nil {
		s.touch()
	}
	return nil
}

func (s *Session) checkEpochLocked(epoch uint64) error {
	if epoch != s.epoch {
		return fmt.Errorf("%w: epoch %d, current %d", spec.ErrStaleSession, epoch, s.epoch)
	}
	return nil
}

func (s *Session) viewLocked() spec.SessionView {
	order := slices.Clone(s.order)
	if order == nil {
		order = []spec.DocumentID{}
	}
	return spec.SessionView{
		SessionID: s.id,
		Epoch:     s.epoch,
		Order:     order,
	}
}
