package session

import (
	"testing"

	"github.com/flexigpt/ordermerge-go/spec"
)

func mustDoc(t *testing.T, id, body string) spec.Document {
	t.Helper()
	d, err := spec.NewDocument(id, []byte(body))
	if err != nil {
		t.Fatalf("NewDocument(%q): %v", id, err)
	}
	return d
}

func docs(t *testing.T, ids ...string) []spec.Document {
	t.Helper()
	out := make([]spec.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, mustDoc(t, id, "body:"+id))
	}
	return out
}

func ids(ss ...string) []spec.DocumentID {
	out := make([]spec.DocumentID, 0, len(ss))
	for _, s := range ss {
		out = append(out, spec.DocumentID(s))
	}
	return out
}

func newTestSession(policy spec.DuplicatePolicy) *Session {
	return newSession(SessionConfig{ID: "sid", DuplicatePolicy: policy})
}

// assertPermutation checks that order is a permutation of the document keys.
func assertPermutation(t *testing.T, s *Session) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) != len(s.docs) {
		t.Fatalf("order length %d != documents %d (order=%v)", len(s.order), len(s.docs), s.order)
	}
	seen := map[spec.DocumentID]struct{}{}
	for _, id := range s.order {
		if _, ok := s.docs[id]; !ok {
			t.Fatalf("order has unknown identity %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("order has duplicate identity %q", id)
		}
		seen[id] = struct{}{}
	}
}
