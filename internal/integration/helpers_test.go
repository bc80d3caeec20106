package integration

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/flexigpt/ordermerge-go"
	"github.com/flexigpt/ordermerge-go/internal/formattest"
	"github.com/flexigpt/ordermerge-go/spec"
)

func newRuntime(t *testing.T, opts ...ordermerge.Option) *ordermerge.Runtime {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt, err := ordermerge.New(append([]ordermerge.Option{ordermerge.WithLogger(logger)}, opts...)...)
	if err != nil {
		t.Fatalf("ordermerge.New: %v", err)
	}
	return rt
}

func writeFiles(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for rel, b := range files {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, b, 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return dir
}

// blockingFormat wraps formattest.Format and parks the first Append until
// release is closed.
type blockingFormat struct {
	inner formattest.Format

	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newBlockingFormat() *blockingFormat {
	return &blockingFormat{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (f *blockingFormat) Name() string { return f.inner.Name() }

func (f *blockingFormat) NewAssembler() spec.Assembler {
	return &blockingAssembler{f: f, inner: f.inner.NewAssembler()}
}

type blockingAssembler struct {
	f     *blockingFormat
	inner spec.Assembler
}

func (a *blockingAssembler) Append(id spec.DocumentID, content []byte) error {
	a.f.once.Do(func() {
		close(a.f.started)
		<-a.f.release
	})
	return a.inner.Append(id, content)
}

func (a *blockingAssembler) Finalize(w io.Writer) error { return a.inner.Finalize(w) }
