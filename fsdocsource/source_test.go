package fsdocsource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/flexigpt/ordermerge-go/spec"
)

func writeFile(t *testing.T, dir, rel, body string) string {
	t.Helper()
	p := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func mustLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	l, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func idsOf(docs []spec.Document) []spec.DocumentID {
	out := make([]spec.DocumentID, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID())
	}
	return out
}

func TestLoad_KeepsArgumentOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "c.pdf", "C"),
		writeFile(t, dir, "a.pdf", "A"),
		writeFile(t, dir, "b.pdf", "B"),
	}
	docs, err := mustLoader(t, WithConcurrency(2)).Load(t.Context(), paths)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]spec.DocumentID{"c.pdf", "a.pdf", "b.pdf"}, idsOf(docs)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	for i, want := range []string{"C", "A", "B"} {
		if string(docs[i].Content()) != want {
			t.Fatalf("doc %d content=%q, want %q", i, docs[i].Content(), want)
		}
	}
}

func TestLoad_CollisionSuffix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "x/report.pdf", "1"),
		writeFile(t, dir, "y/report.pdf", "2"),
		writeFile(t, dir, "report (2).pdf", "3"),
	}
	docs, err := mustLoader(t).Load(t.Context(), paths)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []spec.DocumentID{"report.pdf", "report (3).pdf", "report (2).pdf"}
	if diff := cmp.Diff(want, idsOf(docs)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_CollisionFail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "x/report.pdf", "1"),
		writeFile(t, dir, "y/report.pdf", "2"),
	}
	_, err := mustLoader(t, WithCollisionPolicy(CollisionFail)).Load(t.Context(), paths)
	if !errors.Is(err, spec.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestLoad_RootRejectsEscapes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "in/a.pdf", "A")
	writeFile(t, dir, "outside.pdf", "O")

	l := mustLoader(t, WithRoot(filepath.Join(dir, "in")))
	docs, err := l.Load(t.Context(), []string{"a.pdf"})
	if err != nil {
		t.Fatalf("Load inside root: %v", err)
	}
	if len(docs) != 1 || docs[0].ID() != "a.pdf" {
		t.Fatalf("unexpected docs: %v", idsOf(docs))
	}

	for _, p := range []string{"../outside.pdf", filepath.Join(dir, "outside.pdf")} {
		if _, err := l.Load(t.Context(), []string{p}); err == nil {
			t.Fatalf("expected %q to be rejected", p)
		}
	}
}

func TestLoad_MaxFileSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	small := writeFile(t, dir, "small.pdf", "1234")
	big := writeFile(t, dir, "big.pdf", "123456789")

	l := mustLoader(t, WithMaxFileSize(4))
	if _, err := l.Load(t.Context(), []string{small}); err != nil {
		t.Fatalf("Load small: %v", err)
	}
	_, err := l.Load(t.Context(), []string{small, big})
	if !errors.Is(err, spec.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for big file, got %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name  string
		paths []string
	}{
		{"no paths", nil},
		{"missing file", []string{filepath.Join(dir, "nope.pdf")}},
		{"directory", []string{dir}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := mustLoader(t).Load(t.Context(), tc.paths); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNew_RejectsBadOptions(t *testing.T) {
	t.Parallel()

	for name, opt := range map[string]Option{
		"root":        WithRoot("  "),
		"collisions":  WithCollisionPolicy("rename"),
		"max size":    WithMaxFileSize(-1),
		"concurrency": WithConcurrency(0),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(opt); !errors.Is(err, spec.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}
