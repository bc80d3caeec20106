package spec

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestParseDocumentID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "plain", in: "a.pdf"},
		{name: "spaces inside", in: "my report (2).pdf"},
		{name: "unicode", in: "résumé.pdf"},
		{name: "max length", in: strings.Repeat("x", MaxDocumentIDLen)},
		{name: "empty", in: "", wantErr: true},
		{name: "blank", in: " \t", wantErr: true},
		{name: "too long", in: strings.Repeat("x", MaxDocumentIDLen+1), wantErr: true},
		{name: "invalid utf8", in: "a\xff.pdf", wantErr: true},
		{name: "control char", in: "a\n.pdf", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDocumentID(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDocumentID: %v", err)
			}
			if string(got) != tc.in {
				t.Fatalf("got %q, want %q", got, tc.in)
			}
		})
	}
}

func TestDocument_ContentIsImmutable(t *testing.T) {
	t.Parallel()

	src := []byte("hello")
	d, err := NewDocument("a", src)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	src[0] = 'J'
	if string(d.Content()) != "hello" {
		t.Fatalf("document changed with caller buffer: %q", d.Content())
	}

	c := d.Content()
	c[0] = 'Y'
	if got := string(d.Content()); got != "hello" {
		t.Fatalf("document changed through Content result: %q", got)
	}
	viaReader, err := io.ReadAll(d.Reader())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(viaReader) != "hello" {
		t.Fatalf("reader sees modified content: %q", viaReader)
	}
	if d.Size() != 5 || d.Reader().Len() != 5 {
		t.Fatalf("unexpected size: %d", d.Size())
	}
}

func TestOrderError(t *testing.T) {
	t.Parallel()

	var err error = &OrderError{Problem: OrderWrongLength, Got: 2, Want: 3}
	if !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("OrderError must match ErrInvalidOrder")
	}
	if !strings.Contains(err.Error(), "got 2, want 3") {
		t.Fatalf("unexpected message: %s", err)
	}

	err = &OrderError{Problem: OrderUnknown, ID: "ghost.pdf"}
	var oe *OrderError
	if !errors.As(err, &oe) || oe.ID != "ghost.pdf" {
		t.Fatalf("errors.As failed: %v", err)
	}
	if !strings.Contains(err.Error(), `"ghost.pdf"`) {
		t.Fatalf("unexpected message: %s", err)
	}
}

func TestMergeResult_HasOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		res  MergeResult
		want bool
	}{
		{MergeResult{Status: MergeCompleted, Output: []byte("x")}, true},
		{MergeResult{Status: MergeCompletedPartial, Output: []byte("x")}, true},
		{MergeResult{Status: MergeFailed, Output: []byte("x")}, false},
		{MergeResult{Status: MergeCompleted}, false},
	}
	for i, tc := range tests {
		if got := tc.res.HasOutput(); got != tc.want {
			t.Fatalf("case %d: HasOutput=%v, want %v", i, got, tc.want)
		}
	}
}

func TestDuplicatePolicy_Valid(t *testing.T) {
	t.Parallel()

	for _, p := range []DuplicatePolicy{DuplicateLastWins, DuplicateReject} {
		if !p.Valid() {
			t.Fatalf("%q should be valid", p)
		}
	}
	if DuplicatePolicy("first-wins").Valid() || DuplicatePolicy("").Valid() {
		t.Fatalf("unexpected valid policy")
	}
}
