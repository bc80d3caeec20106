package pdfformat

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/flexigpt/ordermerge-go/internal/pdftest"
)

func TestInspect(t *testing.T) {
	t.Parallel()

	info, err := Inspect(pdftest.Build(pdftest.Size{W: 612, H: 792}, pdftest.Size{W: 842, H: 595}))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	want := Info{
		Pages:     2,
		PageSizes: []PageSize{{Width: 612, Height: 792}, {Width: 842, Height: 595}},
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestInspect_InheritedMediaBox(t *testing.T) {
	t.Parallel()

	info, err := Inspect(pdftest.BuildInherited(pdftest.Size{W: 420, H: 595}, 2))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	want := Info{
		Pages:     2,
		PageSizes: []PageSize{{Width: 420, Height: 595}, {Width: 420, Height: 595}},
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestInspect_Errors(t *testing.T) {
	t.Parallel()

	for name, in := range map[string][]byte{
		"empty":   nil,
		"corrupt": pdftest.Corrupt(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := Inspect(in); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
