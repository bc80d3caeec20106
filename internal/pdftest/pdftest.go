// Package pdftest builds small PDF fixtures for tests.
package pdftest

import (
	"bytes"
	"fmt"
)

// Size is a page media box in points.
type Size struct {
	W, H int
}

// Build returns a minimal, well-formed PDF with one page per size. Each page
// draws a single line so it has a content stream.
func Build(sizes ...Size) []byte {
	if len(sizes) == 0 {
		sizes = []Size{{W: 612, H: 792}}
	}
	return build(nil, sizes)
}

// BuildInherited returns a PDF with n pages that carry no MediaBox of their
// own; every page inherits size from the /Pages node.
func BuildInherited(size Size, n int) []byte {
	sizes := make([]Size, n)
	for i := range sizes {
		sizes[i] = size
	}
	return build(&size, sizes)
}

func build(inherited *Size, sizes []Size) []byte {
	var buf bytes.Buffer
	offsets := []int{}
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := &bytes.Buffer{}
	for i := range sizes {
		fmt.Fprintf(kids, "%d 0 R ", 3+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	pagesBox := ""
	if inherited != nil {
		pagesBox = fmt.Sprintf(" /MediaBox [0 0 %d %d]", inherited.W, inherited.H)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [ %s] /Count %d%s >>", kids.String(), len(sizes), pagesBox))
	for i, s := range sizes {
		pageBox := ""
		if inherited == nil {
			pageBox = fmt.Sprintf(" /MediaBox [0 0 %d %d]", s.W, s.H)
		}
		obj(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R%s /Resources << >> /Contents %d 0 R >>",
			pageBox, 4+2*i,
		))
		stream := fmt.Sprintf("0 0 m %d %d l S", s.W, s.H)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// Corrupt returns bytes that no PDF parser accepts.
func Corrupt() []byte {
	return []byte("this is not a pdf document, just some bytes pretending to be one\n")
}

