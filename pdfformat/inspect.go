package pdfformat

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PageSize is a page's media box width and height in points.
type PageSize struct {
	Width  float64 `json:"width"  yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Info is a lightweight description of a PDF used for display.
type Info struct {
	Pages     int        `json:"pages"     yaml:"pages"`
	PageSizes []PageSize `json:"pageSizes" yaml:"pageSizes"`
}

// maxTreeDepth bounds the Parent walk on cyclic page trees.
const maxTreeDepth = 64

// Inspect reads page count and page sizes without validating the document.
func Inspect(content []byte) (info Info, err error) {
	// The reader panics on malformed object graphs.
	defer func() {
		if r := recover(); r != nil {
			info, err = Info{}, fmt.Errorf("pdf inspect: %v", r)
		}
	}()

	if len(content) == 0 {
		return Info{}, errors.New("pdf inspect: empty content")
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Info{}, fmt.Errorf("pdf inspect: %w", err)
	}

	n := r.NumPage()
	info = Info{Pages: n, PageSizes: make([]PageSize, 0, n)}
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			return Info{}, fmt.Errorf("pdf inspect: page %d missing", i)
		}
		info.PageSizes = append(info.PageSizes, boxSize(mediaBox(p)))
	}
	return info, nil
}

// mediaBox returns the page's MediaBox, inherited from the nearest ancestor
// in the page tree when the page itself has none.
func mediaBox(p pdf.Page) pdf.Value {
	v := p.V
	for depth := 0; !v.IsNull() && depth < maxTreeDepth; depth++ {
		if box := v.Key("MediaBox"); !box.IsNull() {
			return box
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

func boxSize(box pdf.Value) PageSize {
	if box.Len() != 4 {
		return PageSize{}
	}
	return PageSize{
		Width:  box.Index(2).Float64() - box.Index(0).Float64(),
		Height: box.Index(3).Float64() - box.Index(1).Float64(),
	}
}
