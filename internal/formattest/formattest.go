// Package formattest provides a deterministic text format for exercising the
// merge engine without a real document library.
//
// A valid document starts with Magic followed by its body. The combined
// output is Magic followed by every appended body, in order.
package formattest

import (
	"bytes"
	"errors"
	"io"
	"sync/atomic"

	"github.com/flexigpt/ordermerge-go/spec"
)

const Magic = "DOC1\n"

// Doc wraps body into a valid document.
func Doc(body string) []byte { return []byte(Magic + body) }

// Body strips Magic from a valid document or combined output.
func Body(b []byte) (string, bool) {
	rest, ok := bytes.CutPrefix(b, []byte(Magic))
	return string(rest), ok
}

type Format struct {
	// FinalizeErr, when set, makes every Finalize fail.
	FinalizeErr error

	// PanicOn makes Append panic for documents whose body equals it.
	PanicOn string

	Assemblers atomic.Int32
}

func (f *Format) Name() string { return "doc1" }

func (f *Format) NewAssembler() spec.Assembler {
	f.Assemblers.Add(1)
	return &assembler{f: f}
}

type assembler struct {
	f    *Format
	body bytes.Buffer
}

func (a *assembler) Append(_ spec.DocumentID, content []byte) error {
	body, ok := Body(content)
	if !ok {
		return errors.New("missing DOC1 header")
	}
	if a.f.PanicOn != "" && body == a.f.PanicOn {
		panic("formattest: asked to panic")
	}
	a.body.WriteString(body)
	return nil
}

func (a *assembler) Finalize(w io.Writer) error {
	if a.f.FinalizeErr != nil {
		return a.f.FinalizeErr
	}
	if _, err := io.WriteString(w, Magic); err != nil {
		return err
	}
	_, err := w.Write(a.body.Bytes())
	return err
}
