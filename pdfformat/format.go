// Package pdfformat implements spec.Format for PDF documents on top of pdfcpu.
package pdfformat

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/flexigpt/ordermerge-go/spec"
)

const Name = "pdf"

// DefaultOutputName is the file name suggested for merged output.
const DefaultOutputName = "ordered_merge_result.pdf"

type ValidationMode string

const (
	ValidationRelaxed ValidationMode = "relaxed"
	ValidationStrict  ValidationMode = "strict"
)

var disableConfigDir sync.Once

type Format struct {
	validation  ValidationMode
	dividerPage bool
}

type Option func(*Format) error

// WithValidation selects pdfcpu's validation mode. Default is relaxed.
func WithValidation(mode ValidationMode) Option {
	return func(f *Format) error {
		switch mode {
		case ValidationRelaxed, ValidationStrict:
			f.validation = mode
			return nil
		case "":
			f.validation = ValidationRelaxed
			return nil
		default:
			return fmt.Errorf("%w: unknown pdf validation mode %q", spec.ErrInvalidArgument, mode)
		}
	}
}

// WithDividerPage inserts a blank page between merged documents.
func WithDividerPage(enabled bool) Option {
	return func(f *Format) error {
		f.dividerPage = enabled
		return nil
	}
}

func New(opts ...Option) (*Format, error) {
	f := &Format{validation: ValidationRelaxed}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(f); err != nil {
			return nil, err
		}
	}
	// Keep pdfcpu from creating a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)
	return f, nil
}

func (f *Format) Name() string { return Name }

func (f *Format) NewAssembler() spec.Assembler {
	return &assembler{format: f}
}

func (f *Format) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if f.validation == ValidationStrict {
		conf.ValidationMode = model.ValidationStrict
	} else {
		conf.ValidationMode = model.ValidationRelaxed
	}
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

type assembler struct {
	format *Format
	parts  [][]byte
}

// Append parses and validates content. Accepted documents are merged in
// append order by Finalize.
func (a *assembler) Append(_ spec.DocumentID, content []byte) error {
	if len(content) == 0 {
		return errors.New("empty content")
	}
	if _, err := a.format.validate(content); err != nil {
		return err
	}
	a.parts = append(a.parts, content)
	return nil
}

// Finalize merges the accepted documents and writes the result. The same
// documents in the same order always produce identical bytes.
func (a *assembler) Finalize(w io.Writer) error {
	if len(a.parts) == 0 {
		return errors.New("no documents appended")
	}
	rsc := make([]io.ReadSeeker, 0, len(a.parts))
	for _, p := range a.parts {
		rsc = append(rsc, bytes.NewReader(p))
	}
	var merged bytes.Buffer
	if err := api.MergeRaw(rsc, &merged, a.format.dividerPage, a.format.configuration()); err != nil {
		return fmt.Errorf("pdf merge: %w", err)
	}
	if err := writeCanonical(merged.Bytes(), a.format.configuration(), w); err != nil {
		return fmt.Errorf("pdf merge: %w", err)
	}
	return nil
}

func (f *Format) validate(content []byte) (pages int, err error) {
	// pdfcpu may panic on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	ctx, err := api.ReadContext(bytes.NewReader(content), f.configuration())
	if err != nil {
		return 0, fmt.Errorf("pdf read: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return 0, fmt.Errorf("pdf validate: %w", err)
	}
	if ctx.PageCount == 0 {
		return 0, errors.New("pdf has no pages")
	}
	return ctx.PageCount, nil
}

// Validate reports whether content is a PDF this format can merge, and its
// page count.
func (f *Format) Validate(content []byte) (int, error) {
	if len(content) == 0 {
		return 0, errors.New("empty content")
	}
	return f.validate(content)
}
