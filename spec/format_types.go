package spec

import "io"

// Format is a binary document format the merge engine can combine.
type Format interface {
	// Name returns a short format key (e.g. "pdf").
	Name() string

	// NewAssembler starts an empty combined document.
	NewAssembler() Assembler
}

// Assembler accumulates documents for one merge invocation. It is not safe
// for concurrent use and is discarded after Finalize.
type Assembler interface {
	// Append parses content and appends it after everything appended so far.
	// A failed Append must leave the assembler as it was before the call.
	Append(id DocumentID, content []byte) error

	// Finalize writes the combined document to w.
	Finalize(w io.Writer) error
}
