package spec

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SessionID identifies a merge session (UUIDv7 string).
type SessionID string

// MaxDocumentIDLen bounds identity length in bytes (a typical filename limit).
const MaxDocumentIDLen = 255

// DocumentID is the stable identity of a document within a session.
// Use ParseDocumentID to build one from untrusted input.
type DocumentID string

// ParseDocumentID validates s as a document identity.
func ParseDocumentID(s string) (DocumentID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: document id is required", ErrInvalidArgument)
	}
	if len(s) > MaxDocumentIDLen {
		return "", fmt.Errorf("%w: document id longer than %d bytes", ErrInvalidArgument, MaxDocumentIDLen)
	}
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: document id is not valid UTF-8", ErrInvalidArgument)
	}
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("%w: document id contains control characters", ErrInvalidArgument)
	}
	return DocumentID(s), nil
}

// Document is one uploaded binary artifact. Content is never mutated after
// construction; the zero value has no content.
type Document struct {
	id      DocumentID
	content []byte
}

// NewDocument validates id and copies content into a new Document.
func NewDocument(id string, content []byte) (Document, error) {
	did, err := ParseDocumentID(id)
	if err != nil {
		return Document{}, err
	}
	return Document{id: did, content: bytes.Clone(content)}, nil
}

func (d Document) ID() DocumentID { return d.id }

func (d Document) Size() int { return len(d.content) }

// Content returns a copy of the document bytes.
func (d Document) Content() []byte { return bytes.Clone(d.content) }

// Reader returns a read-only view over the document bytes.
func (d Document) Reader() *bytes.Reader { return bytes.NewReader(d.content) }

// SessionView is a read-only snapshot of a session's order.
type SessionView struct {
	SessionID SessionID    `json:"sessionID"`
	Epoch     uint64       `json:"epoch"`
	Order     []DocumentID `json:"order"`
}

// ReplaceResult reports what ReplaceDocuments did.
type ReplaceResult struct {
	SessionView

	// Duplicates lists identities that appeared more than once in the input.
	// Only the last content for each was kept.
	Duplicates []DocumentID `json:"duplicates,omitempty"`

	// OrderReset is true when the order was rebuilt from the input order
	// rather than carried over.
	OrderReset bool `json:"orderReset"`
}

// DuplicatePolicy controls how ReplaceDocuments treats repeated identities.
type DuplicatePolicy string

const (
	// DuplicateLastWins keeps the last content at the first position and
	// reports the identity in ReplaceResult.Duplicates.
	DuplicateLastWins DuplicatePolicy = "last-wins"
	// DuplicateReject fails the whole replace with ErrDuplicateIdentity.
	DuplicateReject DuplicatePolicy = "reject"
)

func (p DuplicatePolicy) Valid() bool {
	return p == DuplicateLastWins || p == DuplicateReject
}

// Progress is emitted once per merge step, after the step finished.
type Progress struct {
	Step     int        `json:"step"`
	Total    int        `json:"total"`
	Fraction float64    `json:"fraction"`
	ID       DocumentID `json:"id"`
	Failed   bool       `json:"failed,omitempty"`
}

// ProgressFunc receives merge progress. It is called synchronously.
type ProgressFunc func(Progress)

type MergeStatus string

const (
	MergeCompleted        MergeStatus = "completed"
	MergeCompletedPartial MergeStatus = "completed_partial"
	MergeFailed           MergeStatus = "failed"
)

// FailedItem is a document that could not be appended.
type FailedItem struct {
	ID     DocumentID `json:"id"     yaml:"id"`
	Reason string     `json:"reason" yaml:"reason"`
	Err    error      `json:"-"      yaml:"-"`
}

// MergeResult is the one-shot output of a merge.
type MergeResult struct {
	Status         MergeStatus  `json:"status"`
	Output         []byte       `json:"-"`
	SucceededCount int          `json:"succeededCount"`
	FailedItems    []FailedItem `json:"failedItems,omitempty"`
	Epoch          uint64       `json:"epoch"`
}

// HasOutput reports whether the merge produced a usable document.
func (r MergeResult) HasOutput() bool {
	return r.Status != MergeFailed && len(r.Output) > 0
}
