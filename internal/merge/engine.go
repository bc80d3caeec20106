// Package merge combines an ordered list of documents into one output.
package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flexigpt/ordermerge-go/spec"
)

// Input is everything one merge invocation reads. Documents must cover every
// identity in Order; missing identities are reported as failed items.
type Input struct {
	Epoch     uint64
	Order     []spec.DocumentID
	Documents map[spec.DocumentID]spec.Document
}

// Run appends each document in order to a fresh assembler of format and
// finalizes the result. A document that cannot be appended is recorded in
// FailedItems and skipped. onProgress, if set, is called after every step.
//
// The returned error is nil for completed and partially completed merges.
// It matches spec.ErrEmptyMerge for an empty order and spec.ErrMergeFailed
// when no output could be produced; the result still carries failed items.
func Run(
	ctx context.Context,
	format spec.Format,
	in Input,
	onProgress spec.ProgressFunc,
	logger *slog.Logger,
) (spec.MergeResult, error) {
	if err := ctx.Err(); err != nil {
		return spec.MergeResult{}, err
	}
	if format == nil {
		return spec.MergeResult{}, fmt.Errorf("%w: format is required", spec.ErrInvalidArgument)
	}
	if logger == nil {
		logger = slog.Default()
	}

	res := spec.MergeResult{Status: spec.MergeFailed, Epoch: in.Epoch}
	total := len(in.Order)
	if total == 0 {
		return res, spec.ErrEmptyMerge
	}

	asm := format.NewAssembler()
	for i, id := range in.Order {
		err := appendOne(asm, id, in.Documents)
		if err != nil {
			logger.Warn("document skipped", "id", string(id), "step", i+1, "err", err)
			res.FailedItems = append(res.FailedItems, spec.FailedItem{ID: id, Reason: err.Error(), Err: err})
		} else {
			res.SucceededCount++
		}
		if onProgress != nil {
			onProgress(spec.Progress{
				Step:     i + 1,
				Total:    total,
				Fraction: float64(i+1) / float64(total),
				ID:       id,
				Failed:   err != nil,
			})
		}
	}

	if res.SucceededCount == 0 {
		logger.Error("merge failed: no document could be appended", "total", total)
		return res, fmt.Errorf("%w: all %d documents failed", spec.ErrMergeFailed, total)
	}

	var buf bytes.Buffer
	if err := finalize(asm, &buf); err != nil {
		logger.Error("merge failed: finalize", "format", format.Name(), "err", err)
		return res, errors.Join(spec.ErrMergeFailed, err)
	}

	res.Output = buf.Bytes()
	if len(res.FailedItems) == 0 {
		res.Status = spec.MergeCompleted
	} else {
		res.Status = spec.MergeCompletedPartial
	}
	logger.Info("merge finished",
		"format", format.Name(),
		"status", string(res.Status),
		"succeeded", res.SucceededCount,
		"failed", len(res.FailedItems),
		"bytes", len(res.Output),
	)
	return res, nil
}

func appendOne(asm spec.Assembler, id spec.DocumentID, docs map[spec.DocumentID]spec.Document) (err error) {
	d, ok := docs[id]
	if !ok {
		return fmt.Errorf("%w: %q", spec.ErrDocumentNotFound, id)
	}
	// A bad input must not take the whole merge down.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %q: panic: %v", spec.ErrDocumentInvalid, id, r)
		}
	}()
	if err := asm.Append(id, d.Content()); err != nil {
		return fmt.Errorf("%w: %q: %w", spec.ErrDocumentInvalid, id, err)
	}
	return nil
}

func finalize(asm spec.Assembler, buf *bytes.Buffer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("finalize panic: %v", r)
		}
	}()
	return asm.Finalize(buf)
}
