package pdfformat

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// writeCanonical re-serializes a PDF written by pdfcpu so that the same
// inputs in the same order always produce the same bytes. pdfcpu assigns
// merged object numbers and lays objects out in map iteration order, and it
// stamps the wall clock into the info dict and file ID.
//
// Objects are renumbered depth first from the catalog and then the info
// dict, visiting dict entries in key order, and written in that order.
// Unreachable objects are dropped. CreationDate and ModDate are removed and
// the file ID is the MD5 of everything before the xref section.
func writeCanonical(raw []byte, conf *model.Configuration, w io.Writer) error {
	ctx, err := api.ReadContext(bytes.NewReader(raw), conf)
	if err != nil {
		return fmt.Errorf("reread merged pdf: %w", err)
	}
	if ctx.Encrypt != nil {
		return errors.New("merged pdf is encrypted")
	}
	if ctx.Root == nil {
		return errors.New("merged pdf has no catalog")
	}

	rn := renumberer{table: ctx.Table, numbers: map[int]int{}}
	rn.visit(*ctx.Root)
	if len(rn.order) == 0 {
		return errors.New("merged pdf catalog is missing")
	}
	infoNr := 0
	if ctx.Info != nil {
		rn.visit(*ctx.Info)
		infoNr = ctx.Info.ObjectNumber.Value()
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", ctx.XRefTable.Version())

	offsets := make([]int, len(rn.order))
	for i, old := range rn.order {
		obj := rn.rewrite(ctx.Table[old].Object)
		if old == infoNr {
			if d, ok := obj.(types.Dict); ok {
				d.Delete("CreationDate")
				d.Delete("ModDate")
			}
		}
		offsets[i] = buf.Len()
		writeIndirect(&buf, i+1, obj)
	}

	sum := md5.Sum(buf.Bytes())
	id := types.HexLiteral(hex.EncodeToString(sum[:]))

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	trailer := types.Dict{
		"Size": types.Integer(len(offsets) + 1),
		"Root": *types.NewIndirectRef(1, 0),
		"ID":   types.Array{id, id},
	}
	if ctx.Info != nil {
		if ref := rn.rewrite(*ctx.Info); ref != nil {
			trailer["Info"] = ref
		}
	}
	fmt.Fprintf(&buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer.PDFString(), xref)

	_, err = w.Write(buf.Bytes())
	return err
}

type renumberer struct {
	table   map[int]*model.XRefTableEntry
	numbers map[int]int // old object number -> new
	order   []int       // old object numbers in new order
}

func (rn *renumberer) visit(o types.Object) {
	switch v := o.(type) {
	case types.IndirectRef:
		nr := v.ObjectNumber.Value()
		if _, seen := rn.numbers[nr]; seen {
			return
		}
		e, ok := rn.table[nr]
		if !ok || e == nil || e.Free || e.Object == nil {
			return
		}
		rn.order = append(rn.order, nr)
		rn.numbers[nr] = len(rn.order)
		rn.visit(e.Object)
	case types.Dict:
		for _, k := range slices.Sorted(maps.Keys(v)) {
			rn.visit(v[k])
		}
	case types.Array:
		for _, e := range v {
			rn.visit(e)
		}
	case types.StreamDict:
		// Length is rewritten as a direct integer.
		for _, k := range slices.Sorted(maps.Keys(v.Dict)) {
			if k != "Length" {
				rn.visit(v.Dict[k])
			}
		}
	}
}

// rewrite returns a copy of o with references renumbered. References to
// objects that were never visited become null.
func (rn *renumberer) rewrite(o types.Object) types.Object {
	switch v := o.(type) {
	case types.IndirectRef:
		nr, ok := rn.numbers[v.ObjectNumber.Value()]
		if !ok {
			return nil
		}
		return *types.NewIndirectRef(nr, 0)
	case types.Dict:
		d := types.NewDict()
		for k, e := range v {
			d[k] = rn.rewrite(e)
		}
		return d
	case types.Array:
		a := make(types.Array, len(v))
		for i, e := range v {
			a[i] = rn.rewrite(e)
		}
		return a
	case types.StreamDict:
		sd := v
		sd.Dict = types.NewDict()
		for k, e := range v.Dict {
			if k != "Length" {
				sd.Dict[k] = rn.rewrite(e)
			}
		}
		sd.Dict["Length"] = types.Integer(len(v.Raw))
		return sd
	default:
		return o
	}
}

func writeIndirect(buf *bytes.Buffer, nr int, o types.Object) {
	fmt.Fprintf(buf, "%d 0 obj\n", nr)
	switch v := o.(type) {
	case nil:
		buf.WriteString("null")
	case types.StreamDict:
		buf.WriteString(v.Dict.PDFString())
		buf.WriteString("\nstream\n")
		buf.Write(v.Raw)
		buf.WriteString("\nendstream")
	default:
		buf.WriteString(o.PDFString())
	}
	buf.WriteString("\nendobj\n")
}
