// Package label implements Component H: symbolic label objects with
// deferred byte-offset resolution.
//
// A label is allocated by the encode-side recorder (pkg/recorder) when a
// branch or switch targets it; it is resolved to an instruction index
// when placed (Place). The decode side does not use Labels: pkg/forms
// keeps relative target tokens and the Code Attribute Assembler
// (pkg/codeattr) turns them into byte offsets once it has computed
// byteCodeOffsets (spec §4.E step 2).
//
// Grounded on the retrieved wagon compiler's patchOffset/BranchTable
// pattern (record a position that needs patching, resolve it once all
// block ends are known) and the BPF assembler's relative-jump opcodes,
// which likewise compute an offset only after every instruction has a
// fixed position.
package label

import "github.com/kristofer/pack200codec/pkg/codecerr"

// Label is an opaque handle obtained from Allocator.New. Ids start at 0,
// so the zero value is the same handle as an Allocator's first label.
type Label struct {
	id int
}

// ID returns the label's raw integer handle, for code that stores a
// label as a plain int instead of holding Label values directly.
func (l Label) ID() int { return l.id }

// LabelFromID reconstructs a Label from a raw id previously obtained via
// ID().
func LabelFromID(id int) Label { return Label{id: id} }

// Allocator hands out Labels and remembers the instruction index each one
// was placed at.
type Allocator struct {
	next   int
	target []int // target[label.id] = instruction index, or -1 if unplaced
}

// NewAllocator returns an empty Allocator.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// New allocates a fresh, unplaced Label.
func (a *Allocator) New() Label {
	id := a.next
	a.next++
	a.target = append(a.target, -1)
	return Label{id: id}
}

// Place records that lbl's target is instruction index idx. Each label is
// placed exactly once; placing it again overwrites the prior index, which
// is never valid encoder usage but is not itself an error here — the
// assembler's fix-up pass is what surfaces a bad target as DanglingLabel.
func (a *Allocator) Place(lbl Label, instrIndex int) {
	a.target[lbl.id] = instrIndex
}

// InstrIndex resolves lbl to the instruction index it was placed at. It
// fails with DanglingLabel if the label was never placed or its target
// exceeds the known instruction count — the caller supplies instrCount so
// this package stays free of any dependency on the assembler.
func (a *Allocator) InstrIndex(lbl Label, instrCount int) (int, error) {
	idx := a.target[lbl.id]
	if idx < 0 || idx > instrCount {
		return 0, codecerr.New(codecerr.DanglingLabel,
			"label %d has no valid target (got instruction index %d, method has %d instructions)",
			lbl.id, idx, instrCount)
	}
	return idx, nil
}
