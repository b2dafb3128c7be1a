// Package forms implements Component C (the ByteCode Form Registry) and
// Component D (the ByteCode Instance) together. Spec §4.C and §4.D
// describe them as separate components, but a Form's two operations
// (SetOperands, FixUpTargets) mutate a ByteCode directly, so the two live
// in one package here to avoid an import cycle between "the dispatch
// table" and "the thing it mutates" — see DESIGN.md.
//
// Per §9's redesign note, the source's ByteCodeForm → ReferenceForm →
// ClassSpecificReferenceForm → ... inheritance chain is collapsed into one
// tagged Variant enum; shared behavior (template copying, operand-window
// computation) is a handful of plain functions taking a Form as data.
package forms

import (
	"encoding/binary"
	"io"

	"github.com/kristofer/pack200codec/pkg/codecerr"
	"github.com/kristofer/pack200codec/pkg/constpool"
)

// Variant is the exhaustive operand-protocol tag of spec §3.
type Variant int

const (
	VNoArgument Variant = iota
	VByte
	VShort
	VLocal
	VLabel
	VIinc
	VStringRef
	VIntRef
	VFloatRef
	VLongRef
	VDoubleRef
	VClassRef
	VNarrowClassRef
	VNewClassRef
	VFieldRef
	VMethodRef
	VIMethodRef
	VThisFieldRef
	VThisMethodRef
	VSuperFieldRef
	VSuperMethodRef
	VThisInitMethodRef
	VSuperInitMethodRef
	VNewInitMethodRef
	VTableSwitch
	VLookupSwitch
	VWide
	VMultiANewArray
)

// sentinel marks an operand byte to be filled later (spec §3).
const sentinel = -1

// Form is an immutable descriptor tied to one Pack200 opcode (spec §3).
type Form struct {
	Name          string
	Pack200Opcode int
	Template      []int
	Widened       bool
	Variant       Variant
	PoolID        constpool.PoolID
	RealOpcode    int // base real JVM opcode this form rewrites to

	// FirstOperand/LastOperand bound the template's sentinel run (spec §3
	// Invariant 1). Both are -1 for a no-operand form. Computed once by
	// newForm from Template, never set directly by callers.
	FirstOperand int
	LastOperand  int
}

// newForm finishes a Form literal by deriving its operand window from
// Template; every entry in the registry's static table is built through
// this constructor (pkg/forms/registry.go) so FirstOperand/LastOperand are
// never left stale relative to Template.
func newForm(f Form) *Form {
	f.FirstOperand, f.LastOperand = operandWindow(f.Template)
	return &f
}

// operandWindow returns the first and last sentinel index in the
// template, or (-1,-1) if the form has no operands (spec §3 Invariants,
// Invariant 1: "operand window is non-empty iff the form has operands").
func operandWindow(template []int) (first, last int) {
	first, last = -1, -1
	for i, b := range template {
		if b == sentinel {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	return
}

// HasOperands reports whether this form's template carries any operand
// bytes at all.
func (f *Form) HasOperands() bool {
	first, _ := operandWindow(f.Template)
	return first != -1
}

// HasMultipleByteCodes is the §3 Invariant predicate for fused
// aload_0_*_this/super forms: true iff template[0]=42 (aload_0) and
// template[1]>0.
func (f *Form) HasMultipleByteCodes() bool {
	return len(f.Template) >= 2 && f.Template[0] == 42 && f.Template[1] > 0
}

// NestedPos records where a resolved constant-pool entry is serialized in
// a ByteCode's rewrite bytes: Offset is the byte position, Width is 1, 2,
// or 4.
type NestedPos struct {
	Offset int
	Width  int
	Entry  *constpool.Entry
}

// ByteCode is Component D: a mutable instruction built from one Pack200
// opcode. Rewrite starts as a byte-sized copy of the form's template
// (sentinels become 0 placeholders) and is mutated in place by
// SetOperands/FixUpTargets.
type ByteCode struct {
	Pack200Opcode int
	RealOpcode    int
	Rewrite       []byte
	Nested        []NestedPos
	Targets       []int   // symbolic target tokens; meaning is per-variant (see variants.go)
	Patches       []Patch // byte positions FixUpTargets writes computed offsets into, parallel to Targets
	ByteOffset    int     // assigned by the assembler's offset pass; -1 until then
}

// newByteCode builds a ByteCode from a form's template, the base state
// every variant starts SetOperands from.
func newByteCode(f *Form, pack200Opcode int) *ByteCode {
	rewrite := make([]byte, len(f.Template))
	for i, b := range f.Template {
		if b != sentinel {
			rewrite[i] = byte(b)
		}
	}
	return &ByteCode{
		Pack200Opcode: pack200Opcode,
		RealOpcode:    f.RealOpcode,
		Rewrite:       rewrite,
		ByteOffset:    -1,
	}
}

// SetOperandBytes writes values starting at the first operand-window byte
// of the template that bc was built from. firstOperandIndex is passed in
// by the per-variant code (which knows the form's window), keeping
// ByteCode itself template-agnostic.
func (bc *ByteCode) SetOperandBytes(firstOperandIndex int, values ...byte) {
	copy(bc.Rewrite[firstOperandIndex:], values)
}

// SetOperandSigned2Bytes writes a signed 16-bit big-endian value at byte
// position at of the rewrite (spec §4.D).
func (bc *ByteCode) SetOperandSigned2Bytes(value int, at int) {
	binary.BigEndian.PutUint16(bc.Rewrite[at:at+2], uint16(int16(value)))
}

// SetOperandSigned4Bytes writes a signed 32-bit big-endian value at at.
func (bc *ByteCode) SetOperandSigned4Bytes(value int, at int) {
	binary.BigEndian.PutUint32(bc.Rewrite[at:at+4], uint32(int32(value)))
}

// SetOperandUnsigned2Bytes writes an unsigned 16-bit big-endian value
// (used by the Local variant for a two-byte local-variable index).
func (bc *ByteCode) SetOperandUnsigned2Bytes(value int, at int) {
	binary.BigEndian.PutUint16(bc.Rewrite[at:at+2], uint16(value))
}

// SetOperandUnsigned4Bytes writes an unsigned 32-bit big-endian value.
func (bc *ByteCode) SetOperandUnsigned4Bytes(value int, at int) {
	binary.BigEndian.PutUint32(bc.Rewrite[at:at+4], uint32(value))
}

// SetNested records one resolved constant-pool entry position. Multiple
// calls append, though every variant here nests at most one entry.
func (bc *ByteCode) SetNested(pos NestedPos) {
	bc.Nested = append(bc.Nested, pos)
}

// ByteLength returns the instruction's final size in bytes.
func (bc *ByteCode) ByteLength() int {
	return len(bc.Rewrite)
}

// Serialize writes bc's final bytes to out: raw bytes except where a
// NestedPos covers a span, in which case the resolved entry's class-file
// index is written at that width instead (spec §4.D). Indices are
// resolved at serialize time, not at SetOperands time, so that a pool
// entry renumbered after SetOperands ran (e.g. once the whole class's
// pool is finalized) still serializes correctly.
func (bc *ByteCode) Serialize(out io.Writer) (int, error) {
	buf := make([]byte, len(bc.Rewrite))
	copy(buf, bc.Rewrite)
	for _, np := range bc.Nested {
		if np.Entry == nil {
			codecerr.Invariant("nested position at offset %d has no resolved entry", np.Offset)
		}
		switch np.Width {
		case 1:
			if np.Entry.Index > 255 {
				return 0, codecerr.New(codecerr.NarrowIndexOverflow,
					"constant pool index %d does not fit in a narrow (1-byte) operand", np.Entry.Index)
			}
			buf[np.Offset] = byte(np.Entry.Index)
		case 2:
			binary.BigEndian.PutUint16(buf[np.Offset:np.Offset+2], uint16(np.Entry.Index))
		case 4:
			binary.BigEndian.PutUint32(buf[np.Offset:np.Offset+4], uint32(np.Entry.Index))
		default:
			codecerr.Invariant("nested position at offset %d has unsupported width %d", np.Offset, np.Width)
		}
	}
	return out.Write(buf)
}
