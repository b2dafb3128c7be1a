// Package codeattr implements Component E: the Code Attribute Assembler.
// It holds an ordered list of ByteCode instructions built by pkg/forms,
// computes their byte offsets in one left-to-right pass, drives each
// form's fix-up of label/switch targets, and emits the final Code
// attribute bytes — including the exception table and the
// LineNumberTable/LocalVariableTable attributes a caller supplies
// unmodified alongside the instruction stream (spec §4.E).
//
// Grounded on pkg/compiler.Compiler's emit-then-finalize shape (append
// instructions, then patch jump targets once every instruction has a
// fixed position) and format.go's Encode/Decode attribute framing,
// generalized from one Smalltalk bytecode's fixed 2-byte operand to
// Pack200's variable-length, per-form byte layout.
package codeattr

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/kristofer/pack200codec/pkg/codecerr"
	"github.com/kristofer/pack200codec/pkg/constpool"
	"github.com/kristofer/pack200codec/pkg/context"
	"github.com/kristofer/pack200codec/pkg/forms"
	"github.com/kristofer/pack200codec/pkg/operand"
)

// ExceptionTableEntry mirrors one row of the class-file exception_table
// array, passed through unmodified except that StartInstr/EndInstr/
// HandlerInstr are instruction indices here and converted to byte offsets
// (start_pc/end_pc/handler_pc) at Emit time
// (spec §4.E "exception table... provided by the caller").
type ExceptionTableEntry struct {
	StartInstr   int
	EndInstr     int
	HandlerInstr int
	CatchType    *constpool.Entry // nil means catch-all
}

// Attribute is an opaque nested attribute body (LineNumberTable,
// LocalVariableTable, or any other the caller wants carried through
// untouched); the assembler only needs its name and already-encoded
// bytes to frame it (spec §4.E).
type Attribute struct {
	Name string
	Body []byte
}

// Assembler builds one method's Code attribute bytes (spec §4.E).
type Assembler struct {
	pool   constpool.View
	ctx    *context.Tracker
	log    codecerr.Logger
	instrs []*forms.ByteCode
	formOf []*forms.Form

	offsets []int // offsets[i] = byte start of instruction i; offsets[len(instrs)] = total length

	MaxStack  int
	MaxLocals int
	Exceptions []ExceptionTableEntry
	Attributes []Attribute
}

// Option configures an Assembler at construction.
type Option func(*Assembler)

// WithLogger injects the optional diagnostic sink of spec §6. A nil
// logger (or omitting this option) leaves the assembler using
// codecerr.NopLogger, so logging never gates behavior.
func WithLogger(log codecerr.Logger) Option {
	return func(a *Assembler) {
		if log != nil {
			a.log = log
		}
	}
}

// New builds an Assembler for one method body. pool resolves constant-pool
// references; ctx supplies the current/super class names class-specific
// forms consult.
func New(pool constpool.View, ctx *context.Tracker, opts ...Option) *Assembler {
	a := &Assembler{pool: pool, ctx: ctx, log: codecerr.NopLogger{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Append is the assembler protocol's step 1 for one instruction: look up
// pack200Opcode's form, build a ByteCode, run SetOperands against sess,
// and append it to the instruction list.
func (a *Assembler) Append(pack200Opcode int, sess *operand.Session) error {
	bc, f, err := forms.New(pack200Opcode)
	if err != nil {
		return err
	}
	instrIndex := len(a.instrs)
	codeLengthSoFar := a.runningLength()
	if err := f.SetOperands(bc, sess, a.pool, a.ctx, codeLengthSoFar); err != nil {
		ce, ok := err.(*codecerr.CodecError)
		if !ok {
			return err
		}
		return ce.WithFrame(codecerr.Frame{InstrIndex: instrIndex, ByteOffset: codeLengthSoFar, Detail: f.Name})
	}
	a.log.Debugf("assembler: appended %s at instr %d (byte %d)", f.Name, instrIndex, codeLengthSoFar)
	a.instrs = append(a.instrs, bc)
	a.formOf = append(a.formOf, f)
	return nil
}

func (a *Assembler) runningLength() int {
	total := 0
	for _, bc := range a.instrs {
		total += bc.ByteLength()
	}
	return total
}

// computeOffsets is the assembler protocol's step 2: a single
// left-to-right pass filling offsets[i] = byte start of instruction i,
// with offsets[len(instrs)] the method's total byte length (spec §3
// Invariants, §4.E step 2).
func (a *Assembler) computeOffsets() {
	a.offsets = make([]int, len(a.instrs)+1)
	running := 0
	for i, bc := range a.instrs {
		a.offsets[i] = running
		bc.ByteOffset = running
		running += bc.ByteLength()
	}
	a.offsets[len(a.instrs)] = running
}

// fixUp is the assembler protocol's step 3: every instruction's form
// resolves its own symbolic targets against the now-fixed offsets table.
func (a *Assembler) fixUp() error {
	for i, bc := range a.instrs {
		f := a.formOf[i]
		if err := f.FixUpTargets(bc, i, a.offsets); err != nil {
			ce, ok := err.(*codecerr.CodecError)
			if !ok {
				return err
			}
			return ce.WithFrame(codecerr.Frame{InstrIndex: i, ByteOffset: a.offsets[i], Detail: f.Name})
		}
	}
	return nil
}

// Emit runs steps 2-4 of the assembler protocol and returns the
// concatenated Code attribute body: max_stack, max_locals, code length,
// code bytes, exception table, then the caller-supplied nested attributes
// (spec §4.E step 4).
func (a *Assembler) Emit() ([]byte, error) {
	a.computeOffsets()
	if err := a.fixUp(); err != nil {
		return nil, err
	}

	var code bytes.Buffer
	for i, bc := range a.instrs {
		if _, err := bc.Serialize(&code); err != nil {
			ce, ok := err.(*codecerr.CodecError)
			if !ok {
				return nil, err
			}
			return nil, ce.WithFrame(codecerr.Frame{InstrIndex: i, ByteOffset: a.offsets[i], Detail: a.formOf[i].Name})
		}
	}

	var out bytes.Buffer
	writeU2(&out, a.MaxStack)
	writeU2(&out, a.MaxLocals)
	writeU4(&out, code.Len())
	out.Write(code.Bytes())

	writeU2(&out, len(a.Exceptions))
	for _, exc := range a.Exceptions {
		writeU2(&out, a.offsets[exc.StartInstr])
		writeU2(&out, a.offsets[exc.EndInstr])
		writeU2(&out, a.offsets[exc.HandlerInstr])
		idx := 0
		if exc.CatchType != nil {
			idx = exc.CatchType.Index
		}
		writeU2(&out, idx)
	}

	writeU2(&out, len(a.Attributes))
	for _, attr := range a.Attributes {
		out.WriteString(attr.Name)
		out.WriteByte(0)
		writeU4(&out, len(attr.Body))
		out.Write(attr.Body)
	}

	a.log.Debugf("assembler: emitted %d instructions, %d code bytes", len(a.instrs), code.Len())
	return out.Bytes(), nil
}

// ByteCodeOffsets exposes the assembler's computed offsets table (valid
// only after Emit has run), for a caller building LineNumberTable entries
// keyed by instruction index.
func (a *Assembler) ByteCodeOffsets() []int {
	return a.offsets
}

// InstructionCount reports how many ByteCodes have been appended so far.
func (a *Assembler) InstructionCount() int {
	return len(a.instrs)
}

func writeU2(w io.Writer, v int) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	w.Write(b[:])
}

func writeU4(w io.Writer, v int) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.Write(b[:])
}
