// Package recorder implements Component F: the Method-Insn Recorder, the
// encode-direction counterpart to pkg/forms' decode-direction SetOperands.
// It receives high-level instructions one at a time, classifies each into
// a Pack200 opcode, and pushes the operand tokens that opcode's form will
// later consume — including the one-instruction lookahead that fuses
// `aload_0` with the field/method access that follows it (spec §4.F).
//
// Grounded on pkg/compiler.Compiler.compileExpression's dispatch-by-type
// switch and its emit/addConstant append-and-index helpers, generalized
// from one flat Smalltalk opcode set to Pack200's form-classification
// rules and its fused pseudo-opcodes.
package recorder

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/kristofer/pack200codec/pkg/label"
	"github.com/kristofer/pack200codec/pkg/operand"
)

// ClassKind says which context (if any) a field/method access's receiver
// resolves against, the input the recorder's fusion rule needs to decide
// between a plain FieldRef/MethodRef and a fused this/super form.
type ClassKind int

const (
	ClassOrdinary ClassKind = iota // receiver is not known to be current/super class
	ClassCurrent
	ClassSuper
)

// Recorder accumulates the Pack200 opcode list and operand tokens for one
// method body being encoded.
type Recorder struct {
	opcodes []string
	tokens  *operand.Builder
	labels  *label.Allocator

	pending    *pendingAload0
	branchSrcs []branchSrc // one per emitted label-bearing opcode, for end-of-method token translation
}

// pendingAload0 buffers a bare `aload_0` until the next instruction
// arrives, so the recorder can decide whether to fuse it (spec §4.F
// "one-instruction lookahead buffer").
type pendingAload0 struct{}

// branchSrc remembers, for one already-appended label-bearing opcode, the
// instruction index it lives at and the label(s) whose token must be
// resolved relative to it once every instruction has an index.
type branchSrc struct {
	instrIndex int
	targets    []label.Label
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{tokens: operand.NewBuilder(), labels: label.NewAllocator()}
}

// NewLabel allocates a fresh, unplaced label a later branch can target.
func (r *Recorder) NewLabel() label.Label {
	return r.labels.New()
}

// PlaceLabel marks lbl's target as "the next instruction this Recorder
// emits" (spec §4.H "resolved to an instruction index upon placement").
func (r *Recorder) PlaceLabel(lbl label.Label) {
	r.labels.Place(lbl, len(r.opcodes)+pendingCount(r))
}

func pendingCount(r *Recorder) int {
	if r.pending != nil {
		return 1
	}
	return 0
}

// RecordNoArg records a no-operand opcode (dup, pop, iadd, ireturn, ...).
func (r *Recorder) RecordNoArg(opcodeName string) {
	r.flushPending()
	r.emit(opcodeName)
}

// RecordLocal records a load/store/ret whose operand is a local slot.
// Recording `aload_0` specifically does not emit immediately: it is
// buffered so the next instruction can be checked for fusion.
func (r *Recorder) RecordLocal(opcodeName string, slot int) {
	if opcodeName == "aload_0" && slot == 0 {
		r.flushPending()
		r.pending = &pendingAload0{}
		return
	}
	r.flushPending()
	// xload_N/xstore_N carry their slot in the opcode and take no token.
	if !strings.Contains(opcodeName, "_") {
		r.tokens.Push(operand.KindLocal, slot)
	}
	r.emit(opcodeName)
}

// RecordByte records a form whose operand is one immediate byte
// (bipush, newarray).
func (r *Recorder) RecordByte(opcodeName string, v int) {
	r.flushPending()
	r.tokens.Push(operand.KindByteImm, v)
	r.emit(opcodeName)
}

// RecordShort records sipush.
func (r *Recorder) RecordShort(v int) {
	r.flushPending()
	r.tokens.Push(operand.KindShortImm, v)
	r.emit("sipush")
}

// RecordIinc records iinc's (local, constant) pair.
func (r *Recorder) RecordIinc(local, constant int) {
	r.flushPending()
	r.tokens.Push(operand.KindLocal, local)
	r.tokens.Push(operand.KindByteImm, constant)
	r.emit("iinc")
}

// RecordRef records a literal or plain (non class-specific) reference
// form — ldc family, new/anewarray/checkcast/instanceof, getstatic/
// putstatic, invokestatic — by pushing tok onto the stream kind matching
// opcodeName's form.
func (r *Recorder) RecordRef(opcodeName string, kind operand.Kind, tok int) {
	r.flushPending()
	r.tokens.Push(kind, tok)
	r.emit(opcodeName)
}

// RecordFieldAccess records getfield (getter true) or putfield (getter
// false). An access against the current or super class is a fusion
// candidate only if a buffered aload_0 immediately precedes it; this
// method assumes the caller has already called RecordLocal("aload_0", 0)
// for a receiver load, and resolves the fusion rule here (spec §4.F
// first bullet).
func (r *Recorder) RecordFieldAccess(getter bool, class ClassKind, tok int) {
	if r.pending != nil && class != ClassOrdinary {
		r.pending = nil
		name, kind := fusedFieldForm(getter, class)
		r.tokens.Push(kind, tok)
		r.emit(name)
		return
	}
	r.flushPending()
	name := "getfield"
	if !getter {
		name = "putfield"
	}
	r.tokens.Push(operand.KindFieldRef, tok)
	r.emit(name)
}

// RecordMethodInvoke records invokevirtual/invokespecial. Like
// RecordFieldAccess, a preceding buffered aload_0 against the current or
// super class fuses into the pseudo-opcode family.
func (r *Recorder) RecordMethodInvoke(opcodeName string, class ClassKind, tok int) {
	if r.pending != nil && class != ClassOrdinary && (opcodeName == "invokevirtual" || opcodeName == "invokespecial") {
		r.pending = nil
		name, kind := fusedMethodForm(opcodeName, class)
		r.tokens.Push(kind, tok)
		r.emit(name)
		return
	}
	r.flushPending()
	r.tokens.Push(operand.KindMethodRef, tok)
	r.emit(opcodeName)
}

// RecordInitInvoke records an invokespecial <init> call: this_init,
// super_init, or new_init depending on the context the caller has
// already established via the Context Tracker (outside this package's
// concern; the caller picks the right opcode name).
func (r *Recorder) RecordInitInvoke(opcodeName string, tok int) {
	r.flushPending()
	r.tokens.Push(operand.KindInitRef, tok)
	r.emit(opcodeName)
}

// RecordLabel records a branch (goto/jsr/if*/ifnull/ifnonnull/goto_w/
// jsr_w) targeting lbl.
func (r *Recorder) RecordLabel(opcodeName string, lbl label.Label) {
	r.flushPending()
	idx := len(r.opcodes)
	r.branchSrcs = append(r.branchSrcs, branchSrc{instrIndex: idx, targets: []label.Label{lbl}})
	r.emit(opcodeName)
}

// RecordTableSwitch records a tableswitch: low is the lowest case value,
// caseLabels[i] is the target for value low+i.
func (r *Recorder) RecordTableSwitch(defaultLabel label.Label, low int, caseLabels []label.Label) {
	r.flushPending()
	idx := len(r.opcodes)
	r.tokens.Push(operand.KindCaseCount, len(caseLabels))
	r.tokens.Push(operand.KindCaseValue, low)
	targets := append([]label.Label{defaultLabel}, caseLabels...)
	r.branchSrcs = append(r.branchSrcs, branchSrc{instrIndex: idx, targets: targets})
	r.emit("tableswitch")
}

// RecordLookupSwitch records a lookupswitch. matches and caseLabels must
// be parallel slices; they are sorted together by ascending match value
// before any tokens are pushed (spec §9 Open Question 1 decision: a
// conformant encoder emits strictly ascending match order even though
// the decode path accepts any order).
func (r *Recorder) RecordLookupSwitch(defaultLabel label.Label, matches []int, caseLabels []label.Label) {
	r.flushPending()
	idx := len(r.opcodes)

	pairs := make([]lookupPair, len(matches))
	for i := range matches {
		pairs[i] = lookupPair{match: matches[i], target: caseLabels[i]}
	}
	slices.SortFunc(pairs, func(a, b lookupPair) int { return a.match - b.match })

	r.tokens.Push(operand.KindCaseCount, len(pairs))
	for _, p := range pairs {
		r.tokens.Push(operand.KindCaseValue, p.match)
	}
	targets := make([]label.Label, 0, len(pairs)+1)
	targets = append(targets, defaultLabel)
	for _, p := range pairs {
		targets = append(targets, p.target)
	}
	r.branchSrcs = append(r.branchSrcs, branchSrc{instrIndex: idx, targets: targets})
	r.emit("lookupswitch")
}

type lookupPair struct {
	match  int
	target label.Label
}

// RecordWide records a wide-prefixed local access or iinc.
// innerOpcodeValue is the real opcode's value (e.g. 0x15 for iload, 0x84
// for iinc); when isIinc is true, constant is recorded as iinc's
// increment (it is ignored otherwise).
func (r *Recorder) RecordWide(innerOpcodeValue, local int, isIinc bool, constant int) {
	r.flushPending()
	r.tokens.Push(operand.KindWideOpcode, innerOpcodeValue)
	r.tokens.Push(operand.KindLocal, local)
	if isIinc {
		r.tokens.Push(operand.KindShortImm, constant)
	}
	r.emit("wide")
}

// RecordMultiANewArray records multianewarray's (class ref, dims) pair.
func (r *Recorder) RecordMultiANewArray(classRefTok, dims int) {
	r.flushPending()
	r.tokens.Push(operand.KindClassRef, classRefTok)
	r.tokens.Push(operand.KindByteImm, dims)
	r.emit("multianewarray")
}

// flushPending emits a bare, unfused aload_0 if one is buffered — called
// at the start of every Record* method so a lookahead that turns out not
// to fuse still produces the plain instruction (spec §4.F).
func (r *Recorder) flushPending() {
	if r.pending == nil {
		return
	}
	r.pending = nil
	r.emit("aload_0")
}

func (r *Recorder) emit(opcodeName string) {
	r.opcodes = append(r.opcodes, opcodeName)
}

// Finish flushes any trailing buffered aload_0, translates every recorded
// label target into the `token = target_instr_index - src_instr_index`
// form pkg/forms' Label/TableSwitch/LookupSwitch variants push onto the
// label operand stream, and returns the Pack200 opcode list plus the
// accumulated token streams, ready for pkg/codeattr.DecodeMethod-shaped
// consumption on a round trip.
func (r *Recorder) Finish() ([]string, map[operand.Kind][]int, error) {
	r.flushPending()
	instrCount := len(r.opcodes)
	for _, src := range r.branchSrcs {
		for _, t := range src.targets {
			targetIdx, err := r.labels.InstrIndex(t, instrCount)
			if err != nil {
				return nil, nil, err
			}
			r.tokens.Push(operand.KindLabel, targetIdx-src.instrIndex)
		}
	}
	return r.opcodes, r.tokens.Values(), nil
}

func fusedFieldForm(getter bool, class ClassKind) (string, operand.Kind) {
	if class == ClassCurrent {
		if getter {
			return "aload_0_getfield_this", operand.KindThisField
		}
		return "aload_0_putfield_this", operand.KindThisField
	}
	if getter {
		return "aload_0_getfield_super", operand.KindSuperField
	}
	return "aload_0_putfield_super", operand.KindSuperField
}

func fusedMethodForm(opcodeName string, class ClassKind) (string, operand.Kind) {
	if opcodeName == "invokespecial" {
		if class == ClassCurrent {
			return "invokespecial_this", operand.KindThisMethod
		}
		return "invokespecial_super", operand.KindSuperMethod
	}
	if class == ClassCurrent {
		return "invokevirtual_this", operand.KindThisMethod
	}
	return "invokevirtual_super", operand.KindSuperMethod
}
