// Package codecerr defines the error taxonomy for the Pack200 codec core.
//
// Every failure the core can raise is fatal to the method being decoded or
// encoded; the core never retries and never logs and continues with partial
// state. Callers decide whether to abandon one method, one class, or the
// whole segment.
package codecerr

import (
	"fmt"
	"strings"
)

// Kind identifies which member of the error taxonomy a CodecError belongs to.
type Kind int

const (
	// StreamExhausted: an operand stream had no next value when a form
	// demanded one.
	StreamExhausted Kind = iota
	// UnknownPoolEntry: a constant-pool index was out of range or the
	// pool id was unsupported.
	UnknownPoolEntry
	// UnsupportedOpcode: opcode 186 ("xxxunusedxxx") or an unregistered
	// opcode was observed.
	UnsupportedOpcode
	// DanglingLabel: a label target exceeds the instruction count.
	DanglingLabel
	// AlignmentError: switch padding computed a negative value.
	AlignmentError
	// NarrowIndexOverflow: a narrow constant-pool ref referred to an
	// index greater than 255.
	NarrowIndexOverflow
	// AttributeBodyMalformed: surfaced unchanged from the attribute
	// layout parser, a boundary collaborator outside the core.
	AttributeBodyMalformed
)

func (k Kind) String() string {
	switch k {
	case StreamExhausted:
		return "StreamExhausted"
	case UnknownPoolEntry:
		return "UnknownPoolEntry"
	case UnsupportedOpcode:
		return "UnsupportedOpcode"
	case DanglingLabel:
		return "DanglingLabel"
	case AlignmentError:
		return "AlignmentError"
	case NarrowIndexOverflow:
		return "NarrowIndexOverflow"
	case AttributeBodyMalformed:
		return "AttributeBodyMalformed"
	default:
		return "Unknown"
	}
}

// Frame captures where, in terms of method-local position, a CodecError
// occurred. InstrIndex is the 0-based index of the ByteCode being built or
// consumed; ByteOffset is the instruction's byte start (the running code
// length when the error arose before the offset pass of §4.E step 2), and
// a negative ByteOffset is left out of Error().
type Frame struct {
	InstrIndex int
	ByteOffset int
	Detail     string
}

// CodecError is the concrete error type raised by the codec core. It
// implements error and optionally carries a trail of Frames, innermost
// first, the way vm.RuntimeError carries a call-stack trace.
type CodecError struct {
	Kind    Kind
	Message string
	Trace   []Frame
}

func (e *CodecError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	for _, f := range e.Trace {
		b.WriteString(fmt.Sprintf("\n  at instr[%d]", f.InstrIndex))
		if f.ByteOffset >= 0 {
			b.WriteString(fmt.Sprintf(" (byte offset %d)", f.ByteOffset))
		}
		if f.Detail != "" {
			b.WriteString(": " + f.Detail)
		}
	}
	return b.String()
}

// New builds a CodecError with no trace yet attached.
func New(kind Kind, format string, args ...interface{}) *CodecError {
	return &CodecError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithFrame returns a copy of e with an additional outermost frame,
// appended after the frames already on the trace. It is
// used by callers one layer up the stack (e.g. the assembler wrapping a
// form's error with the instruction index it was building) to accumulate
// a trace without the core ever needing a real call stack.
func (e *CodecError) WithFrame(f Frame) *CodecError {
	cp := *e
	cp.Trace = append(append([]Frame{}, e.Trace...), f)
	return &cp
}

// Is reports whether err is a *CodecError of the given kind, so callers can
// use errors.Is-style dispatch without importing this package's internals.
func Is(err error, kind Kind) bool {
	ce, ok := err.(*CodecError)
	return ok && ce.Kind == kind
}

// Invariant panics with a distinguishable message for internal-only
// invariant breaks that are not part of the input-error taxonomy above —
// e.g. a resolved constant-pool entry that later proves structurally
// impossible for the form that requested it. See SPEC_FULL.md Open
// Question 2 decision: these are programmer/data-corruption bugs, not
// ordinary malformed input, and are never returned as an error value.
func Invariant(format string, args ...interface{}) {
	panic("pack200codec: invariant violation: " + fmt.Sprintf(format, args...))
}

// Logger is the optional diagnostic sink of spec §6: a sink for
// diagnostic strings that must not affect semantics. A *logrus.Logger (or
// any FieldLogger) satisfies this narrow interface; core code depends
// only on it, never on logrus directly, so the hook stays swappable and
// optional.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// NopLogger discards everything. It is the default when no Logger is
// supplied, so logging never gates behavior.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...interface{}) {}
func (NopLogger) Warnf(string, ...interface{})  {}
