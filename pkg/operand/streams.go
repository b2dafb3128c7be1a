// Package operand implements Component A of the codec: ordered token
// streams that the ByteCode Form Registry (pkg/forms) pulls operand values
// from during decode, and that the Method-Insn Recorder (pkg/recorder)
// appends to during encode.
//
// Each stream is a plain, finite sequence of integers with a single
// forward-moving cursor, the way pkg/lexer's Lexer advances a read
// position over a rune sequence and never backs up past it. There is no
// cross-stream ordering guarantee other than "each form consumes a
// form-specific tuple in a fixed order" (spec §4.A).
package operand

import "github.com/kristofer/pack200codec/pkg/codecerr"

// Kind names one of the sixteen-plus operand-token streams a method
// decoding session owns.
type Kind string

const (
	KindLocal       Kind = "local"
	KindLabel       Kind = "label"
	KindByteImm     Kind = "byte_imm"
	KindShortImm    Kind = "short_imm"
	KindCaseCount   Kind = "case_count"
	KindCaseValue   Kind = "case_value"
	KindStringRef   Kind = "string_ref"
	KindIntRef      Kind = "int_ref"
	KindFloatRef    Kind = "float_ref"
	KindLongRef     Kind = "long_ref"
	KindDoubleRef   Kind = "double_ref"
	KindClassRef    Kind = "class_ref"
	KindFieldRef    Kind = "field_ref"
	KindMethodRef   Kind = "method_ref"
	KindIMethodRef  Kind = "imethod_ref"
	KindThisField   Kind = "this_field_ref"
	KindThisMethod  Kind = "this_method_ref"
	KindSuperField  Kind = "super_field_ref"
	KindSuperMethod Kind = "super_method_ref"
	KindInitRef     Kind = "init_ref"
	KindWideOpcode  Kind = "wide_opcode"
	KindNewClass    Kind = "new_class_index"
)

// allKinds lists every stream a session provisions, even when a particular
// method never touches some of them. Kept as a literal slice rather than a
// derived enumeration so the set is easy to audit against spec §4.A.
var allKinds = []Kind{
	KindLocal, KindLabel, KindByteImm, KindShortImm, KindCaseCount, KindCaseValue,
	KindStringRef, KindIntRef, KindFloatRef, KindLongRef, KindDoubleRef, KindClassRef,
	KindFieldRef, KindMethodRef, KindIMethodRef, KindThisField, KindThisMethod,
	KindSuperField, KindSuperMethod, KindInitRef, KindWideOpcode, KindNewClass,
}

// Stream is one finite, forward-only cursor over a slice of integers.
type Stream struct {
	kind   Kind
	values []int
	pos    int
}

// NewStream wraps values as a Stream of the given kind. The slice is not
// copied; callers should not mutate it after handing it to a Stream.
func NewStream(kind Kind, values []int) *Stream {
	return &Stream{kind: kind, values: values}
}

// Kind reports which named stream this is.
func (s *Stream) Kind() Kind { return s.kind }

// Len reports the total number of values, consumed or not.
func (s *Stream) Len() int { return len(s.values) }

// Remaining reports how many values are left to take.
func (s *Stream) Remaining() int { return len(s.values) - s.pos }

// Next returns the next value and advances the cursor. Over-read fails
// with codecerr.StreamExhausted (spec §4.A).
func (s *Stream) Next() (int, error) {
	if s.pos >= len(s.values) {
		return 0, codecerr.New(codecerr.StreamExhausted,
			"stream %q exhausted at position %d (len %d)", s.kind, s.pos, len(s.values))
	}
	v := s.values[s.pos]
	s.pos++
	return v, nil
}

// NextN takes n values in order, failing on the first exhausted read.
func (s *Stream) NextN(n int) ([]int, error) {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		v, err := s.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Session owns every named stream for one method's decode (or encode)
// pass. Streams are created per method, consumed sequentially; cursors
// never move backward (spec §3 Lifecycle).
type Session struct {
	streams map[Kind]*Stream
}

// NewSession builds a Session from a map of Kind to its token slice. Kinds
// absent from values get an empty Stream, so forms that never touch an
// unused stream can still ask for it without a nil-map panic.
func NewSession(values map[Kind][]int) *Session {
	s := &Session{streams: make(map[Kind]*Stream, len(allKinds))}
	for _, k := range allKinds {
		s.streams[k] = NewStream(k, values[k])
	}
	return s
}

// Stream returns the named stream. Every Kind in allKinds is always
// present, so this never returns nil for a valid Kind.
func (s *Session) Stream(kind Kind) *Stream { return s.streams[kind] }

// Builder accumulates tokens for the encode direction (Component F appends
// to these; a finished Builder's Values() feeds NewSession for a
// round-trip test, or is handed to an external band encoder).
type Builder struct {
	values map[Kind][]int
}

// NewBuilder returns an empty token-stream builder.
func NewBuilder() *Builder {
	return &Builder{values: make(map[Kind][]int)}
}

// Push appends one token to the named stream, returning its 0-based index
// within that stream (mirroring compiler.Compiler.addConstant's
// append-and-return-index shape).
func (b *Builder) Push(kind Kind, v int) int {
	b.values[kind] = append(b.values[kind], v)
	return len(b.values[kind]) - 1
}

// PushN appends multiple tokens to the named stream in order.
func (b *Builder) PushN(kind Kind, vs ...int) {
	b.values[kind] = append(b.values[kind], vs...)
}

// Values returns the accumulated token map, suitable for NewSession.
func (b *Builder) Values() map[Kind][]int {
	out := make(map[Kind][]int, len(b.values))
	for k, v := range b.values {
		cp := make([]int, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
