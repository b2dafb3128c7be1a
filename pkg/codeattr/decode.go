package codeattr

import (
	"fmt"
	"strings"

	"github.com/kristofer/pack200codec/pkg/constpool"
	"github.com/kristofer/pack200codec/pkg/context"
	"github.com/kristofer/pack200codec/pkg/jvmop"
	"github.com/kristofer/pack200codec/pkg/operand"
)

// DecodeMethod is the core's inbound entry point named in spec §6:
// `decode_method(operand_streams, class_constant_pool_view, context) →
// serialized Code bytes`. pack200Opcodes is the method's instruction
// stream in Pack200-opcode order, one entry per ByteCode to build.
func DecodeMethod(pack200Opcodes []int, sess *operand.Session, pool constpool.View, ctx *context.Tracker, opts ...Option) ([]byte, error) {
	asm := New(pool, ctx, opts...)
	for _, op := range pack200Opcodes {
		if err := asm.Append(op, sess); err != nil {
			return nil, err
		}
	}
	return asm.Emit()
}

// Disassemble renders a decoded Code attribute's instructions as a
// column-aligned textual dump (byte offset, real opcode mnemonic,
// resolved operands) for debugging — never consulted by the codec path
// itself (spec SPEC_FULL.md "Disassemble convenience").
func Disassemble(asm *Assembler) string {
	var b strings.Builder
	for i, bc := range asm.instrs {
		f := asm.formOf[i]
		fmt.Fprintf(&b, "$%04X  %-24s", bc.ByteOffset, jvmop.Name(bc.RealOpcode))
		for _, np := range bc.Nested {
			fmt.Fprintf(&b, " #%d", np.Entry.Index)
		}
		for _, t := range bc.Targets {
			fmt.Fprintf(&b, " ->%d", i+t)
		}
		fmt.Fprintf(&b, "  ; %s\n", f.Name)
	}
	return b.String()
}
