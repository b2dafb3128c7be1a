package codeattr

import (
	"testing"

	"github.com/kristofer/pack200codec/pkg/constpool"
	"github.com/kristofer/pack200codec/pkg/context"
	"github.com/kristofer/pack200codec/pkg/forms"
	"github.com/kristofer/pack200codec/pkg/operand"
)

func opcodeFor(t *testing.T, name string) int {
	t.Helper()
	f, err := forms.ByName(name)
	if err != nil {
		t.Fatalf("ByName(%q): %v", name, err)
	}
	return f.Pack200Opcode
}

func TestEmitNoArgumentSequence(t *testing.T) {
	pool := constpool.New(0)
	ctx := context.New("Foo", "java/lang/Object")
	asm := New(pool, ctx)
	sess := operand.NewSession(nil)

	for _, name := range []string{"iload_0", "iconst_1", "iadd", "ireturn"} {
		if err := asm.Append(opcodeFor(t, name), sess); err != nil {
			t.Fatalf("Append(%q): %v", name, err)
		}
	}
	out, err := asm.Emit()
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	// max_stack(2) max_locals(2) code_length(4) code bytes(4) + empty
	// exception table(2) + empty attributes(2)
	wantLen := 2 + 2 + 4 + 4 + 2 + 2
	if len(out) != wantLen {
		t.Fatalf("Emit length = %d, want %d", len(out), wantLen)
	}
	code := out[8 : 8+4]
	want := []byte{0x1a, 0x04, 0x60, 0xac} // iload_0 iconst_1 iadd ireturn
	for i, b := range want {
		if code[i] != b {
			t.Errorf("code[%d] = %#x, want %#x", i, code[i], b)
		}
	}
}

func TestEmitComputesOffsetsMonotonically(t *testing.T) {
	pool := constpool.New(0)
	ctx := context.New("Foo", "java/lang/Object")
	asm := New(pool, ctx)
	sess := operand.NewSession(map[operand.Kind][]int{operand.KindByteImm: {5}})

	if err := asm.Append(opcodeFor(t, "bipush"), sess); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := asm.Append(opcodeFor(t, "return"), sess); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := asm.Emit(); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	offsets := asm.ByteCodeOffsets()
	if offsets[0] != 0 || offsets[1] != 2 || offsets[2] != 3 {
		t.Errorf("offsets = %v, want [0 2 3]", offsets)
	}
}

func TestEmitFailsOnDanglingLabel(t *testing.T) {
	pool := constpool.New(0)
	ctx := context.New("Foo", "java/lang/Object")
	asm := New(pool, ctx)
	sess := operand.NewSession(map[operand.Kind][]int{operand.KindLabel: {50}})

	if err := asm.Append(opcodeFor(t, "goto"), sess); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := asm.Emit(); err == nil {
		t.Fatal("expected DanglingLabel error from Emit")
	}
}
