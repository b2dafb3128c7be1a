package forms

import (
	"bytes"
	"testing"

	"github.com/kristofer/pack200codec/pkg/constpool"
	"github.com/kristofer/pack200codec/pkg/context"
	"github.com/kristofer/pack200codec/pkg/operand"
)

func newTestEnv() (constpool.View, *context.Tracker) {
	pool := constpool.New(0)
	pool.Append(&constpool.Entry{ID: constpool.STRING, Value: "hi"})
	return pool, context.New("Foo", "Bar")
}

// TestGotoFixUpForwardBranch mirrors the worked forward-branch example:
// goto at instruction index 1 targeting instruction index 3 (token 2).
// offsets are seeded the way the assembler would compute them for
// {iload_0(1 byte), goto(3 bytes), nop(1 byte), nop(1 byte), return(1 byte)}.
func TestGotoFixUpForwardBranch(t *testing.T) {
	f, err := ByName("goto")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	sess := operand.NewSession(map[operand.Kind][]int{operand.KindLabel: {2}})
	pool, ctx := newTestEnv()
	bc := newByteCode(f, f.Pack200Opcode)
	if err := f.SetOperands(bc, sess, pool, ctx, 1); err != nil {
		t.Fatalf("SetOperands: %v", err)
	}
	if len(bc.Targets) != 1 || bc.Targets[0] != 2 {
		t.Fatalf("Targets = %v, want [2]", bc.Targets)
	}

	offsets := []int{0, 1, 4, 5, 6, 7}
	if err := f.FixUpTargets(bc, 1, offsets); err != nil {
		t.Fatalf("FixUpTargets: %v", err)
	}
	var buf bytes.Buffer
	if _, err := bc.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got := buf.Bytes()
	delta := int16(got[1])<<8 | int16(got[2])
	if delta != 4 {
		t.Errorf("branch delta = %d, want 4", delta)
	}
}

func TestGotoFixUpDanglingLabel(t *testing.T) {
	f, _ := ByName("goto")
	sess := operand.NewSession(map[operand.Kind][]int{operand.KindLabel: {100}})
	pool, ctx := newTestEnv()
	bc := newByteCode(f, f.Pack200Opcode)
	if err := f.SetOperands(bc, sess, pool, ctx, 0); err != nil {
		t.Fatalf("SetOperands: %v", err)
	}
	offsets := []int{0, 3}
	if err := f.FixUpTargets(bc, 0, offsets); err == nil {
		t.Fatal("expected DanglingLabel error for out-of-range target")
	}
}

func TestTableSwitchLayout(t *testing.T) {
	f, err := ByName("tableswitch")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	sess := operand.NewSession(map[operand.Kind][]int{
		operand.KindCaseCount: {3},
		operand.KindLabel:     {10, 20, 21, 22},
		operand.KindCaseValue: {0},
	})
	pool, ctx := newTestEnv()
	bc := newByteCode(f, f.Pack200Opcode)
	// code_length_so_far = 1 so padding = 3 - (1 % 4) = 2
	if err := f.SetOperands(bc, sess, pool, ctx, 1); err != nil {
		t.Fatalf("SetOperands: %v", err)
	}
	wantLen := 1 + 2 + 4 + 4 + 4 + 4*3
	if got := bc.ByteLength(); got != wantLen {
		t.Fatalf("ByteLength() = %d, want %d", got, wantLen)
	}
	if bc.Rewrite[0] != 0xAA {
		t.Errorf("opcode byte = %#x, want 0xAA", bc.Rewrite[0])
	}
	if len(bc.Targets) != 4 {
		t.Fatalf("Targets = %v, want 4 entries (default + 3 cases)", bc.Targets)
	}
}

func TestStringRefResolvesThroughPool(t *testing.T) {
	f, err := ByName("sldc")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	sess := operand.NewSession(map[operand.Kind][]int{operand.KindStringRef: {1}})
	pool, ctx := newTestEnv()
	bc := newByteCode(f, f.Pack200Opcode)
	if err := f.SetOperands(bc, sess, pool, ctx, 0); err != nil {
		t.Fatalf("SetOperands: %v", err)
	}
	if len(bc.Nested) != 1 || bc.Nested[0].Entry.Value != "hi" {
		t.Fatalf("Nested = %+v, want one entry resolving to %q", bc.Nested, "hi")
	}
}

func TestIMethodRefPostFixesArgCount(t *testing.T) {
	f, err := ByName("invokeinterface")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	pool := constpool.New(0)
	pool.Append(&constpool.Entry{ID: constpool.IMETHOD, Descriptor: "(IJ)V"})
	ctx := context.New("Foo", "Bar")
	sess := operand.NewSession(map[operand.Kind][]int{operand.KindIMethodRef: {1}})
	bc := newByteCode(f, f.Pack200Opcode)
	if err := f.SetOperands(bc, sess, pool, ctx, 0); err != nil {
		t.Fatalf("SetOperands: %v", err)
	}
	// receiver(1) + int(1) + long(2) = 4
	if bc.Rewrite[3] != 4 {
		t.Errorf("arg-count byte = %d, want 4", bc.Rewrite[3])
	}
}

func TestWideIincBuildsSixByteInstruction(t *testing.T) {
	f, err := ByName("wide")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	sess := operand.NewSession(map[operand.Kind][]int{
		operand.KindWideOpcode: {0x84}, // iinc
		operand.KindLocal:      {300},
		operand.KindShortImm:   {-5},
	})
	pool, ctx := newTestEnv()
	bc := newByteCode(f, f.Pack200Opcode)
	if err := f.SetOperands(bc, sess, pool, ctx, 0); err != nil {
		t.Fatalf("SetOperands: %v", err)
	}
	if len(bc.Rewrite) != 6 {
		t.Fatalf("wide iinc length = %d, want 6", len(bc.Rewrite))
	}
	if bc.Rewrite[0] != 0xC4 || bc.Rewrite[1] != 0x84 {
		t.Errorf("wide prefix bytes = %#x %#x, want 0xc4 0x84", bc.Rewrite[0], bc.Rewrite[1])
	}
}
