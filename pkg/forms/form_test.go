package forms

import (
	"bytes"
	"testing"

	"github.com/kristofer/pack200codec/pkg/constpool"
)

func TestGetUnknownOpcode(t *testing.T) {
	if _, err := Get(999999); err == nil {
		t.Fatal("expected error for unregistered opcode")
	}
}

func TestByNameRoundTripsToOpcode(t *testing.T) {
	f, err := ByName("iadd")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	f2, err := Get(f.Pack200Opcode)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if f2.Name != "iadd" {
		t.Errorf("Get(f.Pack200Opcode).Name = %q, want iadd", f2.Name)
	}
}

func TestNoArgumentFormHasNoOperandWindow(t *testing.T) {
	f, err := ByName("return")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if f.HasOperands() {
		t.Error("return should have no operand window")
	}
	if f.FirstOperand != -1 || f.LastOperand != -1 {
		t.Errorf("FirstOperand/LastOperand = %d/%d, want -1/-1", f.FirstOperand, f.LastOperand)
	}
}

func TestLocalFormHasOperandWindow(t *testing.T) {
	f, err := ByName("iload")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if !f.HasOperands() {
		t.Fatal("iload should have an operand window")
	}
	if f.FirstOperand != 1 || f.LastOperand != 1 {
		t.Errorf("FirstOperand/LastOperand = %d/%d, want 1/1", f.FirstOperand, f.LastOperand)
	}
}

func TestFusedFormHasMultipleByteCodes(t *testing.T) {
	f, err := ByName("aload_0_getfield_this")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if !f.HasMultipleByteCodes() {
		t.Error("aload_0_getfield_this should report HasMultipleByteCodes")
	}
}

func TestByteCodeSerializeOverlaysNestedEntry(t *testing.T) {
	bc := &ByteCode{Rewrite: []byte{0x12, 0x00}}
	bc.SetNested(NestedPos{Offset: 1, Width: 1, Entry: &constpool.Entry{Index: 200}})
	var buf bytes.Buffer
	if _, err := bc.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if got := buf.Bytes(); got[1] != 200 {
		t.Errorf("serialized byte = %d, want 200", got[1])
	}
}

func TestByteCodeSerializeRejectsNarrowOverflow(t *testing.T) {
	bc := &ByteCode{Rewrite: []byte{0x12, 0x00}}
	bc.SetNested(NestedPos{Offset: 1, Width: 1, Entry: &constpool.Entry{Index: 300}})
	var buf bytes.Buffer
	if _, err := bc.Serialize(&buf); err == nil {
		t.Fatal("expected NarrowIndexOverflow for index 300 > 255")
	}
}
