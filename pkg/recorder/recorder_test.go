package recorder

import (
	"testing"

	"github.com/kristofer/pack200codec/pkg/label"
	"github.com/kristofer/pack200codec/pkg/operand"
)

func TestRecordNoArgSequence(t *testing.T) {
	r := New()
	r.RecordLocal("iload_0", 0)
	r.RecordLocal("iload_0", 0) // not aload_0, so no fusion to consider
	r.RecordNoArg("iadd")
	r.RecordNoArg("ireturn")
	opcodes, _, err := r.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	want := []string{"iload_0", "iload_0", "iadd", "ireturn"}
	if len(opcodes) != len(want) {
		t.Fatalf("opcodes = %v, want %v", opcodes, want)
	}
	for i := range want {
		if opcodes[i] != want[i] {
			t.Errorf("opcodes[%d] = %q, want %q", i, opcodes[i], want[i])
		}
	}
}

func TestAload0FusesWithFieldAccess(t *testing.T) {
	r := New()
	r.RecordLocal("aload_0", 0)
	r.RecordFieldAccess(true, ClassCurrent, 5)
	opcodes, tokens, err := r.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(opcodes) != 1 || opcodes[0] != "aload_0_getfield_this" {
		t.Fatalf("opcodes = %v, want [aload_0_getfield_this]", opcodes)
	}
	if got := tokens[operand.KindThisField]; len(got) != 1 || got[0] != 5 {
		t.Errorf("this_field_ref tokens = %v, want [5]", got)
	}
}

func TestAload0DoesNotFuseWithOrdinaryReceiver(t *testing.T) {
	r := New()
	r.RecordLocal("aload_0", 0)
	r.RecordFieldAccess(true, ClassOrdinary, 5)
	opcodes, _, err := r.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	want := []string{"aload_0", "getfield"}
	if len(opcodes) != 2 || opcodes[0] != want[0] || opcodes[1] != want[1] {
		t.Fatalf("opcodes = %v, want %v", opcodes, want)
	}
}

func TestGotoLabelResolvesToForwardDelta(t *testing.T) {
	r := New()
	target := r.NewLabel()
	r.RecordLabel("goto", target) // instr 0
	r.RecordNoArg("nop")          // instr 1
	r.PlaceLabel(target)          // target = instr 2
	r.RecordNoArg("return")       // instr 2
	_, tokens, err := r.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	got := tokens[operand.KindLabel]
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("label tokens = %v, want [2] (target 2 - src 0)", got)
	}
}

func TestLookupSwitchSortsByMatch(t *testing.T) {
	r := New()
	def := r.NewLabel()
	c1 := r.NewLabel()
	c2 := r.NewLabel()
	r.RecordLookupSwitch(def, []int{30, 10}, []label.Label{c1, c2})
	r.PlaceLabel(def)
	r.PlaceLabel(c1)
	r.PlaceLabel(c2)
	_, tokens, err := r.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	matches := tokens[operand.KindCaseValue]
	if len(matches) != 2 || matches[0] != 10 || matches[1] != 30 {
		t.Errorf("case values = %v, want [10 30] (sorted ascending)", matches)
	}
}
