package operand

import "testing"

func TestStreamNextAdvancesAndExhausts(t *testing.T) {
	s := NewStream(KindLocal, []int{1, 2, 3})
	for _, want := range []int{1, 2, 3} {
		got, err := s.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got != want {
			t.Errorf("Next() = %d, want %d", got, want)
		}
	}
	if _, err := s.Next(); err == nil {
		t.Fatal("expected StreamExhausted, got nil error")
	}
}

func TestSessionProvisionsEveryKind(t *testing.T) {
	sess := NewSession(map[Kind][]int{KindByteImm: {7}})
	if v, err := sess.Stream(KindByteImm).Next(); err != nil || v != 7 {
		t.Errorf("KindByteImm stream = %d, %v; want 7, nil", v, err)
	}
	if sess.Stream(KindLabel) == nil {
		t.Fatal("unused kind should still have a provisioned stream")
	}
	if sess.Stream(KindLabel).Remaining() != 0 {
		t.Errorf("unused stream should be empty, got %d remaining", sess.Stream(KindLabel).Remaining())
	}
}

func TestBuilderPushReturnsIndexAndValues(t *testing.T) {
	b := NewBuilder()
	if idx := b.Push(KindClassRef, 10); idx != 0 {
		t.Errorf("first Push index = %d, want 0", idx)
	}
	if idx := b.Push(KindClassRef, 20); idx != 1 {
		t.Errorf("second Push index = %d, want 1", idx)
	}
	values := b.Values()
	if got := values[KindClassRef]; len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Errorf("Values()[KindClassRef] = %v, want [10 20]", got)
	}
}
