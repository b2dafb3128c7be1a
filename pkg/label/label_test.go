package label

import "testing"

func TestPlaceThenInstrIndex(t *testing.T) {
	a := NewAllocator()
	lbl := a.New()
	a.Place(lbl, 3)
	idx, err := a.InstrIndex(lbl, 10)
	if err != nil {
		t.Fatalf("InstrIndex: %v", err)
	}
	if idx != 3 {
		t.Errorf("InstrIndex() = %d, want 3", idx)
	}
}

func TestUnplacedLabelIsDangling(t *testing.T) {
	a := NewAllocator()
	lbl := a.New()
	if _, err := a.InstrIndex(lbl, 10); err == nil {
		t.Fatal("expected DanglingLabel for an unplaced label")
	}
}

func TestIDRoundTrip(t *testing.T) {
	a := NewAllocator()
	lbl := a.New()
	a.Place(lbl, 7)
	same := LabelFromID(lbl.ID())
	idx, err := a.InstrIndex(same, 10)
	if err != nil || idx != 7 {
		t.Errorf("InstrIndex via recovered id = %d, %v; want 7, nil", idx, err)
	}
}
