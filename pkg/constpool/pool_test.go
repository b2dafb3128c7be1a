package constpool

import "testing"

func TestAppendAssignsOneBasedIndex(t *testing.T) {
	cp := New(0)
	e1 := cp.Append(&Entry{ID: UTF8, Value: "hello"})
	e2 := cp.Append(&Entry{ID: INT, Value: 42})
	if e1 != 1 || e2 != 2 {
		t.Fatalf("Append indices = %d, %d; want 1, 2", e1, e2)
	}
	if cp.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cp.Len())
	}
}

func TestGetEntryRejectsMismatchedPoolID(t *testing.T) {
	cp := New(0)
	cp.Append(&Entry{ID: UTF8, Value: "x"})
	if _, err := cp.GetEntry(INT, 1); err == nil {
		t.Fatal("expected error resolving a UTF8 entry as INT")
	}
}

func TestGetEntryRejectsOutOfRange(t *testing.T) {
	cp := New(0)
	if _, err := cp.GetEntry(UTF8, 1); err == nil {
		t.Fatal("expected error for empty pool")
	}
}

func TestClassSpecificSubpoolIsolatesByClass(t *testing.T) {
	cp := New(4)
	cp.AppendClassSpecific(FIELD, "Foo", &Entry{ID: FIELD, ClassName: "Foo", MemberName: "x"})
	cp.AppendClassSpecific(FIELD, "Bar", &Entry{ID: FIELD, ClassName: "Bar", MemberName: "y"})

	e, err := cp.GetClassSpecificEntry(FIELD, 0, "Foo")
	if err != nil {
		t.Fatalf("GetClassSpecificEntry: %v", err)
	}
	if e.MemberName != "x" {
		t.Errorf("resolved member = %q, want x", e.MemberName)
	}

	if _, err := cp.GetClassSpecificEntry(FIELD, 1, "Foo"); err == nil {
		t.Fatal("expected out-of-range error for Foo's single-entry subpool")
	}
}

func TestArgWidthCountsLongAndDoubleAsTwo(t *testing.T) {
	e := &Entry{Descriptor: "(IJLjava/lang/String;D)V"}
	// receiver(1) + int(1) + long(2) + String ref(1) + double(2) = 7
	if got := e.ArgWidth(); got != 7 {
		t.Errorf("ArgWidth() = %d, want 7", got)
	}
}

func TestArgWidthNoArgs(t *testing.T) {
	e := &Entry{Descriptor: "()V"}
	if got := e.ArgWidth(); got != 1 {
		t.Errorf("ArgWidth() = %d, want 1 (receiver only)", got)
	}
}
