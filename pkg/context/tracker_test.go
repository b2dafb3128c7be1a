package context

import "testing"

func TestNewTrackerSeedsCurrentAndSuper(t *testing.T) {
	tr := New("com/example/Foo", "java/lang/Object")
	if tr.CurrentClass() != "com/example/Foo" {
		t.Errorf("CurrentClass() = %q, want com/example/Foo", tr.CurrentClass())
	}
	if tr.SuperClass() != "java/lang/Object" {
		t.Errorf("SuperClass() = %q, want java/lang/Object", tr.SuperClass())
	}
	if tr.NewClass() != "" {
		t.Errorf("NewClass() = %q, want empty before any `new`", tr.NewClass())
	}
}

func TestSetNewClassUpdatesSlot(t *testing.T) {
	tr := New("com/example/Foo", "java/lang/Object")
	tr.SetNewClass("com/example/Bar")
	if tr.NewClass() != "com/example/Bar" {
		t.Errorf("NewClass() = %q, want com/example/Bar", tr.NewClass())
	}
	tr.SetNewClass("com/example/Baz")
	if tr.NewClass() != "com/example/Baz" {
		t.Errorf("NewClass() = %q, want com/example/Baz (overwritten)", tr.NewClass())
	}
}
