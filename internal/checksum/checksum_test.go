package checksum

import "testing"

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte("hello"))
	if a != Sum([]byte("hello")) {
		t.Error("digest not stable")
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
	if a == Sum([]byte("hello!")) {
		t.Error("different inputs share a digest")
	}
}

func TestTracker(t *testing.T) {
	var tr Tracker
	if !tr.Changed([]byte("x")) {
		t.Error("empty tracker should report a change")
	}
	tr.Record([]byte("x"))
	if tr.Changed([]byte("x")) {
		t.Error("recorded content reported as changed")
	}
	if !tr.Changed([]byte("y")) {
		t.Error("new content not reported as changed")
	}
}
