package realtime

import (
	"testing"
	"time"
)

func TestTimeline_NextWake_NotArmed(t *testing.T) {
	var tl Timeline
	next, ok := tl.NextWake()
	if ok {
		t.Error("NextWake should return false when nothing is armed")
	}
	if !next.IsZero() {
		t.Error("next should be zero")
	}
}

func TestTimeline_FireAtDeadline(t *testing.T) {
	now := time.Now().UTC()
	var tl Timeline
	tl.Arm("spin", now.Add(100*time.Millisecond))

	next, ok := tl.NextWake()
	if !ok {
		t.Fatal("NextWake should return true when armed")
	}
	if !next.Equal(now.Add(100 * time.Millisecond)) {
		t.Errorf("next %v, want %v", next, now.Add(100*time.Millisecond))
	}
	if _, fired := tl.Fire(now.Add(50 * time.Millisecond)); fired {
		t.Error("should not fire before the deadline")
	}
	d, fired := tl.Fire(now.Add(100 * time.Millisecond))
	if !fired {
		t.Fatal("should fire at the deadline")
	}
	if d.Name != "spin" {
		t.Errorf("Name %q, want spin", d.Name)
	}
	if _, fired := tl.Fire(now.Add(time.Second)); fired {
		t.Error("a deadline fires once")
	}
}

func TestTimeline_InvalidateDropsPending(t *testing.T) {
	now := time.Now().UTC()
	var tl Timeline
	old := tl.Arm("spin", now)
	tl.Invalidate()

	if _, ok := tl.NextWake(); ok {
		t.Error("Invalidate should disarm")
	}
	if _, fired := tl.Fire(now.Add(time.Hour)); fired {
		t.Error("nothing should fire after Invalidate")
	}
	if old.Epoch == tl.Epoch() {
		t.Error("old deadline should not be current after Invalidate")
	}
	if tl.Epoch() != 1 {
		t.Errorf("Epoch %d, want 1", tl.Epoch())
	}

	fresh := tl.Arm("spin", now)
	if fresh.Epoch != tl.Epoch() {
		t.Error("new deadline should be current")
	}
}

func TestTimeline_ArmReplaces(t *testing.T) {
	now := time.Now().UTC()
	var tl Timeline
	tl.Arm("spin", now)
	tl.Arm("reveal", now.Add(time.Second))
	if _, fired := tl.Fire(now); fired {
		t.Error("replaced deadline should not fire")
	}
	d, fired := tl.Fire(now.Add(time.Second))
	if !fired || d.Name != "reveal" {
		t.Errorf("fired=%v name=%q, want reveal", fired, d.Name)
	}
}
