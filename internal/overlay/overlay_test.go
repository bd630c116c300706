package overlay

import "testing"

func TestListAddMakesActive(t *testing.T) {
	l := NewList()
	f1 := &Float{PaneID: "a"}
	f2 := &Float{PaneID: "b"}
	l.Add(f1)
	l.Add(f2)
	if l.ActiveFloat() != f2 {
		t.Error("expected most recently added float to be active")
	}
}

func TestDrawOrderPutsActiveLast(t *testing.T) {
	l := NewList()
	f1 := &Float{PaneID: "a"}
	f2 := &Float{PaneID: "b"}
	f3 := &Float{PaneID: "c"}
	l.Add(f1)
	l.Add(f2)
	l.Add(f3)
	l.Active = 0 // make "a" active even though it was added first

	order := l.DrawOrder()
	if len(order) != 3 {
		t.Fatalf("DrawOrder() length = %d, want 3", len(order))
	}
	if order[len(order)-1] != f1 {
		t.Errorf("expected active float last, got %v", order[len(order)-1].PaneID)
	}
}

func TestToggleStickyFlipsVisibilityAndHidesPeers(t *testing.T) {
	l := NewList()
	f1 := &Float{PaneID: "a", TriggerKey: 'g', Visible: false}
	f2 := &Float{PaneID: "b", TriggerKey: 'g', Visible: true}
	l.Add(f1)
	l.Add(f2)

	got := l.ToggleSticky('g', "", false, true)
	if got != f1 {
		t.Fatalf("ToggleSticky matched %v, want f1", got)
	}
	if !f1.Visible {
		t.Error("expected f1 to become visible")
	}
	if f2.Visible {
		t.Error("expected f2 to be hidden once f1 with the same trigger key became visible")
	}
}

func TestToggleStickyRequiresCwdMatchWhenConfigured(t *testing.T) {
	l := NewList()
	f := &Float{PaneID: "a", TriggerKey: 'g', StickyCwd: "/home/x"}
	l.Add(f)

	if got := l.ToggleSticky('g', "/home/y", true, false); got != nil {
		t.Error("expected no match when cwd differs and requireCwdMatch is set")
	}
	if got := l.ToggleSticky('g', "/home/x", true, false); got != f {
		t.Error("expected match when cwd matches")
	}
}

func TestSweepDeadRemovesDeadFloatsAndClearsActive(t *testing.T) {
	l := NewList()
	f1 := &Float{PaneID: "alive"}
	f2 := &Float{PaneID: "dead"}
	l.Add(f1)
	l.Add(f2) // f2 becomes active

	l.SweepDead(func(id string) bool { return id == "alive" })

	if len(l.Floats) != 1 || l.Floats[0].PaneID != "alive" {
		t.Fatalf("expected only the alive float to remain, got %v", l.Floats)
	}
	if l.Active != -1 {
		t.Errorf("expected Active cleared since the active float died, got %d", l.Active)
	}
}

func TestRemovePreservesActiveWhenPossible(t *testing.T) {
	l := NewList()
	f1 := &Float{PaneID: "a"}
	f2 := &Float{PaneID: "b"}
	f3 := &Float{PaneID: "c"}
	l.Add(f1)
	l.Add(f2)
	l.Add(f3)
	l.Active = 2 // c

	l.Remove("a")
	if l.ActiveFloat() != f3 {
		t.Errorf("expected active float to remain c after removing a, got %v", l.ActiveFloat())
	}
	if len(l.Floats) != 2 {
		t.Fatalf("expected 2 floats remaining, got %d", len(l.Floats))
	}
}
