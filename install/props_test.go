package install

import "testing"

func TestPlanForAbsentCompositor(t *testing.T) {
	p := PlanFor(false)
	if !p.SetRootAttribute {
		t.Errorf("expected root attribute write without a compositor")
	}
	if !p.RepaintRoot {
		t.Errorf("expected root repaint without a compositor")
	}
}

func TestPlanForPresentCompositor(t *testing.T) {
	p := PlanFor(true)
	if p.SetRootAttribute {
		t.Errorf("expected no root attribute write with a compositor")
	}
	if p.RepaintRoot {
		t.Errorf("expected no root repaint with a compositor")
	}
}

func TestKillCandidatesDedup(t *testing.T) {
	// Both classic properties usually reference the same pixmap; the owner
	// must be killed once.
	got := KillCandidates([]uint32{0x2a, 0x2a}, nil)
	if len(got) != 1 || got[0] != 0x2a {
		t.Fatalf("expected single candidate 0x2a, got %v", got)
	}
}

func TestKillCandidatesDistinctIds(t *testing.T) {
	got := KillCandidates([]uint32{0x10, 0x20}, nil)
	if len(got) != 2 || got[0] != 0x10 || got[1] != 0x20 {
		t.Fatalf("expected both candidates in order, got %v", got)
	}
}

func TestKillCandidatesDropsZero(t *testing.T) {
	// Unset properties read as id 0.
	if got := KillCandidates([]uint32{0, 0}, nil); got != nil {
		t.Fatalf("expected no candidates for unset properties, got %v", got)
	}
}

func TestKillCandidatesExcludesOwnIds(t *testing.T) {
	owned := map[uint32]bool{0x10: true}
	got := KillCandidates([]uint32{0x10, 0x20}, func(id uint32) bool { return owned[id] })
	if len(got) != 1 || got[0] != 0x20 {
		t.Fatalf("expected only the foreign id, got %v", got)
	}
	// Killing an id of our own would kill this connection.
	got = KillCandidates([]uint32{0x10, 0x10}, func(id uint32) bool { return owned[id] })
	if got != nil {
		t.Fatalf("expected no candidates when all ids are ours, got %v", got)
	}
}
