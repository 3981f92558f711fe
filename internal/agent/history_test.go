package agent

import "testing"

func TestReduceAppendsNewMessages(t *testing.T) {
	existing := []Message{
		{ID: "a", Role: RoleHuman, Content: "hi"},
	}
	got := Reduce(existing, Message{ID: "b", Role: RoleAI, Content: "hello"})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].ID != "b" {
		t.Errorf("appended ID = %q", got[1].ID)
	}
}

func TestReduceUpsertsInPlace(t *testing.T) {
	existing := []Message{
		{ID: "a", Role: RoleHuman, Content: "hi"},
		{ID: "b", Role: RoleTool, Content: "huge page text"},
		{ID: "c", Role: RoleAI, Content: "thinking"},
	}
	got := Reduce(existing, Message{ID: "b", Role: RoleTool, Content: "[FOLDED SUMMARY] short"})
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (replace, not append)", len(got))
	}
	if got[1].ID != "b" || got[1].Content != "[FOLDED SUMMARY] short" {
		t.Errorf("position 1 = %+v, want folded content under same ID", got[1])
	}
	if got[2].ID != "c" {
		t.Errorf("ordering disturbed: position 2 = %q", got[2].ID)
	}
	// The input slice must be untouched.
	if existing[1].Content != "huge page text" {
		t.Error("Reduce mutated its input")
	}
}

func TestReduceIdempotent(t *testing.T) {
	existing := []Message{
		{ID: "a", Role: RoleHuman, Content: "hi"},
		{ID: "b", Role: RoleAI, Content: "hello"},
	}
	once := Reduce(existing, existing[1])
	twice := Reduce(once, existing[1])
	if len(twice) != len(existing) {
		t.Fatalf("len = %d, want %d", len(twice), len(existing))
	}
	for i := range existing {
		if twice[i] != existing[i] {
			t.Errorf("position %d = %+v, want %+v", i, twice[i], existing[i])
		}
	}
}

func TestReduceAssignsMissingIDs(t *testing.T) {
	got := Reduce(nil, Message{Role: RoleHuman, Content: "no id"})
	if len(got) != 1 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].ID == "" {
		t.Error("message left without an ID")
	}
}

func TestReduceBoundsGrowth(t *testing.T) {
	existing := []Message{{ID: "a"}, {ID: "b"}}
	incoming := []Message{{ID: "a"}, {ID: "c"}, {ID: "b"}, {ID: "c"}}
	got := Reduce(existing, incoming...)
	// Only "c" is genuinely new; growth is bounded by new IDs, and the
	// second "c" replaces the first.
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestLookup(t *testing.T) {
	history := []Message{{ID: "a", Content: "x"}, {ID: "b", Content: "y"}}
	if m := lookup(history, "b"); m == nil || m.Content != "y" {
		t.Errorf("lookup(b) = %+v", m)
	}
	if m := lookup(history, "zzz"); m != nil {
		t.Errorf("lookup(zzz) = %+v, want nil", m)
	}
}
