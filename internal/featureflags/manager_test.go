package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", 1) || !m.Enabled("c", 1) || !m.Enabled("e", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", 1) || m.Enabled("d", 1) || m.Enabled("f", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
	if m.Enabled("missing", 1) {
		t.Fatal("unknown flags must be disabled")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=abc%")

	if !m.Enabled("always", 1) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", 1) || m.Enabled("broken", 1) {
		t.Fatal("0% and malformed rollouts should be disabled")
	}

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}

	if m.Enabled("canary", 0) {
		t.Fatal("percentage rollout requires non-zero userID")
	}

	enabled := 0
	for uid := uint(1); uid <= 1000; uid++ {
		if m.Enabled("canary", uid) {
			enabled++
		}
	}
	if enabled < 150 || enabled > 350 {
		t.Fatalf("25%% rollout enabled %d of 1000 users", enabled)
	}
}

func TestDefaults(t *testing.T) {
	m := NewManager("")
	if !m.Enabled(DraftPreview, 0) || !m.Enabled(SearchIndex, 0) {
		t.Fatal("built-in flags should default on")
	}

	m = NewManager("draft_preview=off")
	if m.Enabled(DraftPreview, 7) {
		t.Fatal("configured value must override the default")
	}
	if !m.Enabled(SearchIndex, 7) {
		t.Fatal("unrelated defaults must survive an override")
	}

	var nilManager *Manager
	if nilManager.Enabled(DraftPreview, 1) {
		t.Fatal("nil manager must report every flag disabled")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	if len(raw) != 5 {
		t.Fatalf("expected 5 flags including defaults, got %d", len(raw))
	}
	if raw["x"] != "on" || raw["y"] != "20%" || raw["z"] != "off" {
		t.Fatalf("unexpected raw flags: %#v", raw)
	}

	names := m.Names()
	if names[0] != DraftPreview || names[len(names)-1] != "z" {
		t.Fatalf("names not sorted: %v", names)
	}

	snap := m.Snapshot(123)
	if len(snap) != 5 || !snap["x"] || snap["z"] {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}
