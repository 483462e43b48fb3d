package recursion

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func statePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "state", "recursion_state.json")
}

func TestShouldProcessFreshState(t *testing.T) {
	m := NewManager(statePath(t), 3)

	tests := []struct {
		name  string
		id    string
		depth int
		want  bool
	}{
		{"unprocessed at depth 0", "10.1000/a", 0, true},
		{"unprocessed at depth below bound", "10.1000/a", 2, true},
		{"unprocessed at depth equal to bound", "10.1000/a", 3, false},
		{"unprocessed beyond bound", "10.1000/a", 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.ShouldProcess(tt.id, tt.depth); got != tt.want {
				t.Errorf("ShouldProcess(%q, %d) = %v, want %v", tt.id, tt.depth, got, tt.want)
			}
		})
	}
}

func TestShouldProcessIsIdempotent(t *testing.T) {
	m := NewManager(statePath(t), 3)

	for i := 0; i < 5; i++ {
		if !m.ShouldProcess("10.1000/a", 1) {
			t.Fatalf("call %d: ShouldProcess flipped without MarkProcessed", i+1)
		}
	}
}

func TestMarkProcessedDedups(t *testing.T) {
	m := NewManager(statePath(t), 3)

	if err := m.MarkProcessed("10.1000/a", 1); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	// Processed IDs are ineligible at every depth, including depths that
	// would otherwise pass the bound check.
	for _, depth := range []int{0, 1, 2, 3, 100} {
		if m.ShouldProcess("10.1000/a", depth) {
			t.Errorf("ShouldProcess after MarkProcessed = true at depth %d", depth)
		}
	}
}

func TestMarkProcessedLastWriteWins(t *testing.T) {
	m := NewManager(statePath(t), 3)

	if err := m.MarkProcessed("10.1000/a", 0); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if err := m.MarkProcessed("10.1000/a", 2); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	if got := m.IDsAtDepth(0); len(got) != 0 {
		t.Errorf("IDsAtDepth(0) = %v, want empty after overwrite", got)
	}
	if got := m.IDsAtDepth(2); !reflect.DeepEqual(got, []string{"10.1000/a"}) {
		t.Errorf("IDsAtDepth(2) = %v, want [10.1000/a]", got)
	}
	if got := len(m.ProcessedIDs()); got != 1 {
		t.Errorf("ProcessedIDs length = %d, want 1", got)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := statePath(t)

	first := NewManager(path, 3)
	marks := map[string]int{
		"10.1000/a": 0,
		"10.1000/b": 1,
		"10.1000/c": 1,
		"10.1000/d": 2,
	}
	for id, depth := range marks {
		if err := first.MarkProcessed(id, depth); err != nil {
			t.Fatalf("MarkProcessed(%q): %v", id, err)
		}
	}

	second := NewManager(path, 3)

	if got, want := second.ProcessedIDs(), first.ProcessedIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("reloaded ProcessedIDs = %v, want %v", got, want)
	}
	if got, want := second.Stats(), first.Stats(); !reflect.DeepEqual(got, want) {
		t.Errorf("reloaded Stats = %+v, want %+v", got, want)
	}
	for id := range marks {
		if second.ShouldProcess(id, 0) {
			t.Errorf("reloaded manager lost dedup record for %s", id)
		}
	}
}

func TestReloadKeepsPersistedDepthBound(t *testing.T) {
	path := statePath(t)

	first := NewManager(path, 2)
	if err := first.MarkProcessed("10.1000/a", 0); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	// The persisted bound wins over the constructor argument on reload.
	second := NewManager(path, 5)
	if got := second.MaxDepth(); got != 2 {
		t.Errorf("MaxDepth after reload = %d, want 2", got)
	}
	if second.ShouldProcess("10.1000/b", 2) {
		t.Error("ShouldProcess(_, 2) = true, want false under reloaded bound 2")
	}
}

func TestCorruptStateFileStartsFresh(t *testing.T) {
	path := statePath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(path, 3)

	if got := len(m.ProcessedIDs()); got != 0 {
		t.Errorf("ProcessedIDs after corrupt load = %d entries, want 0", got)
	}
	if !m.ShouldProcess("10.1000/a", 0) {
		t.Error("ShouldProcess = false on fresh state after corrupt load")
	}
	// The manager must still be able to persist over the corrupt file.
	if err := m.MarkProcessed("10.1000/a", 0); err != nil {
		t.Fatalf("MarkProcessed after corrupt load: %v", err)
	}
}

func TestStatsDepthBreakdown(t *testing.T) {
	m := NewManager(statePath(t), 3)

	for id, depth := range map[string]int{
		"10.1000/a": 0,
		"10.1000/b": 1,
		"10.1000/c": 1,
		"10.1000/d": 2,
	} {
		if err := m.MarkProcessed(id, depth); err != nil {
			t.Fatalf("MarkProcessed(%q): %v", id, err)
		}
	}

	got := m.Stats()
	want := Stats{
		TotalProcessed:   4,
		MaxDepth:         3,
		ProcessedByDepth: map[int]int{0: 1, 1: 2, 2: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
}

func TestStatsExcludesDepthAtBound(t *testing.T) {
	m := NewManager(statePath(t), 2)

	// A caller that bypasses ShouldProcess can record at the bound; the
	// per-depth breakdown covers [0, maxDepth) only.
	if err := m.MarkProcessed("10.1000/a", 2); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	got := m.Stats()
	if got.TotalProcessed != 1 {
		t.Errorf("TotalProcessed = %d, want 1", got.TotalProcessed)
	}
	want := map[int]int{0: 0, 1: 0}
	if !reflect.DeepEqual(got.ProcessedByDepth, want) {
		t.Errorf("ProcessedByDepth = %v, want %v", got.ProcessedByDepth, want)
	}
}

func TestReset(t *testing.T) {
	path := statePath(t)
	m := NewManager(path, 3)

	if err := m.MarkProcessed("10.1000/a", 0); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if err := m.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if got := len(m.ProcessedIDs()); got != 0 {
		t.Errorf("ProcessedIDs after Reset = %d entries, want 0", got)
	}
	if !m.ShouldProcess("10.1000/a", 0) {
		t.Error("previously processed ID not eligible again after Reset")
	}
	if got := m.MaxDepth(); got != 3 {
		t.Errorf("MaxDepth after Reset = %d, want 3", got)
	}

	// Reset persists immediately: a reload sees the empty state.
	reloaded := NewManager(path, 3)
	if got := len(reloaded.ProcessedIDs()); got != 0 {
		t.Errorf("reloaded ProcessedIDs after Reset = %d entries, want 0", got)
	}
}

func TestIDsAtDepth(t *testing.T) {
	m := NewManager(statePath(t), 3)

	for id, depth := range map[string]int{
		"10.1000/c": 1,
		"10.1000/a": 1,
		"10.1000/b": 0,
	} {
		if err := m.MarkProcessed(id, depth); err != nil {
			t.Fatalf("MarkProcessed(%q): %v", id, err)
		}
	}

	if got, want := m.IDsAtDepth(1), []string{"10.1000/a", "10.1000/c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDsAtDepth(1) = %v, want %v", got, want)
	}
	if got := m.IDsAtDepth(2); len(got) != 0 {
		t.Errorf("IDsAtDepth(2) = %v, want empty", got)
	}
}

func TestMarkProcessedPropagatesSaveFailure(t *testing.T) {
	// A regular file where the state directory should go makes every
	// persistence attempt fail.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "state")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(filepath.Join(blocker, "recursion_state.json"), 3)

	if err := m.MarkProcessed("10.1000/a", 0); err == nil {
		t.Error("MarkProcessed should return an error when the state cannot be persisted")
	}
	if err := m.Reset(); err == nil {
		t.Error("Reset should return an error when the state cannot be persisted")
	}
}
