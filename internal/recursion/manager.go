package recursion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Manager is the single source of truth for "has this paper been processed,
// and is it eligible now". Every mutation is persisted synchronously so a
// restarted run resumes with the same answers.
//
// Manager assumes a single active writer. Concurrent writers across
// processes race on the state file (last writer wins).
type Manager struct {
	path      string
	maxDepth  int
	processed map[string]struct{}
	depths    map[string]int
}

// Stats summarizes recursion progress. ProcessedByDepth has one entry per
// depth in [0, MaxDepth); an ID recorded at MaxDepth or beyond (only
// possible if a caller bypassed ShouldProcess) is counted in TotalProcessed
// but not in the breakdown.
type Stats struct {
	TotalProcessed   int         `json:"total_processed"`
	MaxDepth         int         `json:"max_depth"`
	ProcessedByDepth map[int]int `json:"processed_by_depth"`
}

// NewManager creates a Manager backed by the state file at path. Prior
// state is loaded if present; a missing or unreadable file yields a fresh
// empty state with the given depth bound (corruption is warned about on
// stderr, never fatal).
func NewManager(path string, maxDepth int) *Manager {
	m := &Manager{
		path:      path,
		maxDepth:  maxDepth,
		processed: make(map[string]struct{}),
		depths:    make(map[string]int),
	}
	m.load()
	return m
}

// load restores persisted state. A loaded state keeps the depth bound it
// was created with.
func (m *Manager) load() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: could not read state file %s: %v\n", m.path, err)
		}
		return
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not parse state file %s: %v\n", m.path, err)
		return
	}

	m.maxDepth = state.MaxDepth
	for _, id := range state.ProcessedIDs {
		m.processed[id] = struct{}{}
	}
	for id, depth := range state.DepthMap {
		m.processed[id] = struct{}{}
		m.depths[id] = depth
	}
}

// save persists the full state atomically (temp file + rename).
func (m *Manager) save() error {
	state := State{
		ProcessedIDs: sortedIDs(m.processed),
		DepthMap:     m.depths,
		MaxDepth:     m.maxDepth,
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing state: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, m.path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// ShouldProcess reports whether the paper is eligible for processing: not
// yet processed, and currentDepth strictly below the depth bound. Pure
// query — no side effects, no persistence.
func (m *Manager) ShouldProcess(id string, currentDepth int) bool {
	if _, done := m.processed[id]; done {
		return false
	}
	return currentDepth < m.maxDepth
}

// MarkProcessed records the paper as processed at the given depth (last
// write wins if called twice) and persists the state before returning. A
// persistence failure propagates: silently losing a dedup write risks
// reprocessing on resume.
//
// Depth is not validated against the bound; callers are expected to gate on
// ShouldProcess first.
func (m *Manager) MarkProcessed(id string, depth int) error {
	m.processed[id] = struct{}{}
	m.depths[id] = depth

	if err := m.save(); err != nil {
		return fmt.Errorf("persisting state after marking %s: %w", id, err)
	}
	return nil
}

// ProcessedIDs returns all processed IDs in sorted order.
func (m *Manager) ProcessedIDs() []string {
	return sortedIDs(m.processed)
}

// IDsAtDepth returns the IDs recorded at exactly the given depth, sorted.
func (m *Manager) IDsAtDepth(depth int) []string {
	set := make(map[string]struct{})
	for id, d := range m.depths {
		if d == depth {
			set[id] = struct{}{}
		}
	}
	return sortedIDs(set)
}

// MaxDepth returns the depth bound.
func (m *Manager) MaxDepth() int {
	return m.maxDepth
}

// Stats returns recursion statistics with a per-depth breakdown over
// [0, MaxDepth).
func (m *Manager) Stats() Stats {
	byDepth := make(map[int]int, m.maxDepth)
	for depth := 0; depth < m.maxDepth; depth++ {
		byDepth[depth] = 0
	}
	for _, d := range m.depths {
		if d >= 0 && d < m.maxDepth {
			byDepth[d]++
		}
	}

	return Stats{
		TotalProcessed:   len(m.processed),
		MaxDepth:         m.maxDepth,
		ProcessedByDepth: byDepth,
	}
}

// Reset clears all processed records, keeps the depth bound, and persists
// the now-empty state immediately.
func (m *Manager) Reset() error {
	m.processed = make(map[string]struct{})
	m.depths = make(map[string]int)

	if err := m.save(); err != nil {
		return fmt.Errorf("persisting reset state: %w", err)
	}
	return nil
}
