// Package recursion tracks which papers have been processed and at what
// depth, so a recursive analysis run never reprocesses a paper, never
// exceeds its depth bound, and survives a crash/restart without losing
// deduplication state.
package recursion

import "sort"

// State is the serialized form of the recursion record. It round-trips
// exactly through save/load: the processed-ID set, the ID-to-depth map,
// and the depth bound the state was created with.
type State struct {
	ProcessedIDs []string       `json:"processed_ids"`
	DepthMap     map[string]int `json:"depth_map"`
	MaxDepth     int            `json:"max_depth"`
}

// sortedIDs returns the keys of a processed-ID set in sorted order.
// Sorted output keeps the persisted file diff-friendly and test-stable.
func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
