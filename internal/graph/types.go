// Package graph reconstructs a directed citation graph from a directory of
// generated markdown notes. It depends only on the on-disk corpus, never on
// run state, so it works against output from any prior (or foreign) run.
package graph

// Node is a paper recovered from one markdown document. ID is the graph's
// join key; two nodes are the same vertex iff their IDs are equal. Title,
// Year, and DOI are nullable in the JSON output.
type Node struct {
	ID    string  `json:"id"`
	Title *string `json:"title"`
	Year  *int    `json:"year"`
	DOI   *string `json:"doi"`
}

// Edge is a directed citation link. Target is the wikilink target as
// written; it may not correspond to any node if the cited paper has not
// been archived yet. Repeated identical links in a document produce
// repeated edges — the builder does not deduplicate.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Metadata describes a graph snapshot. NodeCount and EdgeCount always equal
// the lengths of the respective sequences.
type Metadata struct {
	SourceDir string `json:"source_dir"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

// Graph is the builder output. Nodes follow directory traversal order
// (sorted by path); edges follow node order, then in-document appearance
// order. The three-key shape is a compatibility contract for downstream
// consumers.
type Graph struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Metadata Metadata `json:"metadata"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *Graph) IsEmpty() bool {
	return len(g.Nodes) == 0
}
