package graph

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// wikilinkRe matches [[target]] and [[target|label]] tokens.
	wikilinkRe = regexp.MustCompile(`\[\[([^\]|]+)(?:\|[^\]]+)?\]\]`)

	// headingRe matches second-level and deeper headings.
	headingRe = regexp.MustCompile(`^(#{2,6})\s+(.*)$`)

	// titleRe matches a top-level heading line.
	titleRe = regexp.MustCompile(`^#\s+(.*)$`)

	// yearLineRe matches the "**Year**: NNNN" metadata line in a note body.
	yearLineRe = regexp.MustCompile(`\*\*Year\*\*:\s*(\d{4})`)

	// doiLineRe matches the bracketed link target of a "**DOI**: [..](..)" line.
	doiLineRe = regexp.MustCompile(`\*\*DOI\*\*:\s*\[([^\]]+)\]`)
)

// Build scans dir for markdown notes and assembles the citation graph.
// Documents are processed in sorted path order. One unreadable or malformed
// document never aborts the scan: it contributes whatever partial data it
// can, down to a bare filename-derived node.
func Build(dir string) (*Graph, error) {
	paths, err := markdownPaths(dir)
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(paths))
	edges := make([]Edge, 0)

	for _, path := range paths {
		node, docEdges := parseDocument(path)
		nodes = append(nodes, node)
		edges = append(edges, docEdges...)
	}

	return &Graph{
		Nodes: nodes,
		Edges: edges,
		Metadata: Metadata{
			SourceDir: dir,
			NodeCount: len(nodes),
			EdgeCount: len(edges),
		},
	}, nil
}

// markdownPaths returns all .md files under dir, sorted. A missing
// directory yields an empty corpus rather than an error, matching the
// empty-directory contract.
func markdownPaths(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// parseDocument extracts one node and its outgoing edges from a markdown
// file. Never fails: an unreadable file degrades to a filename-derived node
// with no edges.
func parseDocument(path string) (Node, []Edge) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return Node{ID: stem}, nil
	}

	meta, body := splitFrontmatter(string(data))
	node := parseNode(stem, meta, body)
	return node, parseEdges(node.ID, body)
}

// parseNode resolves node identity and enrichment fields. Identity
// precedence: frontmatter kt_id, then DOI (frontmatter or body line), then
// the filename stem.
func parseNode(stem string, meta map[string]any, body string) Node {
	ktID := stringField(meta, "kt_id")

	doi := stringField(meta, "doi")
	if doi == "" {
		doi = extractDOILine(body)
	}

	title := stringField(meta, "title")
	if title == "" {
		title = extractTitle(body)
	}

	year, ok := intField(meta, "year")
	if !ok {
		year, ok = extractYear(body)
	}

	node := Node{ID: stem}
	switch {
	case ktID != "":
		node.ID = ktID
	case doi != "":
		node.ID = doi
	}

	if title != "" {
		node.Title = &title
	}
	if ok {
		node.Year = &year
	}
	if doi != "" {
		node.DOI = &doi
	}
	return node
}

// parseEdges extracts one edge per wikilink inside the citation section, in
// appearance order. Wikilinks outside that section are ignored.
func parseEdges(sourceID, body string) []Edge {
	var edges []Edge
	for _, line := range citationSection(body) {
		for _, match := range wikilinkRe.FindAllStringSubmatch(line, -1) {
			edges = append(edges, Edge{Source: sourceID, Target: match[1]})
		}
	}
	return edges
}

// citationSection returns the lines between a second-level heading whose
// text contains "citation" (case-insensitive) and the next second-level
// heading or end of document. Deeper headings do not close the section.
func citationSection(body string) []string {
	var collected []string
	collecting := false

	for _, line := range strings.Split(body, "\n") {
		if match := headingRe.FindStringSubmatch(strings.TrimSpace(line)); match != nil {
			if match[1] == "##" {
				if strings.Contains(strings.ToLower(strings.TrimSpace(match[2])), "citation") {
					collecting = true
					continue
				}
				if collecting {
					break
				}
			}
		}
		if collecting {
			collected = append(collected, line)
		}
	}
	return collected
}

// extractTitle returns the text of the first top-level heading line.
func extractTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if match := titleRe.FindStringSubmatch(strings.TrimSpace(line)); match != nil {
			return strings.TrimSpace(match[1])
		}
	}
	return ""
}

// extractYear recovers a year from a "**Year**: NNNN" line.
func extractYear(body string) (int, bool) {
	for _, line := range strings.Split(body, "\n") {
		if match := yearLineRe.FindStringSubmatch(line); match != nil {
			year, err := strconv.Atoi(match[1])
			if err == nil {
				return year, true
			}
		}
	}
	return 0, false
}

// extractDOILine recovers a DOI from the link text of a "**DOI**: [..](..)"
// line.
func extractDOILine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if match := doiLineRe.FindStringSubmatch(line); match != nil {
			return strings.TrimSpace(match[1])
		}
	}
	return ""
}
