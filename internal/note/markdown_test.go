package note

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stratum-lab/stratum/internal/graph"
	"github.com/stratum-lab/stratum/internal/knowledge"
)

func sampleTable() *knowledge.Table {
	return &knowledge.Table{
		KTID: "KT_2024_Smith",
		Meta: knowledge.Meta{
			Title:   "Deep Learning for Climate Prediction",
			Authors: []string{"Smith, J.", "Doe, A."},
			Year:    2024,
			DOI:     "10.1000/climate.2024",
		},
		CoreAnalysis: knowledge.CoreAnalysis{
			CentralHypothesis:  "Deep networks improve long-term prediction",
			MethodologySummary: "Hybrid CNN-LSTM against an ARIMA baseline",
			Significance:       "First demonstration at multi-decadal timescales",
		},
		KeyPoints: []knowledge.KeyPoint{
			{ID: "KP1", Content: "23% lower RMSE", EvidenceAnchor: "Table 3", ConfidenceScore: 0.92},
		},
		LogicChains: []knowledge.LogicChain{
			{Name: "Performance", ArgumentFlow: "KP1 -> conclusion", ConclusionDerived: "Model is superior"},
		},
		CitationNetwork: []knowledge.Citation{
			{TargetDOI: "10.1000/lstm.2015", TargetTitle: "LSTM Networks", UsageType: knowledge.UsageFoundational, Notes: "Core architecture"},
			{TargetDOI: "10.1000/arima.1994", TargetTitle: "ARIMA Forecasting", UsageType: knowledge.UsageComparison, Notes: "Baseline"},
		},
	}
}

func TestRenderStructure(t *testing.T) {
	content, err := Render(sampleTable(), time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		"kt_id: KT_2024_Smith",
		"doi: 10.1000/climate.2024",
		"created: \"2024-06-01T12:00:00Z\"",
		"# Deep Learning for Climate Prediction",
		"**Year**: 2024",
		"**DOI**: [10.1000/climate.2024](https://doi.org/10.1000/climate.2024)",
		"## Central Hypothesis",
		"## Citation Network",
		"### Foundational Papers",
		"- [[10.1000_lstm.2015|LSTM Networks]]",
		"### Comparison Papers",
		"- [[10.1000_arima.1994|ARIMA Forecasting]]",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("rendered note missing %q", want)
		}
	}

	if !strings.HasPrefix(content, "---\n") {
		t.Error("note does not start with a frontmatter delimiter")
	}
}

func TestRenderOmitsEmptyCitationGroups(t *testing.T) {
	table := sampleTable()
	table.CitationNetwork = table.CitationNetwork[:1] // Foundational only

	content, err := Render(table, time.Now())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(content, "### Comparison Papers") {
		t.Error("empty comparison group rendered")
	}
	if strings.Contains(content, "### Refuting Papers") {
		t.Error("empty refuting group rendered")
	}
}

func TestWikilink(t *testing.T) {
	got := Wikilink("10.1000/lstm.2015", "LSTM Networks")
	want := "[[10.1000_lstm.2015|LSTM Networks]]"
	if got != want {
		t.Errorf("Wikilink = %q, want %q", got, want)
	}
}

func TestWriteRoundTripsThroughGraphBuilder(t *testing.T) {
	dir := t.TempDir()

	path, err := Write(sampleTable(), dir)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "KT_2024_Smith.md" {
		t.Errorf("note filename = %s, want KT_2024_Smith.md", filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("note not written: %v", err)
	}

	// The rendered note must parse back into the node and edges it encodes.
	g, err := graph.Build(dir)
	if err != nil {
		t.Fatalf("graph.Build: %v", err)
	}

	if len(g.Nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(g.Nodes))
	}
	node := g.Nodes[0]
	if node.ID != "KT_2024_Smith" {
		t.Errorf("node ID = %q, want kt_id", node.ID)
	}
	if node.Title == nil || *node.Title != "Deep Learning for Climate Prediction" {
		t.Errorf("node Title = %v, want frontmatter title", node.Title)
	}
	if node.Year == nil || *node.Year != 2024 {
		t.Errorf("node Year = %v, want 2024", node.Year)
	}
	if node.DOI == nil || *node.DOI != "10.1000/climate.2024" {
		t.Errorf("node DOI = %v, want frontmatter doi", node.DOI)
	}

	if len(g.Edges) != 2 {
		t.Fatalf("got %d edges, want 2 (both citation groups)", len(g.Edges))
	}
	if g.Edges[0].Target != "10.1000_lstm.2015" {
		t.Errorf("first edge target = %q, want sanitized foundational DOI", g.Edges[0].Target)
	}
	if g.Edges[1].Target != "10.1000_arima.1994" {
		t.Errorf("second edge target = %q, want sanitized comparison DOI", g.Edges[1].Target)
	}
}
