// Package note renders knowledge tables as Obsidian-style markdown notes
// with YAML frontmatter and wikilinked citation sections. The rendered
// shape is what the graph builder parses, so the frontmatter keys, the
// "**Year**"/"**DOI**" lines, and the "## Citation Network" section are
// load-bearing.
package note

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stratum-lab/stratum/internal/knowledge"
)

// frontmatter is the YAML metadata block at the top of a note. Field order
// here is the emission order.
type frontmatter struct {
	KTID    string   `yaml:"kt_id"`
	Title   string   `yaml:"title"`
	Authors []string `yaml:"authors"`
	Year    int      `yaml:"year"`
	DOI     string   `yaml:"doi"`
	Tags    []string `yaml:"tags"`
	Aliases []string `yaml:"aliases"`
	Created string   `yaml:"created"`
}

// Render produces the full markdown document for a knowledge table.
func Render(t *knowledge.Table, created time.Time) (string, error) {
	fm := frontmatter{
		KTID:    t.KTID,
		Title:   t.Meta.Title,
		Authors: t.Meta.Authors,
		Year:    t.Meta.Year,
		DOI:     t.Meta.DOI,
		Tags:    []string{"knowledge-table", "scientific-paper", "stratum"},
		Aliases: []string{t.KTID, t.Meta.Title},
		Created: created.UTC().Format(time.RFC3339),
	}

	fmData, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fmData)
	b.WriteString("---\n\n")
	b.WriteString(renderBody(t))
	return b.String(), nil
}

// Write renders the table and writes it to <dir>/<kt_id>.md, creating the
// directory as needed. Returns the written path.
func Write(t *knowledge.Table, dir string) (string, error) {
	content, err := Render(t, time.Now())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, t.KTID+".md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing note: %w", err)
	}
	return path, nil
}

// renderBody builds the markdown sections after the frontmatter.
func renderBody(t *knowledge.Table) string {
	var sections []string

	sections = append(sections, fmt.Sprintf("# %s\n", t.Meta.Title))
	sections = append(sections,
		fmt.Sprintf("**Authors**: %s", strings.Join(t.Meta.Authors, ", ")),
		fmt.Sprintf("**Year**: %d", t.Meta.Year),
		fmt.Sprintf("**DOI**: [%s](https://doi.org/%s)", t.Meta.DOI, t.Meta.DOI),
		"",
	)

	sections = append(sections, "## Central Hypothesis\n", t.CoreAnalysis.CentralHypothesis, "")
	sections = append(sections, "## Methodology\n", t.CoreAnalysis.MethodologySummary, "")
	sections = append(sections, "## Significance\n", t.CoreAnalysis.Significance, "")

	sections = append(sections, "## Key Points\n")
	for _, kp := range t.KeyPoints {
		sections = append(sections,
			fmt.Sprintf("### %s: %s\n", kp.ID, kp.Content),
			fmt.Sprintf("- **Evidence**: %s", kp.EvidenceAnchor),
			fmt.Sprintf("- **Confidence**: %.2f", kp.ConfidenceScore),
			"",
		)
	}

	sections = append(sections, "## Logic Chains\n")
	for _, lc := range t.LogicChains {
		sections = append(sections,
			fmt.Sprintf("### %s\n", lc.Name),
			fmt.Sprintf("**Argument Flow**: %s\n", lc.ArgumentFlow),
			fmt.Sprintf("**Conclusion**: %s", lc.ConclusionDerived),
			"",
		)
	}

	if len(t.CitationNetwork) > 0 {
		sections = append(sections, "## Citation Network\n")
		sections = append(sections, citationGroup("Foundational Papers", t.CitationNetwork, knowledge.UsageFoundational)...)
		sections = append(sections, citationGroup("Comparison Papers", t.CitationNetwork, knowledge.UsageComparison)...)
		sections = append(sections, citationGroup("Refuting Papers", t.CitationNetwork, knowledge.UsageRefuting)...)
	}

	sections = append(sections, "---", "*Generated by stratum*")

	return strings.Join(sections, "\n")
}

// citationGroup renders one usage-type subsection, or nothing if the group
// is empty. Deeper headings are used so the whole network stays inside the
// one second-level citation section.
func citationGroup(heading string, citations []knowledge.Citation, usage string) []string {
	var lines []string
	for _, c := range citations {
		if c.UsageType != usage {
			continue
		}
		lines = append(lines, "- "+Wikilink(c.TargetDOI, c.TargetTitle))
		if c.Notes != "" {
			lines = append(lines, "  - "+c.Notes)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return append([]string{fmt.Sprintf("### %s\n", heading)}, append(lines, "")...)
}

// Wikilink builds a double-bracket link for a cited paper. The DOI is
// sanitized ('/' to '_') so the target matches the note filename the cited
// paper will get once archived.
func Wikilink(doi, title string) string {
	safe := strings.ReplaceAll(doi, "/", "_")
	return fmt.Sprintf("[[%s|%s]]", safe, title)
}
