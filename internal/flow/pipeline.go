// Package flow runs the recursive analysis pipeline: fetch a paper,
// extract its text, analyze it into a knowledge table, render a note, and
// follow its foundational citations one depth level down.
package flow

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/stratum-lab/stratum/internal/analyst"
	"github.com/stratum-lab/stratum/internal/fetch"
	"github.com/stratum-lab/stratum/internal/knowledge"
	"github.com/stratum-lab/stratum/internal/recursion"
	"github.com/stratum-lab/stratum/internal/storage"
)

// pdfSearchPages bounds how much of a PDF is read for analysis.
const pdfSearchPages = 30

// Fetcher retrieves paper metadata and PDFs.
type Fetcher interface {
	FetchPaper(ctx context.Context, doi string) (*fetch.Result, error)
}

// Extractor pulls text out of a downloaded PDF.
type Extractor interface {
	ExtractText(path string, maxPages int) (string, error)
}

// Analyzer produces a knowledge table from paper text.
type Analyzer interface {
	Analyze(ctx context.Context, in analyst.Input) (*knowledge.Table, error)
}

// Renderer writes a markdown note for a knowledge table and returns its path.
type Renderer func(t *knowledge.Table, dir string) (string, error)

// Recorder persists analyzed papers in the archive index.
type Recorder interface {
	Upsert(rec storage.Record) error
}

// Pipeline wires the analysis stages together. It processes papers one at
// a time; the recursion manager deduplicates across runs.
type Pipeline struct {
	Fetcher      Fetcher
	Extractor    Extractor
	Analyst      Analyzer
	Render       Renderer
	Recursion    *recursion.Manager
	Index        Recorder
	OutputDir    string
	MaxCitations int

	// Stderr receives progress and per-paper failure logs. Defaults to
	// os.Stderr.
	Stderr io.Writer

	// Now supplies record timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Summary reports what a pipeline run did.
type Summary struct {
	Analyzed int      `json:"analyzed"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Notes    []string `json:"notes"`
}

// queueItem is one pending paper in the breadth-first traversal.
type queueItem struct {
	doi       string
	depth     int
	sourceDOI string
}

func (p *Pipeline) stderr() io.Writer {
	if p.Stderr != nil {
		return p.Stderr
	}
	return os.Stderr
}

// Run analyzes the root paper and recursively follows foundational
// citations until the depth bound cuts the traversal off. Failures on
// individual papers are logged and skipped; Run only errors when the root
// paper itself cannot be processed.
func (p *Pipeline) Run(ctx context.Context, rootDOI string) (*Summary, error) {
	summary := &Summary{Notes: []string{}}

	queue := []queueItem{{doi: fetch.NormalizeDOI(rootDOI), depth: 0}}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		item := queue[0]
		queue = queue[1:]

		if !p.Recursion.ShouldProcess(item.doi, item.depth) {
			summary.Skipped++
			continue
		}

		notePath, table, err := p.processPaper(ctx, item)
		if err != nil {
			if item.depth == 0 && summary.Analyzed == 0 {
				return summary, fmt.Errorf("analyzing root paper %s: %w", item.doi, err)
			}
			fmt.Fprintf(p.stderr(), "skipping %s (depth %d): %v\n", item.doi, item.depth, err)
			summary.Failed++
			continue
		}

		summary.Analyzed++
		summary.Notes = append(summary.Notes, notePath)

		for _, doi := range table.FoundationalDOIs(p.MaxCitations) {
			queue = append(queue, queueItem{
				doi:       fetch.NormalizeDOI(doi),
				depth:     item.depth + 1,
				sourceDOI: item.doi,
			})
		}
	}

	return summary, nil
}

// processPaper runs one paper through fetch, extract, analyze, render, and
// record. The paper is marked processed only after its note is on disk.
func (p *Pipeline) processPaper(ctx context.Context, item queueItem) (string, *knowledge.Table, error) {
	fmt.Fprintf(p.stderr(), "analyzing %s (depth %d)\n", item.doi, item.depth)

	result, err := p.Fetcher.FetchPaper(ctx, item.doi)
	if err != nil {
		return "", nil, fmt.Errorf("fetching: %w", err)
	}

	text := result.Paper.Abstract
	if result.PDFPath != "" {
		if extracted, err := p.Extractor.ExtractText(result.PDFPath, pdfSearchPages); err == nil && extracted != "" {
			text = extracted
		} else if err != nil {
			fmt.Fprintf(p.stderr(), "falling back to abstract for %s: %v\n", item.doi, err)
		}
	}

	table, err := p.Analyst.Analyze(ctx, analyst.Input{
		DOI:     item.doi,
		Title:   result.Paper.Title,
		Authors: result.Paper.Authors,
		Year:    result.Paper.Year,
		Text:    text,
	})
	if err != nil {
		return "", nil, fmt.Errorf("analyzing: %w", err)
	}

	notePath, err := p.Render(table, p.OutputDir)
	if err != nil {
		return "", nil, fmt.Errorf("writing note: %w", err)
	}

	if err := p.Recursion.MarkProcessed(item.doi, item.depth); err != nil {
		return "", nil, fmt.Errorf("recording state: %w", err)
	}

	if p.Index != nil {
		rec := storage.Record{
			DOI:        item.doi,
			KTID:       table.KTID,
			Title:      table.Meta.Title,
			Authors:    table.Meta.Authors,
			Year:       table.Meta.Year,
			Depth:      item.depth,
			NotePath:   notePath,
			AnalyzedAt: recordTime(p.Now),
		}
		if err := p.Index.Upsert(rec); err != nil {
			// The note and state are already written; the index is a
			// rebuildable cache, so log and move on.
			fmt.Fprintf(p.stderr(), "indexing %s failed: %v\n", item.doi, err)
		}
	}

	return notePath, table, nil
}

// recordTime resolves the timestamp source, defaulting to the wall clock.
func recordTime(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}
