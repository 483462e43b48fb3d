// Package analyst turns raw paper text into a structured knowledge table
// via an OpenAI-compatible chat model.
package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/stratum-lab/stratum/internal/knowledge"
)

// ErrEmptyResponse indicates the model returned no choices.
var ErrEmptyResponse = errors.New("model returned no choices")

// ErrInvalidTable indicates the model output could not be parsed into a
// valid knowledge table.
var ErrInvalidTable = errors.New("model output is not a valid knowledge table")

// maxTextChars bounds the paper text sent to the model, to stay within
// context limits. The front matter of a paper carries most of what the
// analysis needs.
const maxTextChars = 48000

// Input is the material handed to the analyst for one paper.
type Input struct {
	DOI     string
	Title   string
	Authors []string
	Year    int
	Text    string // Extracted PDF text, or the abstract when no PDF exists
}

// Analyst extracts knowledge tables from paper text.
type Analyst struct {
	client *openai.Client
	model  string
}

// Option configures an Analyst.
type Option func(*Analyst)

// WithModel sets the chat model used for analysis.
func WithModel(model string) Option {
	return func(a *Analyst) {
		a.model = model
	}
}

// WithClient sets a custom OpenAI client (for testing).
func WithClient(c *openai.Client) Option {
	return func(a *Analyst) {
		a.client = c
	}
}

// New creates an Analyst with the given API key.
func New(apiKey string, opts ...Option) *Analyst {
	a := &Analyst{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze produces a validated knowledge table for the paper. Metadata
// fields the model omits are filled in from the input.
func (a *Analyst) Analyze(ctx context.Context, in Input) (*knowledge.Table, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("no text to analyze for %s", in.DOI)
	}

	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(in)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	table, err := ParseTable(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	fillMeta(table, in)

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	return table, nil
}

// ParseTable parses a model response into a knowledge table. Markdown code
// fences around the JSON are tolerated.
func ParseTable(response string) (*knowledge.Table, error) {
	text := strings.TrimSpace(response)
	if strings.HasPrefix(text, "```") {
		text = extractFromCodeBlock(text)
	}

	var table knowledge.Table
	if err := json.Unmarshal([]byte(text), &table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return &table, nil
}

// extractFromCodeBlock extracts content from a markdown code block.
func extractFromCodeBlock(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}

	// Remove first line (```json or ```)
	start := 1
	end := len(lines)
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		end = len(lines) - 1
	}

	return strings.Join(lines[start:end], "\n")
}

// fillMeta backfills bibliographic fields the model left empty.
func fillMeta(t *knowledge.Table, in Input) {
	if t.Meta.DOI == "" {
		t.Meta.DOI = in.DOI
	}
	if t.Meta.Title == "" {
		t.Meta.Title = in.Title
	}
	if len(t.Meta.Authors) == 0 {
		t.Meta.Authors = in.Authors
	}
	if t.Meta.Year == 0 {
		t.Meta.Year = in.Year
	}
}

const systemPrompt = `You are a scientific paper analyst. You read papers and produce a structured "knowledge table" as a single JSON object. Return ONLY the JSON object, no prose and no markdown fences.`

// buildPrompt assembles the extraction prompt for one paper.
func buildPrompt(in Input) string {
	text := in.Text
	if len(text) > maxTextChars {
		text = text[:maxTextChars]
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Analyze the following paper and produce a knowledge table.

Paper metadata:
- Title: %s
- Authors: %s
- Year: %d
- DOI: %s

Output a JSON object with exactly this shape:
{
  "kt_id": "KT_<year>_<FirstAuthorSurname>",
  "meta": {"title": "...", "authors": ["..."], "year": %d, "doi": "%s"},
  "core_analysis": {
    "central_hypothesis": "the paper's central hypothesis or claim",
    "methodology_summary": "how the work was done",
    "significance": "why the result matters"
  },
  "key_points": [
    {"id": "KP1", "content": "...", "evidence_anchor": "e.g. Table 1 or Figure 3", "confidence_score": 0.0-1.0}
  ],
  "logic_chains": [
    {"name": "...", "argument_flow": "KP1 -> KP2 -> ...", "conclusion_derived": "..."}
  ],
  "citation_network": [
    {"target_paper_doi": "10.xxxx/... or empty if unknown", "target_paper_title": "...", "usage_type": "Foundational|Refuting|Comparison", "notes": "why this work is cited"}
  ]
}

Rules:
- kt_id must match KT_YYYY_Xxx (year, underscore, first author surname).
- Include 3 to 7 key points, each anchored to concrete evidence in the text.
- Classify only citations whose role in the argument is clear; mark as Foundational only work this paper directly builds on.
- Use an empty string for target_paper_doi when the DOI is not stated in the text. Do not invent DOIs.

Paper text:
%s`, in.Title, strings.Join(in.Authors, ", "), in.Year, in.DOI, in.Year, in.DOI, text)

	return b.String()
}
