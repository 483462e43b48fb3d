// Package knowledge defines the Knowledge Table domain types: the
// structured analysis contract produced by the analyst and consumed by the
// note renderer.
package knowledge

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Citation usage classes. Only Foundational citations are eligible for
// recursive analysis.
const (
	UsageFoundational = "Foundational"
	UsageRefuting     = "Refuting"
	UsageComparison   = "Comparison"
)

// Meta holds the bibliographic identity of the analyzed paper.
type Meta struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Year    int      `json:"year"`
	DOI     string   `json:"doi"`
}

// KeyPoint is an atomic claim from the paper with its supporting evidence.
type KeyPoint struct {
	ID              string  `json:"id"` // KP1, KP2, ...
	Content         string  `json:"content"`
	EvidenceAnchor  string  `json:"evidence_anchor"` // e.g. "Table 1", "Figure 3"
	ConfidenceScore float64 `json:"confidence_score"`
}

// LogicChain is one argument thread connecting key points to a conclusion.
type LogicChain struct {
	Name              string `json:"name"`
	ArgumentFlow      string `json:"argument_flow"`
	ConclusionDerived string `json:"conclusion_derived"`
}

// Citation is a reference to a cited paper with its usage classification.
type Citation struct {
	TargetDOI   string `json:"target_paper_doi"`
	TargetTitle string `json:"target_paper_title"`
	UsageType   string `json:"usage_type"`
	Notes       string `json:"notes"`
}

// CoreAnalysis carries the three required analysis summaries.
type CoreAnalysis struct {
	CentralHypothesis  string `json:"central_hypothesis"`
	MethodologySummary string `json:"methodology_summary"`
	Significance       string `json:"significance"`
}

// Table is the complete knowledge table for one paper. KTID has the form
// KT_YYYY_Xxx and doubles as the markdown note's filename and graph node ID.
type Table struct {
	KTID            string       `json:"kt_id"`
	Meta            Meta         `json:"meta"`
	CoreAnalysis    CoreAnalysis `json:"core_analysis"`
	KeyPoints       []KeyPoint   `json:"key_points"`
	LogicChains     []LogicChain `json:"logic_chains"`
	CitationNetwork []Citation   `json:"citation_network"`
}

// Validation errors.
var (
	ErrInvalidKTID        = errors.New("kt_id must have format KT_YYYY_Xxx")
	ErrMissingHypothesis  = errors.New("core_analysis.central_hypothesis is required")
	ErrMissingMethodology = errors.New("core_analysis.methodology_summary is required")
	ErrMissingSignificance = errors.New("core_analysis.significance is required")
	ErrNoKeyPoints        = errors.New("at least one key point is required")
	ErrNoLogicChains      = errors.New("at least one logic chain is required")
	ErrInvalidKeyPointID  = errors.New("key point id must match KP<number>")
	ErrConfidenceRange    = errors.New("confidence_score must be between 0 and 1")
	ErrInvalidUsageType   = errors.New("usage_type must be Foundational, Refuting, or Comparison")
)

var (
	ktIDPattern     = regexp.MustCompile(`^KT_\d{4}_\w{3,}$`)
	keyPointPattern = regexp.MustCompile(`^KP\d+$`)
)

// Validate checks the table against the schema contract. Returns the first
// violation found.
func (t *Table) Validate() error {
	if err := validateKTID(t.KTID); err != nil {
		return err
	}

	if strings.TrimSpace(t.CoreAnalysis.CentralHypothesis) == "" {
		return ErrMissingHypothesis
	}
	if strings.TrimSpace(t.CoreAnalysis.MethodologySummary) == "" {
		return ErrMissingMethodology
	}
	if strings.TrimSpace(t.CoreAnalysis.Significance) == "" {
		return ErrMissingSignificance
	}

	if len(t.KeyPoints) == 0 {
		return ErrNoKeyPoints
	}
	for _, kp := range t.KeyPoints {
		if !keyPointPattern.MatchString(kp.ID) {
			return fmt.Errorf("%w: %q", ErrInvalidKeyPointID, kp.ID)
		}
		if kp.ConfidenceScore < 0 || kp.ConfidenceScore > 1 {
			return fmt.Errorf("%w: %s has %g", ErrConfidenceRange, kp.ID, kp.ConfidenceScore)
		}
	}

	if len(t.LogicChains) == 0 {
		return ErrNoLogicChains
	}

	for _, c := range t.CitationNetwork {
		switch c.UsageType {
		case UsageFoundational, UsageRefuting, UsageComparison:
		default:
			return fmt.Errorf("%w: %q", ErrInvalidUsageType, c.UsageType)
		}
	}

	return nil
}

// validateKTID checks the KT_YYYY_Xxx format and the plausibility of the
// embedded year.
func validateKTID(id string) error {
	if !ktIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidKTID, id)
	}

	parts := strings.SplitN(id, "_", 3)
	year, err := strconv.Atoi(parts[1])
	if err != nil || year < 1900 || year > 2100 {
		return fmt.Errorf("%w: year %s out of range", ErrInvalidKTID, parts[1])
	}
	return nil
}

// FoundationalDOIs returns the DOIs of Foundational citations, in order,
// capped at limit (no cap if limit <= 0). Citations without a DOI are
// skipped: they cannot be fetched for recursion.
func (t *Table) FoundationalDOIs(limit int) []string {
	var dois []string
	for _, c := range t.CitationNetwork {
		if c.UsageType != UsageFoundational || c.TargetDOI == "" {
			continue
		}
		dois = append(dois, c.TargetDOI)
		if limit > 0 && len(dois) == limit {
			break
		}
	}
	return dois
}
