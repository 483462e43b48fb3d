package knowledge

import (
	"errors"
	"reflect"
	"testing"
)

// validTable returns a minimal table that passes validation; tests mutate
// copies of it.
func validTable() Table {
	return Table{
		KTID: "KT_2024_Smith",
		Meta: Meta{
			Title:   "Deep Learning for Climate Prediction",
			Authors: []string{"Smith, J.", "Doe, A."},
			Year:    2024,
			DOI:     "10.1000/climate.2024",
		},
		CoreAnalysis: CoreAnalysis{
			CentralHypothesis:  "Deep networks improve long-term prediction",
			MethodologySummary: "Hybrid CNN-LSTM against an ARIMA baseline",
			Significance:       "First demonstration at multi-decadal timescales",
		},
		KeyPoints: []KeyPoint{
			{ID: "KP1", Content: "23% lower RMSE than baseline", EvidenceAnchor: "Table 3", ConfidenceScore: 0.92},
		},
		LogicChains: []LogicChain{
			{Name: "Performance", ArgumentFlow: "KP1 -> conclusion", ConclusionDerived: "Model is superior"},
		},
		CitationNetwork: []Citation{
			{TargetDOI: "10.1000/lstm.2015", TargetTitle: "LSTM Networks", UsageType: UsageFoundational, Notes: "Core architecture"},
		},
	}
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Table)
		wantErr error
	}{
		{"valid table", func(*Table) {}, nil},
		{"bad kt_id format", func(tb *Table) { tb.KTID = "KT-2024-Smith" }, ErrInvalidKTID},
		{"kt_id year out of range", func(tb *Table) { tb.KTID = "KT_1algo_Smith" }, ErrInvalidKTID},
		{"missing hypothesis", func(tb *Table) { tb.CoreAnalysis.CentralHypothesis = "  " }, ErrMissingHypothesis},
		{"missing methodology", func(tb *Table) { tb.CoreAnalysis.MethodologySummary = "" }, ErrMissingMethodology},
		{"missing significance", func(tb *Table) { tb.CoreAnalysis.Significance = "" }, ErrMissingSignificance},
		{"no key points", func(tb *Table) { tb.KeyPoints = nil }, ErrNoKeyPoints},
		{"bad key point id", func(tb *Table) { tb.KeyPoints[0].ID = "POINT1" }, ErrInvalidKeyPointID},
		{"confidence above one", func(tb *Table) { tb.KeyPoints[0].ConfidenceScore = 1.5 }, ErrConfidenceRange},
		{"confidence below zero", func(tb *Table) { tb.KeyPoints[0].ConfidenceScore = -0.1 }, ErrConfidenceRange},
		{"no logic chains", func(tb *Table) { tb.LogicChains = nil }, ErrNoLogicChains},
		{"bad usage type", func(tb *Table) { tb.CitationNetwork[0].UsageType = "Supporting" }, ErrInvalidUsageType},
		{"empty citation network is fine", func(tb *Table) { tb.CitationNetwork = nil }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := validTable()
			tt.mutate(&table)

			err := table.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFoundationalDOIs(t *testing.T) {
	table := validTable()
	table.CitationNetwork = []Citation{
		{TargetDOI: "10.1/a", UsageType: UsageFoundational},
		{TargetDOI: "10.1/b", UsageType: UsageComparison},
		{TargetDOI: "", UsageType: UsageFoundational}, // no DOI, not fetchable
		{TargetDOI: "10.1/c", UsageType: UsageFoundational},
		{TargetDOI: "10.1/d", UsageType: UsageFoundational},
	}

	if got, want := table.FoundationalDOIs(0), []string{"10.1/a", "10.1/c", "10.1/d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("FoundationalDOIs(0) = %v, want %v", got, want)
	}
	if got, want := table.FoundationalDOIs(2), []string{"10.1/a", "10.1/c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("FoundationalDOIs(2) = %v, want %v", got, want)
	}
}
