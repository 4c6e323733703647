package analyze

import (
	"testing"

	"locaudit/internal/audit"
)

func TestAggregateRoundsMean(t *testing.T) {
	results := []audit.DimensionResult{
		{Dimension: audit.DimensionCorrectness, Score: 90},
		{Dimension: audit.DimensionFluency, Score: 80},
		{Dimension: audit.DimensionSEO, Score: 71},
	}

	overall, sorted, err := Aggregate(results)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	// (90+80+71)/3 = 80.33 rounds down.
	if overall != 80 {
		t.Errorf("overall = %d, want 80", overall)
	}
	if sorted[0].Dimension != audit.DimensionSEO || sorted[2].Dimension != audit.DimensionCorrectness {
		t.Errorf("sort order = %v, want ascending by score", dimensionNames(sorted))
	}
	for i, result := range sorted {
		if result.Position != i {
			t.Errorf("Position[%d] = %d", i, result.Position)
		}
	}
}

func TestAggregateStableTies(t *testing.T) {
	results := []audit.DimensionResult{
		{Dimension: audit.DimensionCorrectness, Score: 70},
		{Dimension: audit.DimensionFluency, Score: 70},
	}

	_, sorted, err := Aggregate(results)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if sorted[0].Dimension != audit.DimensionCorrectness {
		t.Error("tie broke evaluation order")
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	results := []audit.DimensionResult{
		{Dimension: audit.DimensionCorrectness, Score: 90},
		{Dimension: audit.DimensionFluency, Score: 10},
	}

	if _, _, err := Aggregate(results); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if results[0].Dimension != audit.DimensionCorrectness {
		t.Error("input slice reordered")
	}
}

func TestAggregateEmpty(t *testing.T) {
	if _, _, err := Aggregate(nil); err == nil {
		t.Fatal("expected error for empty results")
	}
}

func dimensionNames(results []audit.DimensionResult) []string {
	names := make([]string, len(results))
	for i, result := range results {
		names[i] = string(result.Dimension)
	}
	return names
}
