package analyze

import (
	"errors"
	"math"
	"sort"

	"locaudit/internal/audit"
)

// Aggregate computes the unweighted rounded mean of the dimension scores and
// orders the results ascending by score so the weakest dimensions lead the
// report. The sort is stable: ties keep evaluation order.
func Aggregate(results []audit.DimensionResult) (int, []audit.DimensionResult, error) {
	if len(results) == 0 {
		return 0, nil, errors.New("aggregate: no dimension results")
	}

	sum := 0
	for _, result := range results {
		sum += result.Score
	}
	overall := int(math.Round(float64(sum) / float64(len(results))))

	sorted := make([]audit.DimensionResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score < sorted[j].Score
	})
	for i := range sorted {
		sorted[i].Position = i
	}
	return overall, sorted, nil
}
