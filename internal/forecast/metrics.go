package forecast

import (
	"math"
	"sort"
)

// MetricsRecord holds in-sample accuracy metrics for one fitted model.
// MAPE is NaN when any historical value is zero; the ratio is undefined and
// reporting it as undefined beats silently excluding points from the ranking
// metric.
type MetricsRecord struct {
	Model string  `json:"model"`
	MAE   float64 `json:"mae"`
	RMSE  float64 `json:"rmse"`
	MAPE  float64 `json:"mape"`
	R2    float64 `json:"r2"`
}

func computeMetrics(model string, actual, predicted []float64) MetricsRecord {
	n := float64(len(actual))

	var absSum, sqSum, pctSum float64
	pctDefined := true
	for i, a := range actual {
		d := a - predicted[i]
		absSum += math.Abs(d)
		sqSum += d * d
		if a == 0 {
			pctDefined = false
		} else {
			pctSum += math.Abs(d / a)
		}
	}

	mape := math.NaN()
	if pctDefined {
		mape = pctSum / n * 100
	}

	m := mean(actual)
	ssTot := 0.0
	for _, a := range actual {
		d := a - m
		ssTot += d * d
	}
	r2 := math.NaN()
	if ssTot > 0 {
		r2 = 1 - sqSum/ssTot
	}

	return MetricsRecord{
		Model: model,
		MAE:   absSum / n,
		RMSE:  math.Sqrt(sqSum / n),
		MAPE:  mape,
		R2:    r2,
	}
}

// Reporter ranks collected accuracy records for reporting collaborators. It
// is a pure read over already-computed state.
type Reporter struct {
	records []MetricsRecord
}

// NewReporter copies and ranks the given records ascending by MAPE, with
// undefined (NaN) MAPE values last.
func NewReporter(records []MetricsRecord) *Reporter {
	sorted := make([]MetricsRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(a, b int) bool {
		ma, mb := sorted[a].MAPE, sorted[b].MAPE
		if math.IsNaN(ma) {
			return false
		}
		if math.IsNaN(mb) {
			return true
		}
		return ma < mb
	})
	return &Reporter{records: sorted}
}

// Ranked returns all records sorted ascending by MAPE.
func (r *Reporter) Ranked() []MetricsRecord {
	out := make([]MetricsRecord, len(r.records))
	copy(out, r.records)
	return out
}

// TopN returns the n best records by MAPE. An empty reporter returns an
// empty slice, not an error.
func (r *Reporter) TopN(n int) []MetricsRecord {
	if n > len(r.records) {
		n = len(r.records)
	}
	if n < 0 {
		n = 0
	}
	out := make([]MetricsRecord, n)
	copy(out, r.records[:n])
	return out
}
