package forecast

// holtModel is Holt's linear-trend exponential smoothing (additive trend, no
// seasonality). Smoothing parameters are chosen by grid search to minimize
// in-sample one-step-ahead squared error.
type holtModel struct {
	alpha  float64
	beta   float64
	level  float64
	trend  float64
	fitted []float64
}

func fitHolt(values []float64) *holtModel {
	best := &holtModel{}
	bestSSE := -1.0

	for a := 0.05; a <= 0.951; a += 0.05 {
		for b := 0.05; b <= 0.951; b += 0.05 {
			candidate := runHolt(values, a, b)
			sse := 0.0
			for i, f := range candidate.fitted {
				d := values[i] - f
				sse += d * d
			}
			if bestSSE < 0 || sse < bestSSE {
				bestSSE = sse
				best = candidate
			}
		}
	}

	return best
}

func runHolt(values []float64, alpha, beta float64) *holtModel {
	level := values[0]
	trend := values[1] - values[0]

	fitted := make([]float64, len(values))
	fitted[0] = values[0]
	for i := 1; i < len(values); i++ {
		fitted[i] = level + trend
		prevLevel := level
		level = alpha*values[i] + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}

	return &holtModel{alpha: alpha, beta: beta, level: level, trend: trend, fitted: fitted}
}

// forecast extrapolates level + i*trend for steps 1..h.
func (m *holtModel) forecast(h int) []float64 {
	out := make([]float64, 0, h)
	for i := 1; i <= h; i++ {
		out = append(out, m.level+float64(i)*m.trend)
	}
	return out
}
