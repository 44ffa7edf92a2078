package forecast

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Scenario names.
const (
	ScenarioBull = "Bull"
	ScenarioBase = "Base"
	ScenarioBear = "Bear"
)

// Scenario growth multipliers. Bull discounts the recent run-rate, Base
// marks up the long-run average, Bear haircuts it.
const (
	bullRecentFactor = 0.85
	baseMeanFactor   = 1.2
	bearMeanFactor   = 0.6
)

// Sensitivity sweep bounds, fractional annual growth.
const (
	sensitivityMin  = -0.10
	sensitivityMax  = 0.60
	sensitivityStep = 0.05
)

// ScenarioResult is one named forward path compounded at a heuristic
// growth rate, with a human-readable rationale.
type ScenarioResult struct {
	Name        string  `json:"name"`
	GrowthRate  float64 `json:"growth_rate"`
	Points      []Point `json:"points"`
	Description string  `json:"description"`
}

// ScenarioGenerator derives Bull/Base/Bear paths from summary statistics of
// the historical series, independent of any fitted model.
type ScenarioGenerator struct {
	series *RevenueSeries
	logger *logrus.Logger
}

// NewScenarioGenerator creates a generator bound to the given series.
func NewScenarioGenerator(series *RevenueSeries, logger *logrus.Logger) *ScenarioGenerator {
	if logger == nil {
		logger = logrus.New()
	}
	return &ScenarioGenerator{series: series, logger: logger}
}

// Generate builds the three named scenarios for the horizon. The recent
// window needs three observations, so series shorter than four points
// cannot produce scenarios.
func (g *ScenarioGenerator) Generate(horizon int) (map[string]*ScenarioResult, error) {
	if horizon < 0 {
		return nil, NewInvalidArgumentErrorf("scenarios", "horizon must not be negative, got %d", horizon)
	}
	if g.series.Len() < recentWindow+1 {
		return nil, NewInsufficientDataErrorf("scenarios", "need at least %d observations, got %d", recentWindow+1, g.series.Len())
	}

	meanGrowth := mean(g.series.GrowthRates())
	recentGrowth := g.series.RecentGrowth(recentWindow)

	definitions := []struct {
		name        string
		growthRate  float64
		description string
	}{
		{ScenarioBull, recentGrowth * bullRecentFactor, "Demand momentum continues, market share expands"},
		{ScenarioBase, meanGrowth * baseMeanFactor, "Steady adoption, competitive market"},
		{ScenarioBear, meanGrowth * bearMeanFactor, "Market saturation, increased competition"},
	}

	futureYears := g.series.FutureYears(horizon)
	scenarios := make(map[string]*ScenarioResult, len(definitions))
	for _, def := range definitions {
		values := compound(g.series.LastValue(), def.growthRate, horizon)
		points := make([]Point, 0, horizon)
		for i, year := range futureYears {
			points = append(points, Point{Year: year, Value: values[i]})
		}
		scenarios[def.name] = &ScenarioResult{
			Name:        def.name,
			GrowthRate:  def.growthRate,
			Points:      points,
			Description: def.description,
		}
		g.logger.WithFields(logrus.Fields{
			"scenario":    def.name,
			"growth_rate": def.growthRate,
		}).Debug("Generated scenario")
	}

	return scenarios, nil
}

// SensitivityRow is one growth-rate assumption and its compounded outcome at
// the end of the horizon.
type SensitivityRow struct {
	GrowthRate  float64 `json:"growth_rate"`
	FinalValue  float64 `json:"final_value"`
	TotalGrowth float64 `json:"total_growth"`
}

// Sensitivity sweeps annual growth assumptions from -10% to +60% in
// 5-point steps and reports the final-horizon revenue each produces, so a
// reader can see how outcomes respond to the growth assumption alone.
func (g *ScenarioGenerator) Sensitivity(horizon int) ([]SensitivityRow, error) {
	if horizon < 0 {
		return nil, NewInvalidArgumentErrorf("sensitivity", "horizon must not be negative, got %d", horizon)
	}

	last := g.series.LastValue()
	steps := int(math.Round((sensitivityMax-sensitivityMin)/sensitivityStep)) + 1
	rows := make([]SensitivityRow, 0, steps)
	for i := 0; i < steps; i++ {
		rate := sensitivityMin + sensitivityStep*float64(i)
		final := last * math.Pow(1+rate, float64(horizon))
		rows = append(rows, SensitivityRow{
			GrowthRate:  rate,
			FinalValue:  final,
			TotalGrowth: final/last - 1,
		})
	}
	return rows, nil
}
