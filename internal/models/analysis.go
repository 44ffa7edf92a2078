package models

import (
	"time"

	"github.com/finforge/revcast/internal/forecast"
)

// AnalysisResult is the read-only bundle produced by one analysis run. It is
// created fresh per run and never mutated after being returned; rendering and
// export collaborators consume it through simple accessors.
type AnalysisResult struct {
	ID          string                               `json:"id"`
	CreatedAt   time.Time                            `json:"created_at"`
	Horizon     int                                  `json:"horizon"`
	Simulations int                                  `json:"simulations"`
	Seed        int64                                `json:"seed"`
	Series      []forecast.Point                     `json:"series"`
	Forecasts   map[string]*forecast.ForecastResult  `json:"forecasts"`
	Metrics     []forecast.MetricsRecord             `json:"metrics"`
	Scenarios   map[string]*forecast.ScenarioResult  `json:"scenarios,omitempty"`
	Sensitivity []forecast.SensitivityRow            `json:"sensitivity,omitempty"`
	MonteCarlo  *forecast.MonteCarloResult           `json:"monte_carlo,omitempty"`
	Failures    []ModelFailureSummary                `json:"failures,omitempty"`
}

// ModelFailureSummary is the API-facing view of a per-model failure: the
// model name plus the reason, so a caller can retry with adjusted parameters.
type ModelFailureSummary struct {
	Model  string `json:"model"`
	Reason string `json:"reason"`
}

// SummarizeFailures converts collected runner failures for API payloads.
func SummarizeFailures(failures []forecast.ModelFailure) []ModelFailureSummary {
	if len(failures) == 0 {
		return nil
	}
	out := make([]ModelFailureSummary, 0, len(failures))
	for _, f := range failures {
		out = append(out, ModelFailureSummary{Model: f.Model, Reason: f.Reason()})
	}
	return out
}
