package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/finforge/revcast/internal/config"
	"github.com/finforge/revcast/internal/database"
	"github.com/finforge/revcast/internal/forecast"
	"github.com/finforge/revcast/internal/models"
)

// AnalysisOptions shape one analysis run. Zero-valued fields fall back to
// the configured defaults.
type AnalysisOptions struct {
	Horizon        int      `json:"horizon"`
	Simulations    int      `json:"simulations"`
	Seed           *int64   `json:"seed,omitempty"`
	EnsembleModels []string `json:"ensemble_models,omitempty"`
}

// AnalysisService orchestrates one full analysis run: the model catalogue,
// the ensemble, the scenario paths and the Monte Carlo bands. Each call
// builds its own runner, generator and simulator, so concurrent runs never
// share state.
type AnalysisService struct {
	cfg    *config.Config
	repo   *database.AnalysisRepository
	logger *logrus.Logger
}

// NewAnalysisService creates an analysis service. repo may be nil, in which
// case runs are not persisted.
func NewAnalysisService(cfg *config.Config, repo *database.AnalysisRepository, logger *logrus.Logger) *AnalysisService {
	if logger == nil {
		logger = logrus.New()
	}
	return &AnalysisService{cfg: cfg, repo: repo, logger: logger}
}

// Analyze runs the full catalogue against the series. The batch is not
// fail-fast: per-model failures land in the result's Failures list while
// the surviving models, scenarios and simulation still complete. Only
// invalid request parameters abort the run as a whole.
func (s *AnalysisService) Analyze(ctx context.Context, series *forecast.RevenueSeries, opts AnalysisOptions) (*models.AnalysisResult, error) {
	horizon := opts.Horizon
	if horizon == 0 {
		horizon = s.cfg.Forecast.HorizonYears
	}
	if horizon < 0 {
		return nil, forecast.NewInvalidArgumentErrorf("analysis", "horizon must not be negative, got %d", opts.Horizon)
	}
	if max := s.cfg.Forecast.MaxHorizonYears; max > 0 && horizon > max {
		return nil, forecast.NewInvalidArgumentErrorf("analysis", "horizon %d exceeds maximum %d", horizon, max)
	}

	simulations := opts.Simulations
	if simulations == 0 {
		simulations = s.cfg.Forecast.Simulations
	}
	if simulations < 1 {
		return nil, forecast.NewInvalidArgumentErrorf("analysis", "simulation count must be at least 1, got %d", opts.Simulations)
	}
	if max := s.cfg.Forecast.MaxSimulations; max > 0 && simulations > max {
		return nil, forecast.NewInvalidArgumentErrorf("analysis", "simulation count %d exceeds maximum %d", simulations, max)
	}

	seed := s.cfg.Forecast.Seed
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	ensembleModels := opts.EnsembleModels
	if ensembleModels == nil && len(s.cfg.Forecast.EnsembleModels) > 0 {
		ensembleModels = s.cfg.Forecast.EnsembleModels
	}

	runID := uuid.New().String()
	runLogger := s.logger.WithFields(logrus.Fields{
		"run_id":  runID,
		"horizon": horizon,
	})
	runLogger.Info("Starting analysis run")
	start := time.Now()

	runner := forecast.NewRunner(series, s.logger)
	failures := runner.RunAll(horizon, ensembleModels)

	result := &models.AnalysisResult{
		ID:          runID,
		CreatedAt:   time.Now().UTC(),
		Horizon:     horizon,
		Simulations: simulations,
		Seed:        seed,
		Series:      series.Points(),
		Forecasts:   runner.Forecasts(),
		Metrics:     forecast.NewReporter(runner.Metrics()).Ranked(),
	}

	generator := forecast.NewScenarioGenerator(series, s.logger)
	scenarios, err := generator.Generate(horizon)
	if err != nil {
		runLogger.WithError(err).Warn("Scenario generation failed")
		failures = append(failures, forecast.ModelFailure{Model: "Scenarios", Err: err})
	} else {
		result.Scenarios = scenarios
	}

	sensitivity, err := generator.Sensitivity(horizon)
	if err != nil {
		runLogger.WithError(err).Warn("Sensitivity sweep failed")
		failures = append(failures, forecast.ModelFailure{Model: "Sensitivity", Err: err})
	} else {
		result.Sensitivity = sensitivity
	}

	simulator := forecast.NewMonteCarloSimulator(series, seed, s.cfg.Forecast.MonteCarloWorkers, s.logger)
	monteCarlo, err := simulator.Run(horizon, simulations)
	if err != nil {
		runLogger.WithError(err).Warn("Monte Carlo simulation failed")
		failures = append(failures, forecast.ModelFailure{Model: "Monte Carlo", Err: err})
	} else {
		result.MonteCarlo = monteCarlo
	}

	result.Failures = models.SummarizeFailures(failures)

	if s.repo != nil {
		if err := s.repo.Save(ctx, result); err != nil {
			// Persistence is best-effort; the caller still gets the result.
			runLogger.WithError(err).Error("Failed to persist analysis run")
		}
	}

	runLogger.WithFields(logrus.Fields{
		"duration_ms": time.Since(start).Milliseconds(),
		"models":      len(result.Forecasts),
		"failures":    len(result.Failures),
	}).Info("Analysis run complete")

	return result, nil
}

// TopMetrics returns the configured top-N accuracy view for a completed run.
func (s *AnalysisService) TopMetrics(result *models.AnalysisResult) []forecast.MetricsRecord {
	return forecast.NewReporter(result.Metrics).TopN(s.cfg.Forecast.MetricsTopN)
}
