package forecast

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	return NewRunner(testSeries(t), testLogger())
}

func TestCAGRForecast(t *testing.T) {
	runner := newTestRunner(t)

	result, rate, err := runner.GrowthRate(GrowthMethodCAGR, 5)
	require.NoError(t, err)

	wantRate := math.Pow(130.5/5.0, 1.0/9) - 1
	assert.InDelta(t, wantRate, rate, 1e-9)

	require.Len(t, result.Points, 5)
	assert.Equal(t, 2026, result.Points[0].Year)
	assert.InDelta(t, 130.5*(1+rate), result.Points[0].Value, 1e-9)

	// forecast[H-1] compounds the rate H times from the last observation.
	assert.InDelta(t, 130.5*math.Pow(1+rate, 5), result.Points[4].Value, 1e-9)
}

func TestRecentGrowthForecast(t *testing.T) {
	runner := newTestRunner(t)

	result, rate, err := runner.GrowthRate(GrowthMethodRecent, 3)
	require.NoError(t, err)

	wantRate := ((60.9/27.0 - 1) + (130.5/60.9 - 1)) / 2
	assert.InDelta(t, wantRate, rate, 1e-9)
	require.Len(t, result.Points, 3)
	assert.InDelta(t, 130.5*(1+rate), result.Points[0].Value, 1e-9)
}

func TestRecentGrowthNeedsFourObservations(t *testing.T) {
	series, err := NewRevenueSeries([]Point{
		{Year: 2023, Value: 10},
		{Year: 2024, Value: 12},
		{Year: 2025, Value: 15},
	})
	require.NoError(t, err)
	runner := NewRunner(series, testLogger())

	_, _, err = runner.GrowthRate(GrowthMethodRecent, 5)
	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, ModelGrowthRecent, insufficient.Model)
}

func TestUnknownGrowthMethod(t *testing.T) {
	runner := newTestRunner(t)

	_, _, err := runner.GrowthRate("median", 5)
	var invalid *InvalidArgumentError
	assert.ErrorAs(t, err, &invalid)
}

func TestLinearForecastFollowsFittedLine(t *testing.T) {
	// A perfectly linear series must be extrapolated exactly.
	series, err := NewRevenueSeries([]Point{
		{Year: 2020, Value: 10},
		{Year: 2021, Value: 12},
		{Year: 2022, Value: 14},
		{Year: 2023, Value: 16},
		{Year: 2024, Value: 18},
	})
	require.NoError(t, err)
	runner := NewRunner(series, testLogger())

	result, err := runner.Linear(3)
	require.NoError(t, err)
	require.Len(t, result.Points, 3)
	assert.InDelta(t, 20, result.Points[0].Value, 1e-9)
	assert.InDelta(t, 22, result.Points[1].Value, 1e-9)
	assert.InDelta(t, 24, result.Points[2].Value, 1e-9)

	metrics := runner.Metrics()
	require.Len(t, metrics, 1)
	assert.InDelta(t, 0, metrics[0].MAE, 1e-9)
	assert.InDelta(t, 1, metrics[0].R2, 1e-9)
}

func TestPolynomialFitsQuadraticExactly(t *testing.T) {
	// value = (year-2020)^2 + 5
	points := make([]Point, 0, 6)
	for year := 2020; year < 2026; year++ {
		d := float64(year - 2020)
		points = append(points, Point{Year: year, Value: d*d + 5})
	}
	series, err := NewRevenueSeries(points)
	require.NoError(t, err)
	runner := NewRunner(series, testLogger())

	result, err := runner.Polynomial(2, 2)
	require.NoError(t, err)
	require.Len(t, result.Points, 2)
	assert.InDelta(t, 41, result.Points[0].Value, 1e-6) // (2026-2020)^2+5
	assert.InDelta(t, 54, result.Points[1].Value, 1e-6)
}

func TestPolynomialInsufficientData(t *testing.T) {
	series, err := NewRevenueSeries([]Point{
		{Year: 2023, Value: 10},
		{Year: 2024, Value: 12},
		{Year: 2025, Value: 15},
	})
	require.NoError(t, err)
	runner := NewRunner(series, testLogger())

	_, err = runner.Polynomial(3, 5)
	var insufficient *InsufficientDataError
	assert.ErrorAs(t, err, &insufficient)
}

func TestPolynomialUnsupportedDegree(t *testing.T) {
	runner := newTestRunner(t)

	_, err := runner.Polynomial(5, 3)
	var invalid *InvalidArgumentError
	assert.ErrorAs(t, err, &invalid)
}

func TestExponentialSmoothingTrendExtrapolation(t *testing.T) {
	// On a perfect linear trend Holt converges to the exact line.
	series, err := NewRevenueSeries([]Point{
		{Year: 2018, Value: 10},
		{Year: 2019, Value: 13},
		{Year: 2020, Value: 16},
		{Year: 2021, Value: 19},
		{Year: 2022, Value: 22},
		{Year: 2023, Value: 25},
		{Year: 2024, Value: 28},
	})
	require.NoError(t, err)
	runner := NewRunner(series, testLogger())

	result, err := runner.ExponentialSmoothing(2)
	require.NoError(t, err)
	require.Len(t, result.Points, 2)
	assert.InDelta(t, 31, result.Points[0].Value, 0.1)
	assert.InDelta(t, 34, result.Points[1].Value, 0.2)
}

func TestTreeEnsemblesExtrapolateFlat(t *testing.T) {
	runner := newTestRunner(t)

	forest, err := runner.RandomForest(5)
	require.NoError(t, err)
	boosting, err := runner.GradientBoosting(5)
	require.NoError(t, err)

	// Beyond the observed year range every future year hits the same
	// boundary leaves, so the forecast is flat by construction.
	for _, result := range []*ForecastResult{forest, boosting} {
		require.Len(t, result.Points, 5)
		first := result.Points[0].Value
		for _, p := range result.Points[1:] {
			assert.InDelta(t, first, p.Value, 1e-9, "model %s should extrapolate flat", result.Model)
		}
	}
}

func TestRandomForestIsSeededDeterministic(t *testing.T) {
	first, err := newTestRunner(t).RandomForest(5)
	require.NoError(t, err)
	second, err := newTestRunner(t).RandomForest(5)
	require.NoError(t, err)

	assert.Equal(t, first.Points, second.Points)
}

func TestEnsembleIsElementwiseMean(t *testing.T) {
	runner := newTestRunner(t)

	constituents := []string{ModelLinear, ModelGrowthCAGR}
	result, err := runner.Ensemble(4, constituents)
	require.NoError(t, err)
	require.Len(t, result.Points, 4)

	linear, ok := runner.Forecast(ModelLinear)
	require.True(t, ok)
	cagr, ok := runner.Forecast(ModelGrowthCAGR)
	require.True(t, ok)

	for i, p := range result.Points {
		want := (linear.Points[i].Value + cagr.Points[i].Value) / 2
		assert.InDelta(t, want, p.Value, 1e-9)
		assert.Equal(t, linear.Points[i].Year, p.Year)
	}
}

func TestEnsembleRunsMissingConstituents(t *testing.T) {
	runner := newTestRunner(t)

	// Nothing has been fitted yet; the default constituents are run on demand.
	result, err := runner.Ensemble(5, nil)
	require.NoError(t, err)
	assert.Len(t, result.Points, 5)

	for _, name := range DefaultEnsembleModels() {
		_, ok := runner.Forecast(name)
		assert.True(t, ok, "constituent %s should have been fitted", name)
	}
}

func TestEnsembleUnknownConstituent(t *testing.T) {
	runner := newTestRunner(t)

	_, err := runner.Ensemble(5, []string{"ARIMA"})
	var invalid *InvalidArgumentError
	assert.ErrorAs(t, err, &invalid)
}

func TestZeroHorizonReturnsEmptyForecasts(t *testing.T) {
	runner := newTestRunner(t)

	failures := runner.RunAll(0, nil)
	assert.Empty(t, failures)

	for name, result := range runner.Forecasts() {
		assert.Empty(t, result.Points, "model %s should produce an empty forecast", name)
	}
	// Metrics are still computed from the in-sample fit.
	assert.NotEmpty(t, runner.Metrics())
}

func TestNegativeHorizonRejected(t *testing.T) {
	runner := newTestRunner(t)

	_, err := runner.Linear(-1)
	var invalid *InvalidArgumentError
	assert.ErrorAs(t, err, &invalid)
}

func TestRunAllIsNotFailFast(t *testing.T) {
	// Three observations: Polynomial_3 and the recent-growth window cannot
	// fit, everything else must still complete.
	series, err := NewRevenueSeries([]Point{
		{Year: 2023, Value: 10},
		{Year: 2024, Value: 14},
		{Year: 2025, Value: 20},
	})
	require.NoError(t, err)
	runner := NewRunner(series, testLogger())

	failures := runner.RunAll(5, nil)

	failed := make(map[string]bool, len(failures))
	for _, f := range failures {
		failed[f.Model] = true
		assert.NotEmpty(t, f.Reason())
	}
	assert.True(t, failed[ModelPolynomial3])
	assert.True(t, failed[ModelGrowthRecent])
	assert.Len(t, failures, 2)

	for _, name := range []string{ModelLinear, ModelPolynomial2, ModelExpSmoothing, ModelGrowthCAGR, ModelRandomForest, ModelGradientBoosting, ModelEnsemble} {
		_, ok := runner.Forecast(name)
		assert.True(t, ok, "model %s should have completed", name)
	}
}

func TestRunAllFullCatalogue(t *testing.T) {
	runner := newTestRunner(t)

	failures := runner.RunAll(5, nil)
	assert.Empty(t, failures)
	assert.Len(t, runner.Forecasts(), 9)

	// Fitted models report metrics; growth formulas and the ensemble do not.
	metrics := runner.Metrics()
	assert.Len(t, metrics, 6)
	for _, m := range metrics {
		assert.NotContains(t, []string{ModelGrowthCAGR, ModelGrowthRecent, ModelEnsemble}, m.Model)
	}

	// All forecasts cover exactly the same contiguous future years.
	for name, result := range runner.Forecasts() {
		require.Len(t, result.Points, 5, "model %s", name)
		for i, p := range result.Points {
			assert.Equal(t, 2026+i, p.Year, "model %s", name)
		}
	}
}

func TestMAPEScaleInvariance(t *testing.T) {
	base := newTestRunner(t)
	_, err := base.Linear(1)
	require.NoError(t, err)

	scaled := make([]Point, 0, len(testPoints()))
	for _, p := range testPoints() {
		scaled = append(scaled, Point{Year: p.Year, Value: p.Value * 1000})
	}
	scaledSeries, err := NewRevenueSeries(scaled)
	require.NoError(t, err)
	scaledRunner := NewRunner(scaledSeries, testLogger())
	_, err = scaledRunner.Linear(1)
	require.NoError(t, err)

	baseMAPE := base.Metrics()[0].MAPE
	scaledMAPE := scaledRunner.Metrics()[0].MAPE
	assert.InDelta(t, baseMAPE, scaledMAPE, 1e-9)
}
