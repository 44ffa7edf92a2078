package forecast

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Catalogue model names. These are the keys under which forecasts and
// metrics are recorded for the lifetime of a run.
const (
	ModelLinear           = "Linear Regression"
	ModelPolynomial2      = "Polynomial_2"
	ModelPolynomial3      = "Polynomial_3"
	ModelExpSmoothing     = "Exponential Smoothing"
	ModelGrowthCAGR       = "Growth Rate (CAGR)"
	ModelGrowthRecent     = "Growth Rate (Recent)"
	ModelRandomForest     = "Random Forest"
	ModelGradientBoosting = "Gradient Boosting"
	ModelEnsemble         = "Ensemble"
)

// Growth-rate method names accepted by GrowthRate.
const (
	GrowthMethodCAGR   = "cagr"
	GrowthMethodRecent = "recent"
)

// Tree-ensemble hyperparameters. Fixed seeds keep refits reproducible.
const (
	forestTrees  = 100
	forestDepth  = 5
	forestSeed   = 42
	boostTrees   = 100
	boostDepth   = 3
	boostLR      = 0.1
	recentWindow = 3
)

// ForecastResult is one model's forecast: contiguous future years starting
// at the year after the last observation.
type ForecastResult struct {
	Model  string  `json:"model"`
	Points []Point `json:"points"`
}

// ModelFailure pairs a model name with the error that stopped it, so batch
// callers can report per-model failures without losing the survivors.
type ModelFailure struct {
	Model string `json:"model"`
	Err   error  `json:"-"`
}

// Reason returns the failure message for API payloads.
func (f ModelFailure) Reason() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// Runner fits the forecasting catalogue against a single revenue series.
// Its forecast and metric maps are append-only for the lifetime of the run;
// a Runner is owned by one analysis run and must not be shared across runs.
type Runner struct {
	series *RevenueSeries
	logger *logrus.Logger

	forecasts    map[string]*ForecastResult
	metrics      map[string]MetricsRecord
	metricsOrder []string
}

// NewRunner creates a model runner bound to the given series.
func NewRunner(series *RevenueSeries, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{
		series:    series,
		logger:    logger,
		forecasts: make(map[string]*ForecastResult),
		metrics:   make(map[string]MetricsRecord),
	}
}

// Series returns the historical series this runner fits against.
func (r *Runner) Series() *RevenueSeries {
	return r.series
}

func validateHorizon(model string, horizon int) error {
	if horizon < 0 {
		return NewInvalidArgumentErrorf(model, "horizon must not be negative, got %d", horizon)
	}
	return nil
}

func (r *Runner) record(model string, values []float64, horizon int) *ForecastResult {
	points := make([]Point, 0, horizon)
	for i, year := range r.series.FutureYears(horizon) {
		points = append(points, Point{Year: year, Value: values[i]})
	}
	result := &ForecastResult{Model: model, Points: points}
	r.forecasts[model] = result
	return result
}

func (r *Runner) recordMetrics(model string, predicted []float64) {
	if _, seen := r.metrics[model]; !seen {
		r.metricsOrder = append(r.metricsOrder, model)
	}
	r.metrics[model] = computeMetrics(model, r.series.Values(), predicted)
}

// Linear fits ordinary least squares of value on year and extrapolates the
// line for the requested horizon.
func (r *Runner) Linear(horizon int) (*ForecastResult, error) {
	if err := validateHorizon(ModelLinear, horizon); err != nil {
		return nil, err
	}

	model := fitLinear(r.series.Years(), r.series.Values())

	fitted := make([]float64, 0, r.series.Len())
	for _, year := range r.series.Years() {
		fitted = append(fitted, model.predict(year))
	}
	r.recordMetrics(ModelLinear, fitted)

	values := make([]float64, 0, horizon)
	for _, year := range r.series.FutureYears(horizon) {
		values = append(values, model.predict(year))
	}
	return copyResult(r.record(ModelLinear, values, horizon)), nil
}

// Polynomial fits least squares in a centered polynomial year basis of the
// given degree (2 or 3) and evaluates the basis on future years.
func (r *Runner) Polynomial(degree, horizon int) (*ForecastResult, error) {
	name, ok := polynomialName(degree)
	if !ok {
		return nil, NewInvalidArgumentErrorf("Polynomial", "unsupported degree %d, expected 2 or 3", degree)
	}
	if err := validateHorizon(name, horizon); err != nil {
		return nil, err
	}

	model, err := fitPolynomial(name, degree, r.series.Years(), r.series.Values())
	if err != nil {
		return nil, err
	}

	fitted := make([]float64, 0, r.series.Len())
	for _, year := range r.series.Years() {
		fitted = append(fitted, model.predict(year))
	}
	r.recordMetrics(name, fitted)

	values := make([]float64, 0, horizon)
	for _, year := range r.series.FutureYears(horizon) {
		values = append(values, model.predict(year))
	}
	return copyResult(r.record(name, values, horizon)), nil
}

func polynomialName(degree int) (string, bool) {
	switch degree {
	case 2:
		return ModelPolynomial2, true
	case 3:
		return ModelPolynomial3, true
	default:
		return "", false
	}
}

// ExponentialSmoothing fits Holt's linear-trend method and extrapolates
// level plus trend for the horizon.
func (r *Runner) ExponentialSmoothing(horizon int) (*ForecastResult, error) {
	if err := validateHorizon(ModelExpSmoothing, horizon); err != nil {
		return nil, err
	}

	model := fitHolt(r.series.Values())
	r.logger.WithFields(logrus.Fields{
		"model": ModelExpSmoothing,
		"alpha": model.alpha,
		"beta":  model.beta,
	}).Debug("Selected smoothing parameters")

	r.recordMetrics(ModelExpSmoothing, model.fitted)

	return copyResult(r.record(ModelExpSmoothing, model.forecast(horizon), horizon)), nil
}

// GrowthRate produces a compounding forecast from a summary growth rate.
// Method "cagr" uses the full-period compound annual growth rate; "recent"
// uses the mean year-over-year change across the final three observations.
// Growth forecasts are formulas over summary statistics, not fitted models,
// so no accuracy record is produced.
func (r *Runner) GrowthRate(method string, horizon int) (*ForecastResult, float64, error) {
	var name string
	var rate float64

	switch method {
	case GrowthMethodCAGR:
		name = ModelGrowthCAGR
		rate = CAGR(r.series)
	case GrowthMethodRecent:
		name = ModelGrowthRecent
		if r.series.Len() < recentWindow+1 {
			return nil, 0, NewInsufficientDataErrorf(ModelGrowthRecent, "need at least %d observations, got %d", recentWindow+1, r.series.Len())
		}
		rate = r.series.RecentGrowth(recentWindow)
	default:
		return nil, 0, NewInvalidArgumentErrorf("Growth Rate", "unknown method %q, expected %q or %q", method, GrowthMethodCAGR, GrowthMethodRecent)
	}

	if err := validateHorizon(name, horizon); err != nil {
		return nil, 0, err
	}

	values := compound(r.series.LastValue(), rate, horizon)
	return copyResult(r.record(name, values, horizon)), rate, nil
}

// CAGR is the compound annual growth rate over the whole series.
func CAGR(series *RevenueSeries) float64 {
	n := float64(series.Len() - 1)
	return math.Pow(series.LastValue()/series.FirstValue(), 1/n) - 1
}

// RandomForest fits a bagged tree ensemble on (year, value) pairs. Beyond
// the observed year range the forecast holds flat at the boundary leaves.
func (r *Runner) RandomForest(horizon int) (*ForecastResult, error) {
	if err := validateHorizon(ModelRandomForest, horizon); err != nil {
		return nil, err
	}

	xs := yearsAsFloats(r.series.Years())
	model := fitRandomForest(xs, r.series.Values(), forestTrees, forestDepth, forestSeed)

	fitted := make([]float64, 0, len(xs))
	for _, x := range xs {
		fitted = append(fitted, model.predict(x))
	}
	r.recordMetrics(ModelRandomForest, fitted)

	values := make([]float64, 0, horizon)
	for _, year := range r.series.FutureYears(horizon) {
		values = append(values, model.predict(float64(year)))
	}
	return copyResult(r.record(ModelRandomForest, values, horizon)), nil
}

// GradientBoosting fits a boosted tree ensemble on (year, value) pairs with
// the same flat extrapolation property as RandomForest.
func (r *Runner) GradientBoosting(horizon int) (*ForecastResult, error) {
	if err := validateHorizon(ModelGradientBoosting, horizon); err != nil {
		return nil, err
	}

	xs := yearsAsFloats(r.series.Years())
	model := fitGradientBoosting(xs, r.series.Values(), boostTrees, boostDepth, boostLR)

	fitted := make([]float64, 0, len(xs))
	for _, x := range xs {
		fitted = append(fitted, model.predict(x))
	}
	r.recordMetrics(ModelGradientBoosting, fitted)

	values := make([]float64, 0, horizon)
	for _, year := range r.series.FutureYears(horizon) {
		values = append(values, model.predict(float64(year)))
	}
	return copyResult(r.record(ModelGradientBoosting, values, horizon)), nil
}

// DefaultEnsembleModels is the default constituent set for Ensemble.
func DefaultEnsembleModels() []string {
	return []string{ModelPolynomial2, ModelExpSmoothing, ModelGradientBoosting}
}

// Ensemble averages already-produced forecasts elementwise across the given
// constituents (default set when nil). Constituents that have not been run
// yet, or whose cached forecast was produced for a different horizon, are
// fitted on demand.
func (r *Runner) Ensemble(horizon int, constituents []string) (*ForecastResult, error) {
	if err := validateHorizon(ModelEnsemble, horizon); err != nil {
		return nil, err
	}
	if constituents == nil {
		constituents = DefaultEnsembleModels()
	}
	if len(constituents) == 0 {
		return nil, NewInvalidArgumentErrorf(ModelEnsemble, "constituent list must not be empty")
	}

	members := make([]*ForecastResult, 0, len(constituents))
	for _, name := range constituents {
		cached, ok := r.forecasts[name]
		if !ok || len(cached.Points) != horizon {
			if err := r.runByName(name, horizon); err != nil {
				return nil, err
			}
			cached = r.forecasts[name]
		}
		members = append(members, cached)
	}

	values := make([]float64, horizon)
	for i := range values {
		sum := 0.0
		for _, m := range members {
			sum += m.Points[i].Value
		}
		values[i] = sum / float64(len(members))
	}

	return copyResult(r.record(ModelEnsemble, values, horizon)), nil
}

// runByName dispatches a catalogue model by its recorded name. Ensemble is
// deliberately excluded so constituents cannot recurse.
func (r *Runner) runByName(name string, horizon int) error {
	var err error
	switch name {
	case ModelLinear:
		_, err = r.Linear(horizon)
	case ModelPolynomial2:
		_, err = r.Polynomial(2, horizon)
	case ModelPolynomial3:
		_, err = r.Polynomial(3, horizon)
	case ModelExpSmoothing:
		_, err = r.ExponentialSmoothing(horizon)
	case ModelGrowthCAGR:
		_, _, err = r.GrowthRate(GrowthMethodCAGR, horizon)
	case ModelGrowthRecent:
		_, _, err = r.GrowthRate(GrowthMethodRecent, horizon)
	case ModelRandomForest:
		_, err = r.RandomForest(horizon)
	case ModelGradientBoosting:
		_, err = r.GradientBoosting(horizon)
	default:
		return NewInvalidArgumentErrorf(ModelEnsemble, "unknown constituent model %q", name)
	}
	return err
}

// RunAll fits the full catalogue plus the default ensemble. It is not
// fail-fast: each model's failure is collected and the rest keep going, so
// downstream consumers work with whichever models succeeded.
func (r *Runner) RunAll(horizon int, ensembleModels []string) []ModelFailure {
	var failures []ModelFailure
	report := func(model string, err error) {
		if err != nil {
			r.logger.WithField("model", model).WithError(err).Warn("Model fit failed")
			failures = append(failures, ModelFailure{Model: model, Err: err})
		}
	}

	_, err := r.Linear(horizon)
	report(ModelLinear, err)

	_, err = r.Polynomial(2, horizon)
	report(ModelPolynomial2, err)

	_, err = r.Polynomial(3, horizon)
	report(ModelPolynomial3, err)

	_, err = r.ExponentialSmoothing(horizon)
	report(ModelExpSmoothing, err)

	_, _, err = r.GrowthRate(GrowthMethodCAGR, horizon)
	report(ModelGrowthCAGR, err)

	_, _, err = r.GrowthRate(GrowthMethodRecent, horizon)
	report(ModelGrowthRecent, err)

	_, err = r.RandomForest(horizon)
	report(ModelRandomForest, err)

	_, err = r.GradientBoosting(horizon)
	report(ModelGradientBoosting, err)

	_, err = r.Ensemble(horizon, ensembleModels)
	report(ModelEnsemble, err)

	return failures
}

// Forecast returns a copy of the named model's forecast, if it has run.
func (r *Runner) Forecast(name string) (*ForecastResult, bool) {
	result, ok := r.forecasts[name]
	if !ok {
		return nil, false
	}
	return copyResult(result), true
}

// Forecasts returns copies of every recorded forecast keyed by model name.
func (r *Runner) Forecasts() map[string]*ForecastResult {
	out := make(map[string]*ForecastResult, len(r.forecasts))
	for name, result := range r.forecasts {
		out[name] = copyResult(result)
	}
	return out
}

// Metrics returns the collected accuracy records in fit order.
func (r *Runner) Metrics() []MetricsRecord {
	out := make([]MetricsRecord, 0, len(r.metricsOrder))
	for _, name := range r.metricsOrder {
		out = append(out, r.metrics[name])
	}
	return out
}

func copyResult(result *ForecastResult) *ForecastResult {
	points := make([]Point, len(result.Points))
	copy(points, result.Points)
	return &ForecastResult{Model: result.Model, Points: points}
}

func compound(last, rate float64, horizon int) []float64 {
	out := make([]float64, 0, horizon)
	current := last
	for i := 0; i < horizon; i++ {
		current *= 1 + rate
		out = append(out, current)
	}
	return out
}

func yearsAsFloats(years []int) []float64 {
	out := make([]float64, len(years))
	for i, y := range years {
		out[i] = float64(y)
	}
	return out
}
