package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finforge/revcast/internal/forecast"
	"github.com/finforge/revcast/internal/models"
)

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		ID:        "run-1",
		CreatedAt: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		Horizon:   2,
		Series: []forecast.Point{
			{Year: 2024, Value: 60.9},
			{Year: 2025, Value: 130.5},
		},
		Forecasts: map[string]*forecast.ForecastResult{
			"Linear Regression": {
				Model: "Linear Regression",
				Points: []forecast.Point{
					{Year: 2026, Value: 150.0},
					{Year: 2027, Value: 170.0},
				},
			},
			"Ensemble": {
				Model: "Ensemble",
				Points: []forecast.Point{
					{Year: 2026, Value: 160.0},
					{Year: 2027, Value: 185.5},
				},
			},
		},
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult()))

	var decoded models.AnalysisResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.ID)
	assert.Len(t, decoded.Forecasts, 2)
	assert.InDelta(t, 185.5, decoded.Forecasts["Ensemble"].Points[1].Value, 1e-9)
}

func TestWriteForecastCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecastCSV(&buf, sampleResult()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Model columns are sorted by name.
	assert.Equal(t, []string{"Year", "Ensemble", "Linear Regression"}, rows[0])
	assert.Equal(t, []string{"2026", "160.0000", "150.0000"}, rows[1])
	assert.Equal(t, []string{"2027", "185.5000", "170.0000"}, rows[2])
}

func TestWriteForecastCSVPadsShortColumns(t *testing.T) {
	result := sampleResult()
	result.Forecasts["Ensemble"].Points = result.Forecasts["Ensemble"].Points[:1]

	var buf bytes.Buffer
	require.NoError(t, WriteForecastCSV(&buf, result))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"2027", "", "170.0000"}, rows[2])
}

func TestWriteMetricsCSV(t *testing.T) {
	metrics := []forecast.MetricsRecord{
		{Model: "Linear Regression", MAE: 1.5, RMSE: 2.25, MAPE: 10.5, R2: 0.98},
		{Model: "Gradient Boosting", MAE: 0.5, RMSE: 0.75, MAPE: math.NaN(), R2: 0.99},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMetricsCSV(&buf, metrics))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Model", "MAE", "RMSE", "MAPE", "R2"}, rows[0])
	assert.Equal(t, "10.5000", rows[1][3])
	// Undefined MAPE renders as an empty cell, not "NaN".
	assert.Equal(t, "", rows[2][3])
}

func TestWriteScenarioCSV(t *testing.T) {
	scenarios := map[string]*forecast.ScenarioResult{
		"Bull": {
			Name:        "Bull",
			GrowthRate:  0.5,
			Points:      []forecast.Point{{Year: 2026, Value: 195.75}},
			Description: "Sustained momentum at a discount to recent growth",
		},
		"Bear": {
			Name:        "Bear",
			GrowthRate:  0.2,
			Points:      []forecast.Point{{Year: 2026, Value: 156.6}},
			Description: "Slowdown to a fraction of historical growth",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteScenarioCSV(&buf, scenarios))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// Rows are sorted by scenario name.
	assert.Equal(t, "Bear", rows[1][0])
	assert.Equal(t, "Bull", rows[2][0])
	assert.Equal(t, "195.7500", rows[2][2])
}

func TestWriteSensitivityCSV(t *testing.T) {
	rows := []forecast.SensitivityRow{
		{GrowthRate: -0.10, FinalValue: 77.06, TotalGrowth: -0.40951},
		{GrowthRate: 0.60, FinalValue: 1368.38, TotalGrowth: 9.48576},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSensitivityCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"GrowthRate", "FinalValue", "TotalGrowth"}, records[0])
	assert.Equal(t, []string{"-0.1000", "77.0600", "-0.4095"}, records[1])
	assert.Equal(t, []string{"0.6000", "1368.3800", "9.4858"}, records[2])
}

func TestWriteMonteCarloCSV(t *testing.T) {
	result := &forecast.MonteCarloResult{
		Years:  []int{2026, 2027},
		P10:    []float64{100, 110},
		P25:    []float64{120, 135},
		Median: []float64{150, 175},
		P75:    []float64{180, 220},
		P90:    []float64{210, 270},
		Mean:   []float64{152, 178},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMonteCarloCSV(&buf, result))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Year", "P10", "P25", "Median", "P75", "P90", "Mean"}, rows[0])
	assert.Equal(t, "2027", rows[2][0])
	assert.Equal(t, "270.0000", rows[2][5])
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1.2346", formatValue(1.23456))
	assert.Equal(t, "", formatValue(math.NaN()))
	assert.True(t, strings.HasPrefix(formatValue(-0.5), "-0.5000"))
}
