package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/finforge/revcast/internal/forecast"
	"github.com/finforge/revcast/internal/models"
)

// WriteJSON writes the full analysis result as indented JSON.
func WriteJSON(w io.Writer, result *models.AnalysisResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode analysis result: %w", err)
	}
	return nil
}

// WriteForecastCSV writes a year-by-model grid of all forecasts. Model
// columns are sorted by name so output is stable across runs.
func WriteForecastCSV(w io.Writer, result *models.AnalysisResult) error {
	names := make([]string, 0, len(result.Forecasts))
	for name := range result.Forecasts {
		names = append(names, name)
	}
	sort.Strings(names)

	writer := csv.NewWriter(w)
	header := append([]string{"Year"}, names...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write forecast header: %w", err)
	}

	for i := 0; i < result.Horizon; i++ {
		row := make([]string, 0, len(names)+1)
		year := 0
		for _, name := range names {
			if i < len(result.Forecasts[name].Points) {
				year = result.Forecasts[name].Points[i].Year
				break
			}
		}
		row = append(row, strconv.Itoa(year))
		for _, name := range names {
			points := result.Forecasts[name].Points
			if i < len(points) {
				row = append(row, formatValue(points[i].Value))
			} else {
				row = append(row, "")
			}
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write forecast row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteMetricsCSV writes the accuracy records table. An undefined MAPE is
// written as an empty cell.
func WriteMetricsCSV(w io.Writer, metrics []forecast.MetricsRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Model", "MAE", "RMSE", "MAPE", "R2"}); err != nil {
		return fmt.Errorf("failed to write metrics header: %w", err)
	}

	for _, m := range metrics {
		row := []string{m.Model, formatValue(m.MAE), formatValue(m.RMSE), formatValue(m.MAPE), formatValue(m.R2)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write metrics row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteScenarioCSV writes the scenario summary: rate, final-year value and
// rationale per scenario.
func WriteScenarioCSV(w io.Writer, scenarios map[string]*forecast.ScenarioResult) error {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Scenario", "GrowthRate", "FinalValue", "Description"}); err != nil {
		return fmt.Errorf("failed to write scenario header: %w", err)
	}

	for _, name := range names {
		s := scenarios[name]
		final := ""
		if len(s.Points) > 0 {
			final = formatValue(s.Points[len(s.Points)-1].Value)
		}
		row := []string{s.Name, formatValue(s.GrowthRate), final, s.Description}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write scenario row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSensitivityCSV writes the growth-rate sweep: each assumed annual rate
// with its final-horizon value and the implied total growth.
func WriteSensitivityCSV(w io.Writer, rows []forecast.SensitivityRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"GrowthRate", "FinalValue", "TotalGrowth"}); err != nil {
		return fmt.Errorf("failed to write sensitivity header: %w", err)
	}

	for _, row := range rows {
		record := []string{formatValue(row.GrowthRate), formatValue(row.FinalValue), formatValue(row.TotalGrowth)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write sensitivity row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteMonteCarloCSV writes the per-year percentile bands.
func WriteMonteCarloCSV(w io.Writer, result *forecast.MonteCarloResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Year", "P10", "P25", "Median", "P75", "P90", "Mean"}); err != nil {
		return fmt.Errorf("failed to write simulation header: %w", err)
	}

	for i, year := range result.Years {
		row := []string{
			strconv.Itoa(year),
			formatValue(result.P10[i]),
			formatValue(result.P25[i]),
			formatValue(result.Median[i]),
			formatValue(result.P75[i]),
			formatValue(result.P90[i]),
			formatValue(result.Mean[i]),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write simulation row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
