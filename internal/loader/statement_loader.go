package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/finforge/revcast/internal/forecast"
	"github.com/sirupsen/logrus"
)

// StatementLoader extracts a revenue time series from an income-statement
// CSV export. The expected layout is one metric per row with the metric
// label in the first column, fiscal years as the remaining column headers,
// and an optional trailing TTM column that is ignored.
type StatementLoader struct {
	unitDivisor float64
	logger      *logrus.Logger
}

// NewStatementLoader creates a loader. unitDivisor normalizes raw statement
// values (for example 1e9 to express revenue in billions); values <= 0 fall
// back to no scaling.
func NewStatementLoader(unitDivisor float64, logger *logrus.Logger) *StatementLoader {
	if unitDivisor <= 0 {
		unitDivisor = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &StatementLoader{unitDivisor: unitDivisor, logger: logger}
}

// LoadRevenueSeries parses the CSV and returns the "Total Revenue" row as a
// validated series sorted by year. Columns whose header is not a year and
// cells that do not parse as numbers are skipped.
func (l *StatementLoader) LoadRevenueSeries(r io.Reader) (*forecast.RevenueSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("statement CSV has no data rows")
	}

	header := records[0]
	years := make(map[int]int) // column index -> year
	for col := 1; col < len(header); col++ {
		year, err := strconv.Atoi(strings.TrimSpace(header[col]))
		if err != nil {
			// Non-year column such as TTM.
			continue
		}
		years[col] = year
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("statement CSV header contains no year columns")
	}

	revenueRow, err := findRevenueRow(records[1:])
	if err != nil {
		return nil, err
	}

	points := make([]forecast.Point, 0, len(years))
	for col, year := range years {
		if col >= len(revenueRow) {
			continue
		}
		value, err := parseStatementValue(revenueRow[col])
		if err != nil {
			l.logger.WithFields(logrus.Fields{
				"year":  year,
				"value": revenueRow[col],
			}).Warn("Skipping unparseable revenue cell")
			continue
		}
		points = append(points, forecast.Point{Year: year, Value: value / l.unitDivisor})
	}

	sort.Slice(points, func(a, b int) bool { return points[a].Year < points[b].Year })

	series, err := forecast.NewRevenueSeries(points)
	if err != nil {
		return nil, fmt.Errorf("statement revenue row is not a usable series: %w", err)
	}
	return series, nil
}

func findRevenueRow(rows [][]string) ([]string, error) {
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(row[0]), "total revenue") {
			return row, nil
		}
	}
	return nil, fmt.Errorf("statement CSV has no Total Revenue row")
}

func parseStatementValue(cell string) (float64, error) {
	cleaned := strings.TrimSpace(cell)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	return strconv.ParseFloat(cleaned, 64)
}
