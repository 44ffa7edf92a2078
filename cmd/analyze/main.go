// Command analyze runs a one-shot analysis from an income-statement CSV and
// writes the forecast, metrics, scenario and simulation tables to an output
// directory, without needing the server or its backing services.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/finforge/revcast/internal/config"
	"github.com/finforge/revcast/internal/export"
	"github.com/finforge/revcast/internal/loader"
	"github.com/finforge/revcast/internal/logging"
	"github.com/finforge/revcast/internal/services"
)

func main() {
	statementPath := flag.String("statement", "", "path to the income statement CSV (required)")
	outDir := flag.String("out", "output", "directory for exported tables")
	horizon := flag.Int("horizon", 0, "forecast horizon in years (0 uses the configured default)")
	simulations := flag.Int("simulations", 0, "Monte Carlo trial count (0 uses the configured default)")
	seed := flag.Int64("seed", -1, "simulation seed (-1 uses the configured default)")
	flag.Parse()

	if *statementPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	file, err := os.Open(*statementPath)
	if err != nil {
		log.Fatalf("Failed to open statement: %v", err)
	}
	defer file.Close()

	series, err := loader.NewStatementLoader(cfg.Forecast.RevenueUnitDivisor, logger).LoadRevenueSeries(file)
	if err != nil {
		log.Fatalf("Failed to load revenue series: %v", err)
	}

	opts := services.AnalysisOptions{Horizon: *horizon, Simulations: *simulations}
	if *seed >= 0 {
		opts.Seed = seed
	}

	analysis := services.NewAnalysisService(cfg, nil, logger)
	result, err := analysis.Analyze(context.Background(), series, opts)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	writers := []struct {
		name  string
		write func(f *os.File) error
	}{
		{"forecasts.csv", func(f *os.File) error { return export.WriteForecastCSV(f, result) }},
		{"metrics.csv", func(f *os.File) error { return export.WriteMetricsCSV(f, result.Metrics) }},
		{"analysis.json", func(f *os.File) error { return export.WriteJSON(f, result) }},
	}
	if result.Scenarios != nil {
		writers = append(writers, struct {
			name  string
			write func(f *os.File) error
		}{"scenarios.csv", func(f *os.File) error { return export.WriteScenarioCSV(f, result.Scenarios) }})
	}
	if result.Sensitivity != nil {
		writers = append(writers, struct {
			name  string
			write func(f *os.File) error
		}{"sensitivity.csv", func(f *os.File) error { return export.WriteSensitivityCSV(f, result.Sensitivity) }})
	}
	if result.MonteCarlo != nil {
		writers = append(writers, struct {
			name  string
			write func(f *os.File) error
		}{"montecarlo.csv", func(f *os.File) error { return export.WriteMonteCarloCSV(f, result.MonteCarlo) }})
	}

	for _, w := range writers {
		path := filepath.Join(*outDir, w.name)
		f, err := os.Create(path)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", path, err)
		}
		if err := w.write(f); err != nil {
			f.Close()
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		f.Close()
	}

	for _, failure := range result.Failures {
		logger.WithField("model", failure.Model).Warn(failure.Reason)
	}
	fmt.Printf("Analysis %s complete: %d models, output in %s\n", result.ID, len(result.Forecasts), *outDir)
}
