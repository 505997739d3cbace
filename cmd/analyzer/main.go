package main

import (
	"context"
	"os"

	"accesslens/internal/banner"
	"accesslens/internal/config"
	"accesslens/internal/enrichment"
	"accesslens/internal/ingestion"
	"accesslens/internal/logging"
	"accesslens/internal/report"

	"github.com/pterm/pterm"
)

func main() {
	// INFO until LOG_LEVEL has been read
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelInfo)

	cfg, err := config.Load()
	if err != nil {
		logger.WithCaller().Fatal("Failed to load configuration", logger.Args("error", err))
	}

	logger = logging.New(cfg.LogLevel)
	logger.Debug("Log level set", logger.Args("level", cfg.LogLevel))

	if cfg.ShowBanner {
		banner.Print("Access Log Analyzer")
	}

	logPath := resolveLogPath(os.Args[1:], cfg.Analyzer.AccessLogPath)

	logger.Debug("Configuration loaded",
		logger.Args(
			"log", logPath,
			"report_dir", cfg.Analyzer.ReportDir,
			"batch_size", cfg.Analyzer.BatchSize,
			"geoip_enabled", cfg.GeoIP.Enabled,
		))

	// GeoIP is optional; reports are written without a country column when unavailable
	var countries report.CountryResolver
	if cfg.GeoIP.Enabled {
		geoIP, err := enrichment.NewGeoIPEnricher(cfg.GeoIP.CountryDBPath, logger)
		if err != nil {
			logger.Warn("GeoIP enricher initialization failed, continuing without GeoIP", logger.Args("error", err))
		} else {
			defer geoIP.Close()
			countries = geoIP
			logger.Info("GeoIP enrichment enabled")
		}
	}

	coordinator := ingestion.NewCoordinator(countries, logger, cfg.Analyzer.ReportDir, cfg.Analyzer.BatchSize)

	result, err := coordinator.Run(context.Background(), logPath)
	if err != nil {
		logger.WithCaller().Fatal("Analysis failed", logger.Args("log", logPath, "error", err))
	}

	if err := report.PrintSummary(result.Summary, result.Files); err != nil {
		logger.Warn("Failed to render summary", logger.Args("error", err))
	}
}

// resolveLogPath returns the first positional argument, even when empty,
// or fallback when none was given.
func resolveLogPath(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}
	return fallback
}
