package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"accesslens/internal/analysis"
	"accesslens/internal/database"
	"accesslens/internal/database/repositories"
	"accesslens/internal/parser/accesslog"
	"accesslens/internal/report"

	"github.com/pterm/pterm"
)

// ErrAlreadyRunning is returned when Run is called while another run is in progress
var ErrAlreadyRunning = errors.New("analysis already running")

// RunResult describes one completed analysis
type RunResult struct {
	Stats    accesslog.ParseStats
	Entries  []analysis.Entry
	Summary  *analysis.Summary
	Files    []string
	Duration time.Duration
}

// Coordinator drives one analysis from the access log to the CSV reports
type Coordinator struct {
	parser    *accesslog.Parser
	countries report.CountryResolver
	logger    *pterm.Logger
	reportDir string
	batchSize int // Batch size for loading the aggregation store
	mu        sync.Mutex
	isRunning bool
}

// NewCoordinator creates a coordinator writing reports to reportDir.
// countries may be nil to disable country columns.
func NewCoordinator(
	countries report.CountryResolver,
	logger *pterm.Logger,
	reportDir string,
	batchSize int,
) *Coordinator {
	return &Coordinator{
		parser:    accesslog.NewParser(logger),
		countries: countries,
		logger:    logger,
		reportDir: reportDir,
		batchSize: batchSize,
	}
}

// Run parses logPath, classifies every record, computes the summaries in a
// fresh in-memory store and writes the reports.
func (c *Coordinator) Run(ctx context.Context, logPath string) (*RunResult, error) {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	c.isRunning = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.isRunning = false
		c.mu.Unlock()
	}()

	start := time.Now()
	c.logger.Info("Starting analysis", c.logger.Args("log", logPath, "reports", c.reportDir))

	records, stats, err := c.parser.ParseFile(logPath)
	if err != nil {
		return nil, err
	}
	if stats.Skipped > 0 {
		c.logger.Info("Lines not matching the access log format were skipped",
			c.logger.Args("skipped", stats.Skipped))
	}

	entries := analysis.Classify(records)

	summary, err := c.summarize(ctx, entries)
	if err != nil {
		return nil, err
	}

	writer := report.NewWriter(c.reportDir, c.countries, c.logger)
	files, err := writer.WriteAll(entries, summary)
	if err != nil {
		return nil, fmt.Errorf("write reports: %w", err)
	}

	result := &RunResult{
		Stats:    stats,
		Entries:  entries,
		Summary:  summary,
		Files:    files,
		Duration: time.Since(start),
	}

	c.logger.Info("Analysis finished",
		c.logger.Args(
			"records", len(entries),
			"vpn_requests", len(summary.VPN),
			"files", len(files),
			"duration_ms", result.Duration.Milliseconds(),
		))

	return result, nil
}

// IsRunning reports whether a run is in progress
func (c *Coordinator) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isRunning
}

func (c *Coordinator) summarize(ctx context.Context, entries []analysis.Entry) (*analysis.Summary, error) {
	db, err := database.NewConnection(c.logger)
	if err != nil {
		return nil, fmt.Errorf("open aggregation store: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			c.logger.Warn("Failed to close aggregation store", c.logger.Args("error", err))
		}
	}()

	repo := repositories.NewAnalysisRepository(db, c.logger)
	aggregator := analysis.NewAggregator(repo, c.logger, c.batchSize)

	summary, err := aggregator.Summarize(ctx, entries)
	if err != nil {
		c.logger.WithCaller().Error("Failed to compute summaries", c.logger.Args("error", err))
		return nil, err
	}
	return summary, nil
}
