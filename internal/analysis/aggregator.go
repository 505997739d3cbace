package analysis

import (
	"context"
	"fmt"

	"accesslens/internal/category"
	"accesslens/internal/database/models"
	"accesslens/internal/database/repositories"
	"accesslens/internal/parser/accesslog"

	"github.com/pterm/pterm"
)

const defaultBatchSize = 500

// Entry is a parsed record together with the fields derived from it.
type Entry struct {
	Record   *accesslog.LogRecord
	Category category.Category
	Failure  bool
}

// Classify derives the category and failure flag of every record, keeping order.
func Classify(records []*accesslog.LogRecord) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, Entry{
			Record:   record,
			Category: category.Categorize(record.URL),
			Failure:  category.IsFailure(record.StatusCode),
		})
	}
	return entries
}

// Summary holds the four aggregate results of one run.
type Summary struct {
	Categories   []*repositories.KeyCount
	IPFailures   []*repositories.KeyCount
	UserFailures []*repositories.KeyCount
	VPN          []Entry
}

// Aggregator groups classified entries through an AnalysisRepository.
type Aggregator struct {
	repo      repositories.AnalysisRepository
	logger    *pterm.Logger
	batchSize int
}

// NewAggregator creates an aggregator; batchSize <= 0 selects the default.
func NewAggregator(repo repositories.AnalysisRepository, logger *pterm.Logger, batchSize int) *Aggregator {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Aggregator{
		repo:      repo,
		logger:    logger,
		batchSize: batchSize,
	}
}

// Summarize stores entries and computes the category, failure and VPN summaries.
func (a *Aggregator) Summarize(ctx context.Context, entries []Entry) (*Summary, error) {
	if err := a.load(ctx, entries); err != nil {
		return nil, err
	}

	categories, err := a.repo.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}

	ipFailures, err := a.repo.CountFailuresByClientIP(ctx)
	if err != nil {
		return nil, fmt.Errorf("count failures by ip: %w", err)
	}

	userFailures, err := a.repo.CountFailuresByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("count failures by user: %w", err)
	}

	positions, err := a.repo.FindPositionsByCategory(ctx, string(category.VPN))
	if err != nil {
		return nil, fmt.Errorf("find vpn requests: %w", err)
	}

	vpn := make([]Entry, 0, len(positions))
	for _, position := range positions {
		if position >= 1 && position <= len(entries) {
			vpn = append(vpn, entries[position-1])
		}
	}

	a.logger.Debug("Summary computed",
		a.logger.Args(
			"categories", len(categories),
			"failing_ips", len(ipFailures),
			"failing_users", len(userFailures),
			"vpn_requests", len(vpn),
		))

	return &Summary{
		Categories:   categories,
		IPFailures:   ipFailures,
		UserFailures: userFailures,
		VPN:          vpn,
	}, nil
}

func (a *Aggregator) load(ctx context.Context, entries []Entry) error {
	batch := make([]*models.AnalyzedRequest, 0, a.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := a.repo.CreateBatch(ctx, batch); err != nil {
			return fmt.Errorf("store batch: %w", err)
		}
		batch = make([]*models.AnalyzedRequest, 0, a.batchSize)
		return nil
	}

	for i, entry := range entries {
		batch = append(batch, &models.AnalyzedRequest{
			Position:   i + 1,
			ClientIP:   entry.Record.ClientIP,
			ClientUser: entry.Record.User,
			URL:        entry.Record.URL,
			StatusCode: entry.Record.StatusCode,
			Category:   string(entry.Category),
			Failure:    entry.Failure,
		})
		if len(batch) >= a.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if err := flush(); err != nil {
		return err
	}

	a.logger.Debug("Entries loaded into aggregation store", a.logger.Args("count", len(entries)))
	return nil
}
