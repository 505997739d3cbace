package repositories

import (
	"accesslens/internal/database/models"
	"context"

	"github.com/pterm/pterm"
	"gorm.io/gorm"
)

// KeyCount is one row of a grouped count
type KeyCount struct {
	Value string
	Total int64
}

// AnalysisRepository stores classified requests and answers the summary queries.
// Grouped counts are ordered by total descending, then by value ascending.
type AnalysisRepository interface {
	CreateBatch(ctx context.Context, requests []*models.AnalyzedRequest) error
	Count(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context) ([]*KeyCount, error)
	CountFailuresByClientIP(ctx context.Context) ([]*KeyCount, error)
	CountFailuresByUser(ctx context.Context) ([]*KeyCount, error)
	FindPositionsByCategory(ctx context.Context, category string) ([]int, error)
}

type analysisRepo struct {
	db     *gorm.DB
	logger *pterm.Logger
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *gorm.DB, logger *pterm.Logger) AnalysisRepository {
	return &analysisRepo{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts requests, splitting large batches to stay under SQLite's variable limit
func (r *analysisRepo) CreateBatch(ctx context.Context, requests []*models.AnalyzedRequest) error {
	if len(requests) == 0 {
		r.logger.Debug("Empty batch, skipping insert")
		return nil
	}

	const MaxSQLiteVariables = 32766
	const ColumnsPerRecord = 8
	const MaxRecordsPerBatch = MaxSQLiteVariables / ColumnsPerRecord

	if len(requests) <= MaxRecordsPerBatch {
		return r.insertSubBatch(ctx, requests)
	}

	r.logger.Debug("Splitting large batch to avoid variable limit",
		r.logger.Args("total_records", len(requests), "max_per_batch", MaxRecordsPerBatch))

	for i := 0; i < len(requests); i += MaxRecordsPerBatch {
		end := i + MaxRecordsPerBatch
		if end > len(requests) {
			end = len(requests)
		}

		subBatch := requests[i:end]
		if err := r.insertSubBatch(ctx, subBatch); err != nil {
			r.logger.WithCaller().Error("Failed to insert sub-batch",
				r.logger.Args("batch_num", (i/MaxRecordsPerBatch)+1, "count", len(subBatch), "error", err))
			return err
		}
	}

	return nil
}

func (r *analysisRepo) insertSubBatch(ctx context.Context, requests []*models.AnalyzedRequest) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		r.logger.WithCaller().Error("Failed to begin transaction", r.logger.Args("error", tx.Error))
		return tx.Error
	}

	if err := tx.Create(&requests).Error; err != nil {
		tx.Rollback()
		r.logger.WithCaller().Error("Failed to insert batch",
			r.logger.Args("count", len(requests), "error", err))
		return err
	}

	if err := tx.Commit().Error; err != nil {
		r.logger.WithCaller().Error("Failed to commit transaction", r.logger.Args("error", err))
		return err
	}

	r.logger.Trace("Inserted batch", r.logger.Args("count", len(requests)))
	return nil
}

// Count returns the number of stored requests
func (r *analysisRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AnalyzedRequest{}).Count(&count).Error
	return count, err
}

// CountByCategory counts requests per category
func (r *analysisRepo) CountByCategory(ctx context.Context) ([]*KeyCount, error) {
	return r.groupCount(ctx, "category", false)
}

// CountFailuresByClientIP counts failed requests per client address
func (r *analysisRepo) CountFailuresByClientIP(ctx context.Context) ([]*KeyCount, error) {
	return r.groupCount(ctx, "client_ip", true)
}

// CountFailuresByUser counts failed requests per remote user
func (r *analysisRepo) CountFailuresByUser(ctx context.Context) ([]*KeyCount, error) {
	return r.groupCount(ctx, "client_user", true)
}

// groupCount runs a GROUP BY over column; the column name is never user input
func (r *analysisRepo) groupCount(ctx context.Context, column string, failuresOnly bool) ([]*KeyCount, error) {
	var results []*KeyCount

	query := r.db.WithContext(ctx).
		Model(&models.AnalyzedRequest{}).
		Select(column + " AS value, COUNT(*) AS total")

	if failuresOnly {
		query = query.Where("failure = ?", true)
	}

	err := query.
		Group(column).
		Order("total DESC, value ASC").
		Scan(&results).Error
	if err != nil {
		r.logger.WithCaller().Error("Failed to count requests",
			r.logger.Args("group_by", column, "failures_only", failuresOnly, "error", err))
		return nil, err
	}

	return results, nil
}

// FindPositionsByCategory returns the positions of the requests classified as category, ascending
func (r *analysisRepo) FindPositionsByCategory(ctx context.Context, category string) ([]int, error) {
	var positions []int
	err := r.db.WithContext(ctx).
		Model(&models.AnalyzedRequest{}).
		Where("category = ?", category).
		Order("position ASC").
		Pluck("position", &positions).Error
	if err != nil {
		r.logger.WithCaller().Error("Failed to find requests by category",
			r.logger.Args("category", category, "error", err))
		return nil, err
	}
	return positions, nil
}
