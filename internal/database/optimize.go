package database

import (
	"accesslens/internal/database/models"

	"github.com/pterm/pterm"
	"gorm.io/gorm"
)

// RunMigrations creates the tables used by the analysis
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(&models.AnalyzedRequest{})
}

// OptimizeDatabase creates the indexes backing the summary queries
func OptimizeDatabase(db *gorm.DB, logger *pterm.Logger) error {
	logger.Debug("Applying database optimizations...")

	var pageSize int
	if err := db.Raw("PRAGMA page_size").Scan(&pageSize).Error; err != nil {
		logger.Debug("Failed to check page size", logger.Args("error", err))
	} else {
		logger.Trace("Database page size", logger.Args("bytes", pageSize))
	}

	indexes := []string{
		// Failures per client (ips_con_mas_fallos)
		`CREATE INDEX IF NOT EXISTS idx_failure_client_ip
		 ON analyzed_requests(failure, client_ip)`,

		// Failures per user (usuarios_con_mas_fallos)
		`CREATE INDEX IF NOT EXISTS idx_failure_client_user
		 ON analyzed_requests(failure, client_user)`,

		// Category subsets in input order
		`CREATE INDEX IF NOT EXISTS idx_category_position
		 ON analyzed_requests(category, position)`,
	}

	var firstErr error
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Warn("Failed to create index", logger.Args("error", err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	logger.Trace("Database indexes ready", logger.Args("count", len(indexes)))
	return firstErr
}
