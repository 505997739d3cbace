package models

// AnalyzedRequest is the aggregation row for one parsed log line
type AnalyzedRequest struct {
	ID       uint `gorm:"primaryKey;autoIncrement"`
	Position int  `gorm:"not null"` // 1-based index of the entry within the run

	// Client info
	ClientIP   string `gorm:"not null"`
	ClientUser string // Remote user field, "-" when absent

	// Request info
	URL        string
	StatusCode int `gorm:"not null"`

	// Derived fields
	Category string `gorm:"not null"`
	Failure  bool   `gorm:"not null"`
}

func (AnalyzedRequest) TableName() string {
	return "analyzed_requests"
}
