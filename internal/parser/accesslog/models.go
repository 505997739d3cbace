package accesslog

import (
	"time"
)

// LogRecord represents one access log line that matched the extraction pattern
type LogRecord struct {
	// Position in the input file (1-based)
	Line int

	// Client info
	ClientIP string
	User     string

	Timestamp time.Time

	// Request info
	Method   string
	URL      string
	Protocol string

	// Response info
	StatusCode   int
	ResponseSize int64

	// Headers
	UserAgent string

	// Descriptor between the user agent and the bracketed header dump
	Type string

	// Values lifted from the header dump
	ForwardedFor string
	Host         string
}

// ParseStats counts what happened to the lines of one input
type ParseStats struct {
	Lines   int
	Matched int
	Skipped int
}
