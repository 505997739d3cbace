package config

import (
	"os"
	"strconv"

	"accesslens/internal/convert"
	"accesslens/internal/parser/accesslog"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Analyzer Configuration
	Analyzer AnalyzerConfig

	// GeoIP Configuration
	GeoIP GeoIPConfig

	// Converter Configuration
	Converter ConverterConfig

	// Log configuration
	LogLevel string

	// Print the startup banner
	ShowBanner bool
}

// AnalyzerConfig contains access log analysis settings
type AnalyzerConfig struct {
	AccessLogPath string
	ReportDir     string
	BatchSize     int // Rows per insert batch into the aggregation store
}

// GeoIPConfig contains the optional country enrichment settings
type GeoIPConfig struct {
	CountryDBPath string
	Enabled       bool
}

// ConverterConfig contains SMS converter file names
type ConverterConfig struct {
	InputPath  string
	OutputPath string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Analyzer: AnalyzerConfig{
			AccessLogPath: getEnv("ACCESS_LOG_PATH", accesslog.DefaultLogFile),
			ReportDir:     getEnv("REPORT_DIR", "."),
			BatchSize:     getEnvAsInt("BATCH_SIZE", 500),
		},
		GeoIP: GeoIPConfig{
			CountryDBPath: getEnv("GEOIP_COUNTRY_DB", "geoip/GeoLite2-Country.mmdb"),
			Enabled:       getEnvAsBool("GEOIP_ENABLED", false),
		},
		Converter: ConverterConfig{
			InputPath:  getEnv("SMS_INPUT_PATH", convert.DefaultInputFile),
			OutputPath: getEnv("SMS_OUTPUT_PATH", convert.DefaultOutputFile),
		},
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		ShowBanner: getEnvAsBool("SHOW_BANNER", true),
	}

	return cfg, nil
}

// Helper functions to read environment variables with defaults

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
