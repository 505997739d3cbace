package enrichment

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/pterm/pterm"
)

// countryReader is the part of *geoip2.Reader the enricher uses
type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

// GeoIPEnricher resolves client addresses to ISO country codes from a
// MaxMind country database. Lookups are cached for the lifetime of the run.
type GeoIPEnricher struct {
	reader countryReader
	cache  map[string]string
	logger *pterm.Logger
}

// NewGeoIPEnricher opens the country database at countryDBPath
func NewGeoIPEnricher(countryDBPath string, logger *pterm.Logger) (*GeoIPEnricher, error) {
	reader, err := geoip2.Open(countryDBPath)
	if err != nil {
		return nil, fmt.Errorf("open geoip country database: %w", err)
	}

	logger.Debug("GeoIP country database opened", logger.Args("path", countryDBPath))

	return newEnricher(reader, logger), nil
}

func newEnricher(reader countryReader, logger *pterm.Logger) *GeoIPEnricher {
	return &GeoIPEnricher{
		reader: reader,
		cache:  make(map[string]string),
		logger: logger,
	}
}

// Country returns the ISO country code of ip, or "" when it is unknown.
// A nil enricher resolves nothing.
func (g *GeoIPEnricher) Country(ip string) string {
	if g == nil || g.reader == nil {
		return ""
	}

	if country, ok := g.cache[ip]; ok {
		return country
	}

	country := ""
	if parsed := net.ParseIP(ip); parsed != nil {
		record, err := g.reader.Country(parsed)
		if err != nil {
			g.logger.Trace("GeoIP lookup failed", g.logger.Args("ip", ip, "error", err))
		} else {
			country = record.Country.IsoCode
		}
	}

	g.cache[ip] = country
	return country
}

// GetCacheSize returns the number of cached lookups
func (g *GeoIPEnricher) GetCacheSize() int {
	if g == nil {
		return 0
	}
	return len(g.cache)
}

// Close releases the database
func (g *GeoIPEnricher) Close() error {
	if g == nil || g.reader == nil {
		return nil
	}
	return g.reader.Close()
}
