package accesslog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// DefaultLogFile is read when no path is given on the command line
const DefaultLogFile = "access.log-20201205"

// Timestamp layouts inside the brackets, tried in order.
// The offset may be "+0100", "+01:00" or "Z".
var timestampLayouts = []string{
	"02/Jan/2006:15:04:05 -0700",
	"02/Jan/2006:15:04:05 Z07:00",
}

// Proxy access log with a bracketed request-header dump at the end of the line.
// Format: <ip> - <user> [<datetime>] "<method> <url> <protocol>" <status> <size> "-" "<user_agent>" <type> [... X-Forwarded-For: <addr>, ... Host: <host>...]
// The host stops at ':', ']', a backslash (escaped dumps) or a newline.
const accessLogPattern = `(?P<ip>\d+\.\d+\.\d+\.\d+) - (?P<user>[^\[]*) \[(?P<datetime>.*?)\] "(?P<method>\S+) (?P<url>[^ ]+) (?P<protocol>[^"]+)" (?P<status>\d+) (?P<size>\d+) "-" "(?P<user_agent>[^"]*)" (?P<type>[^\[]+) \[.*?X-Forwarded-For: (?P<forwarded>[^,\n]+).*?Host: (?P<host>[^:\\\n\]]+)`

// Longest line the scanner accepts; anything longer aborts the read
const maxLineSize = 1024 * 1024

// ErrNoMatch is returned by Parse for lines the pattern does not accept
var ErrNoMatch = errors.New("line does not match access log pattern")

// Parser extracts LogRecords from access log lines
type Parser struct {
	logger  *pterm.Logger
	pattern *regexp.Regexp
	groups  map[string]int
}

// NewParser creates a new access log parser instance
func NewParser(logger *pterm.Logger) *Parser {
	// Compile once at initialization instead of on every line
	pattern := regexp.MustCompile(accessLogPattern)

	groups := make(map[string]int)
	for _, name := range pattern.SubexpNames() {
		if name != "" {
			groups[name] = pattern.SubexpIndex(name)
		}
	}

	return &Parser{
		logger:  logger,
		pattern: pattern,
		groups:  groups,
	}
}

// CanParse reports whether the line matches the extraction pattern
func (p *Parser) CanParse(line string) bool {
	if line == "" {
		return false
	}
	return p.pattern.MatchString(line)
}

// Parse converts a single log line into a LogRecord.
// Lines that do not match, or whose timestamp cannot be read, yield ErrNoMatch.
func (p *Parser) Parse(line string) (*LogRecord, error) {
	if line == "" {
		return nil, ErrNoMatch
	}

	matches := p.pattern.FindStringSubmatch(line)
	if matches == nil {
		return nil, ErrNoMatch
	}

	group := func(name string) string {
		return matches[p.groups[name]]
	}

	timestamp, err := parseTimestamp(group("datetime"))
	if err != nil {
		p.logger.Debug("Failed to parse timestamp, skipping line",
			p.logger.Args("datetime", group("datetime"), "error", err))
		return nil, fmt.Errorf("%w: %v", ErrNoMatch, err)
	}

	statusCode, err := strconv.Atoi(group("status"))
	if err != nil {
		p.logger.Debug("Status code out of range, skipping line",
			p.logger.Args("status", group("status"), "error", err))
		return nil, fmt.Errorf("%w: %v", ErrNoMatch, err)
	}

	responseSize, err := strconv.ParseInt(group("size"), 10, 64)
	if err != nil {
		p.logger.Debug("Response size out of range, skipping line",
			p.logger.Args("size", group("size"), "error", err))
		return nil, fmt.Errorf("%w: %v", ErrNoMatch, err)
	}

	record := &LogRecord{
		ClientIP:     group("ip"),
		User:         group("user"),
		Timestamp:    timestamp,
		Method:       group("method"),
		URL:          group("url"),
		Protocol:     group("protocol"),
		StatusCode:   statusCode,
		ResponseSize: responseSize,
		UserAgent:    group("user_agent"),
		Type:         group("type"),
		ForwardedFor: group("forwarded"),
		Host:         group("host"),
	}

	p.logger.Trace("Successfully parsed access log line",
		p.logger.Args(
			"timestamp", record.Timestamp.Format(time.RFC3339),
			"client_ip", record.ClientIP,
			"method", record.Method,
			"url", record.URL,
			"status", record.StatusCode,
		))

	return record, nil
}

// ParseReader parses every line of r in order.
// Non-matching lines are dropped without error; only read failures are returned.
func (p *Parser) ParseReader(r io.Reader) ([]*LogRecord, ParseStats, error) {
	var (
		records []*LogRecord
		stats   ParseStats
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		stats.Lines++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		record, err := p.Parse(line)
		if err != nil {
			stats.Skipped++
			continue
		}

		record.Line = stats.Lines
		records = append(records, record)
		stats.Matched++
	}

	if err := scanner.Err(); err != nil {
		p.logger.WithCaller().Error("Scanner error while reading access log",
			p.logger.Args("line", stats.Lines+1, "error", err))
		return records, stats, fmt.Errorf("read access log: %w", err)
	}

	return records, stats, nil
}

// ParseFile opens path and parses it with ParseReader
func (p *Parser) ParseFile(path string) ([]*LogRecord, ParseStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("open access log: %w", err)
	}
	defer file.Close()

	p.logger.Debug("Reading access log", p.logger.Args("path", path))

	records, stats, err := p.ParseReader(file)
	if err != nil {
		return records, stats, err
	}

	p.logger.Info("Access log parsed",
		p.logger.Args(
			"path", path,
			"lines", stats.Lines,
			"matched", stats.Matched,
			"skipped", stats.Skipped,
		))

	return records, stats, nil
}

func parseTimestamp(value string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
