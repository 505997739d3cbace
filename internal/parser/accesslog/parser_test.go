package accesslog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"
)

const proxyLine = `192.168.1.10 - - [05/Dec/2020:10:15:32 +0100] "GET http://www.example.com/index.html HTTP/1.1" 200 5120 "-" "Mozilla/5.0 (X11; Linux x86_64)" TCP_MISS:HIER_DIRECT [Accept: */*\r\nX-Forwarded-For: 10.1.1.5, 172.16.0.1\r\nHost: www.example.com\r\n]`

const deniedLine = `10.0.0.7 - alice [05/Dec/2020:23:59:01 -0500] "CONNECT https://NordVPN.com/login HTTP/1.0" 403 0 "-" "curl/7.68.0" TCP_DENIED:HIER_NONE [X-Forwarded-For: 10.0.0.7, 10.0.0.1\r\nHost: proxy.local:3128\r\n]`

func newTestParser() *Parser {
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelTrace)
	return NewParser(logger)
}

func TestParser_CanParse(t *testing.T) {
	parser := newTestParser()

	if !parser.CanParse(proxyLine) {
		t.Error("Expected parser to accept proxy access log line")
	}

	tests := []string{
		"",
		"invalid log line",
		`192.168.1.10 - - [05/Dec/2020:10:15:32 +0100] "GET / HTTP/1.1" 200 5120 "-" "Mozilla"`,
	}
	for _, tc := range tests {
		if parser.CanParse(tc) {
			t.Errorf("Expected parser to reject line: %q", tc)
		}
	}
}

func TestParser_Parse(t *testing.T) {
	parser := newTestParser()

	record, err := parser.Parse(proxyLine)
	if err != nil {
		t.Fatalf("Failed to parse proxy line: %v", err)
	}

	if record.ClientIP != "192.168.1.10" {
		t.Errorf("Expected ClientIP '192.168.1.10', got '%s'", record.ClientIP)
	}
	if record.User != "-" {
		t.Errorf("Expected User '-', got '%s'", record.User)
	}
	if record.Method != "GET" {
		t.Errorf("Expected Method 'GET', got '%s'", record.Method)
	}
	if record.URL != "http://www.example.com/index.html" {
		t.Errorf("Expected URL 'http://www.example.com/index.html', got '%s'", record.URL)
	}
	if record.Protocol != "HTTP/1.1" {
		t.Errorf("Expected Protocol 'HTTP/1.1', got '%s'", record.Protocol)
	}
	if record.StatusCode != 200 {
		t.Errorf("Expected StatusCode 200, got %d", record.StatusCode)
	}
	if record.ResponseSize != 5120 {
		t.Errorf("Expected ResponseSize 5120, got %d", record.ResponseSize)
	}
	if record.UserAgent != "Mozilla/5.0 (X11; Linux x86_64)" {
		t.Errorf("Expected UserAgent 'Mozilla/5.0 (X11; Linux x86_64)', got '%s'", record.UserAgent)
	}
	if record.Type != "TCP_MISS:HIER_DIRECT" {
		t.Errorf("Expected Type 'TCP_MISS:HIER_DIRECT', got '%s'", record.Type)
	}
	if record.ForwardedFor != "10.1.1.5" {
		t.Errorf("Expected ForwardedFor '10.1.1.5', got '%s'", record.ForwardedFor)
	}
	if record.Host != "www.example.com" {
		t.Errorf("Expected Host 'www.example.com', got '%s'", record.Host)
	}

	expectedTime, _ := time.Parse("02/Jan/2006:15:04:05 -0700", "05/Dec/2020:10:15:32 +0100")
	if !record.Timestamp.Equal(expectedTime) {
		t.Errorf("Expected Timestamp %v, got %v", expectedTime, record.Timestamp)
	}
	if _, offset := record.Timestamp.Zone(); offset != 3600 {
		t.Errorf("Expected zone offset 3600, got %d", offset)
	}
}

func TestParser_ParseZoneOffsets(t *testing.T) {
	parser := newTestParser()
	instant := time.Date(2020, 12, 5, 9, 15, 32, 0, time.UTC)

	tests := []struct {
		name     string
		datetime string
		offset   int
	}{
		{"compact", "10:15:32 +0100", 3600},
		{"colon", "10:15:32 +01:00", 3600},
		{"negative colon", "03:45:32 -05:30", -19800},
		{"utc designator", "09:15:32 Z", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := strings.Replace(proxyLine, "10:15:32 +0100", tt.datetime, 1)

			record, err := parser.Parse(line)
			if err != nil {
				t.Fatalf("Failed to parse line with time %q: %v", tt.datetime, err)
			}
			if !record.Timestamp.Equal(instant) {
				t.Errorf("Expected instant %v, got %v", instant, record.Timestamp)
			}
			if _, offset := record.Timestamp.Zone(); offset != tt.offset {
				t.Errorf("Expected zone offset %d, got %d", tt.offset, offset)
			}
		})
	}
}

func TestParser_ParseUserAndHostPort(t *testing.T) {
	parser := newTestParser()

	// The host stops at the port separator
	record, err := parser.Parse(deniedLine)
	if err != nil {
		t.Fatalf("Failed to parse denied line: %v", err)
	}

	if record.User != "alice" {
		t.Errorf("Expected User 'alice', got '%s'", record.User)
	}
	if record.StatusCode != 403 {
		t.Errorf("Expected StatusCode 403, got %d", record.StatusCode)
	}
	if record.ForwardedFor != "10.0.0.7" {
		t.Errorf("Expected ForwardedFor '10.0.0.7', got '%s'", record.ForwardedFor)
	}
	if record.Host != "proxy.local" {
		t.Errorf("Expected Host 'proxy.local', got '%s'", record.Host)
	}
	if _, offset := record.Timestamp.Zone(); offset != -5*3600 {
		t.Errorf("Expected zone offset -18000, got %d", offset)
	}
}

func TestParser_ParseHostsContainingN(t *testing.T) {
	parser := newTestParser()

	tests := []string{"news.example.com", "cnn.com", "nordvpn.com"}
	for _, host := range tests {
		t.Run(host, func(t *testing.T) {
			line := strings.Replace(proxyLine, "Host: www.example.com", "Host: "+host, 1)

			record, err := parser.Parse(line)
			if err != nil {
				t.Fatalf("Failed to parse line with host %q: %v", host, err)
			}
			if record.Host != host {
				t.Errorf("Expected Host '%s', got '%s'", host, record.Host)
			}
		})
	}
}

func TestParser_ParseWithPrefix(t *testing.T) {
	parser := newTestParser()

	record, err := parser.Parse("Dec  5 10:15:32 squid[812]: " + proxyLine)
	if err != nil {
		t.Fatalf("Failed to parse prefixed line: %v", err)
	}
	if record.ClientIP != "192.168.1.10" {
		t.Errorf("Expected ClientIP '192.168.1.10', got '%s'", record.ClientIP)
	}
}

func TestParser_ParseRejects(t *testing.T) {
	parser := newTestParser()

	tests := []struct {
		name string
		line string
	}{
		{name: "empty", line: ""},
		{name: "garbage", line: "not an access log line"},
		{name: "dash size", line: strings.Replace(proxyLine, " 5120 ", " - ", 1)},
		{name: "no forwarded header", line: strings.Replace(proxyLine, "X-Forwarded-For", "X-Real-IP", 1)},
		{name: "no host header", line: strings.Replace(proxyLine, "Host:", "Origin:", 1)},
		{name: "bad month", line: strings.Replace(proxyLine, "Dec", "Foo", 1)},
		{name: "missing zone", line: strings.Replace(proxyLine, " +0100]", "]", 1)},
		{name: "named zone", line: strings.Replace(proxyLine, "+0100", "CET", 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			record, err := parser.Parse(tc.line)
			if !errors.Is(err, ErrNoMatch) {
				t.Errorf("Expected ErrNoMatch, got %v", err)
			}
			if record != nil {
				t.Errorf("Expected no record, got %+v", record)
			}
		})
	}
}

func TestParser_ParseReader(t *testing.T) {
	parser := newTestParser()

	input := strings.Join([]string{
		proxyLine,
		"garbage line",
		"",
		proxyLine + "\r",
		strings.Replace(proxyLine, "Dec", "Foo", 1),
	}, "\n") + "\n"

	records, stats, err := parser.ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Line != 1 || records[1].Line != 4 {
		t.Errorf("Expected lines 1 and 4, got %d and %d", records[0].Line, records[1].Line)
	}
	if records[1].Host != "www.example.com" {
		t.Errorf("Expected CR to be stripped, got host %q", records[1].Host)
	}

	expected := ParseStats{Lines: 5, Matched: 2, Skipped: 3}
	if stats != expected {
		t.Errorf("Expected stats %+v, got %+v", expected, stats)
	}
}

func TestParser_ParseFile(t *testing.T) {
	parser := newTestParser()

	path := filepath.Join(t.TempDir(), "access.log")
	if err := os.WriteFile(path, []byte(proxyLine+"\n"+deniedLine+"\n"), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	records, stats, err := parser.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[1].User != "alice" {
		t.Errorf("Expected second record user 'alice', got '%s'", records[1].User)
	}
	if stats.Lines != 2 || stats.Skipped != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestParser_ParseFileMissing(t *testing.T) {
	parser := newTestParser()

	_, _, err := parser.ParseFile(filepath.Join(t.TempDir(), "missing.log"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
}
