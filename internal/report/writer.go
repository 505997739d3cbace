package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"accesslens/internal/analysis"
	"accesslens/internal/database/repositories"

	"github.com/pterm/pterm"
)

// Report file names, written to the output directory
const (
	FullExportFile     = "analisis_completo.csv"
	CategoryCountsFile = "visitas_por_categoria.csv"
	IPFailuresFile     = "ips_con_mas_fallos.csv"
	UserFailuresFile   = "usuarios_con_mas_fallos.csv"
	VPNFile            = "conexiones_posible_vpn.csv"
)

// Datetime column layout, e.g. "2020-12-05 10:15:32+01:00"
const datetimeLayout = "2006-01-02 15:04:05-07:00"

var recordHeader = []string{
	"ip", "user", "datetime", "method", "url", "protocol", "status", "size",
	"user_agent", "type", "forwarded", "host", "categoria", "fallo",
}

// CountryResolver maps a client address to a country code
type CountryResolver interface {
	Country(ip string) string
}

// Writer serializes analysis results to CSV files
type Writer struct {
	dir       string
	countries CountryResolver
	logger    *pterm.Logger
}

// NewWriter creates a writer for dir. When countries is non-nil the record
// exports and the failing-IP report gain a country column.
func NewWriter(dir string, countries CountryResolver, logger *pterm.Logger) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{
		dir:       dir,
		countries: countries,
		logger:    logger,
	}
}

// WriteAll writes the full export and the four summaries, returning the paths written.
// Existing files are overwritten in place.
func (w *Writer) WriteAll(entries []analysis.Entry, summary *analysis.Summary) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	jobs := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{FullExportFile, w.entryHeader(), w.entryRows(entries)},
		{CategoryCountsFile, []string{"categoria", "count"}, countRows(summary.Categories, nil)},
		{IPFailuresFile, w.ipHeader(), countRows(summary.IPFailures, w.countries)},
		{UserFailuresFile, []string{"user", "count"}, countRows(summary.UserFailures, nil)},
		{VPNFile, w.entryHeader(), w.entryRows(summary.VPN)},
	}

	written := make([]string, 0, len(jobs))
	for _, job := range jobs {
		path := filepath.Join(w.dir, job.name)
		if err := writeCSV(path, job.header, job.rows); err != nil {
			w.logger.WithCaller().Error("Failed to write report",
				w.logger.Args("path", path, "error", err))
			return written, err
		}
		w.logger.Debug("Report written", w.logger.Args("path", path, "rows", len(job.rows)))
		written = append(written, path)
	}

	return written, nil
}

func (w *Writer) entryHeader() []string {
	if w.countries == nil {
		return recordHeader
	}
	return append(append([]string{}, recordHeader...), "country")
}

func (w *Writer) ipHeader() []string {
	if w.countries == nil {
		return []string{"ip", "count"}
	}
	return []string{"ip", "count", "country"}
}

func (w *Writer) entryRows(entries []analysis.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		r := entry.Record
		row := []string{
			r.ClientIP,
			r.User,
			r.Timestamp.Format(datetimeLayout),
			r.Method,
			r.URL,
			r.Protocol,
			strconv.Itoa(r.StatusCode),
			strconv.FormatInt(r.ResponseSize, 10),
			r.UserAgent,
			r.Type,
			r.ForwardedFor,
			r.Host,
			string(entry.Category),
			formatBool(entry.Failure),
		}
		if w.countries != nil {
			row = append(row, w.countries.Country(r.ClientIP))
		}
		rows = append(rows, row)
	}
	return rows
}

func countRows(counts []*repositories.KeyCount, countries CountryResolver) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		row := []string{c.Value, strconv.FormatInt(c.Total, 10)}
		if countries != nil {
			row = append(row, countries.Country(c.Value))
		}
		rows = append(rows, row)
	}
	return rows
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return file.Close()
}
