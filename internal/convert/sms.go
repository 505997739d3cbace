package convert

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pterm/pterm"
)

// Default file names used by the converter command
const (
	DefaultInputFile  = "SMSSpamCollection.txt"
	DefaultOutputFile = "sms_analysis.log"
)

const (
	fieldsLine   = "#Fields: date time cs-username c-ip cs-method cs-uri-stem sc-status sc-bytes x-sms-text"
	headerLayout = "2006-01-02 15:04:05"
	dateLayout   = "2006-01-02"
	timeLayout   = "15:04:05"

	hamAddress   = "10.0.0.1"
	otherAddress = "10.0.0.2"
)

// ErrInputNotFound is returned when the labeled message file does not exist
var ErrInputNotFound = errors.New("input file not found")

// Converter rewrites a tab-separated labeled SMS corpus into W3C extended log format.
// Each emitted line is stamped one minute earlier than the previous one, starting from Now.
type Converter struct {
	// Now supplies the reference instant; the header date uses its UTC value
	Now    func() time.Time
	logger *pterm.Logger
}

// NewConverter creates a converter anchored on the wall clock
func NewConverter(logger *pterm.Logger) *Converter {
	return &Converter{
		Now:    time.Now,
		logger: logger,
	}
}

// Convert reads inputPath and writes the W3C log to outputPath, returning the
// number of message lines emitted. The output is only created once the input
// has been opened.
func (c *Converter) Convert(inputPath, outputPath string) (int, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
		}
		return 0, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	written, err := c.ConvertStream(in, out)
	if err != nil {
		return written, err
	}
	if err := out.Close(); err != nil {
		return written, fmt.Errorf("close output: %w", err)
	}

	c.logger.Info("SMS corpus converted", c.logger.Args(
		"input", inputPath,
		"output", outputPath,
		"lines", written,
	))
	return written, nil
}

// ConvertStream writes the W3C header followed by one line per valid
// "label<TAB>message" input line. Blank lines and lines without exactly one
// tab are skipped and do not advance the clock.
func (c *Converter) ConvertStream(r io.Reader, w io.Writer) (int, error) {
	now := c.Now()
	bw := bufio.NewWriter(w)

	header := []string{
		"#Software: SMS Log Converter",
		"#Version: 1.0",
		"#Date: " + now.UTC().Format(headerLayout),
		fieldsLine,
	}
	for _, line := range header {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return 0, fmt.Errorf("write header: %w", err)
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	written, skipped, lineNum := 0, 0, 0
	stamp := now
	for scanner.Scan() {
		lineNum++
		raw := scanner.Text()
		if !utf8.ValidString(raw) {
			// Keep what was converted before the bad line
			_ = bw.Flush()
			return written, fmt.Errorf("line %d: invalid UTF-8", lineNum)
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		label, message, ok := splitLabeled(line)
		if !ok {
			skipped++
			c.logger.Trace("Skipping malformed line", c.logger.Args("line", lineNum))
			continue
		}

		if _, err := bw.WriteString(formatEntry(stamp, label, message)); err != nil {
			return written, fmt.Errorf("write line %d: %w", lineNum, err)
		}
		written++
		stamp = stamp.Add(-time.Minute)
	}
	if err := scanner.Err(); err != nil {
		_ = bw.Flush()
		return written, fmt.Errorf("read input: %w", err)
	}

	if skipped > 0 {
		c.logger.Debug("Malformed lines skipped", c.logger.Args("count", skipped))
	}

	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("flush output: %w", err)
	}
	return written, nil
}

func splitLabeled(line string) (string, string, bool) {
	if strings.Count(line, "\t") != 1 {
		return "", "", false
	}
	label, message, _ := strings.Cut(line, "\t")
	return label, message, true
}

func formatEntry(stamp time.Time, label, message string) string {
	address := otherAddress
	if label == "ham" {
		address = hamAddress
	}

	return fmt.Sprintf("%s %s %s %s SMS /messages/ 200 %d \"%s\"\n",
		stamp.Format(dateLayout),
		stamp.Format(timeLayout),
		label,
		address,
		len(message),
		strings.ReplaceAll(message, `"`, `""`),
	)
}
