// Package csvfile reads delimited best-track files into a domain.Dataset using
// a configured, ordered list of column names.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/storm-track-etl/internal/domain"
)

// SkipColumn marks a file column that is read but not kept.
const SkipColumn = "skip"

// ErrNoColumns is returned when the reader is configured without any kept column.
var ErrNoColumns = errors.New("no columns configured")

// Options describes the layout of a source file.
type Options struct {
	// Columns names each field of a record in file order.
	Columns []string
	// Delimiter separates fields. A single space splits on runs of whitespace.
	Delimiter rune
	// HeaderRows is the number of leading lines to discard.
	HeaderRows int
}

// Reader is a pipeline.Extractor over a single file.
type Reader struct {
	path string
	opts Options
}

// NewReader validates the column list and returns a Reader for path.
func NewReader(path string, opts Options) (*Reader, error) {
	kept := 0
	seen := make(map[string]bool, len(opts.Columns))
	for _, c := range opts.Columns {
		if c == SkipColumn {
			continue
		}
		if seen[c] {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = true
		kept++
	}
	if kept == 0 {
		return nil, ErrNoColumns
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &Reader{path: path, opts: opts}, nil
}

// Extract reads the whole file.
func (r *Reader) Extract(ctx context.Context) (*domain.Dataset, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(ctx, f, r.opts)
}

// Read parses delimited records from src. Records with fewer fields than
// configured columns are rejected; extra trailing fields are ignored.
func Read(ctx context.Context, src io.Reader, opts Options) (*domain.Dataset, error) {
	records, err := readRecords(src, opts)
	if err != nil {
		return nil, err
	}
	if opts.HeaderRows > len(records) {
		opts.HeaderRows = len(records)
	}

	columns := make(map[string][]string, len(opts.Columns))
	for _, c := range opts.Columns {
		if c != SkipColumn {
			columns[c] = make([]string, 0, len(records)-opts.HeaderRows)
		}
	}

	for line, rec := range records[opts.HeaderRows:] {
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(rec) < len(opts.Columns) {
			return nil, &domain.RecordError{
				Index: line,
				Field: "record",
				Err:   fmt.Errorf("has %d fields, expected %d", len(rec), len(opts.Columns)),
			}
		}
		for j, c := range opts.Columns {
			if c == SkipColumn {
				continue
			}
			columns[c] = append(columns[c], strings.TrimSpace(rec[j]))
		}
	}
	return domain.NewDataset(columns)
}

func readRecords(src io.Reader, opts Options) ([][]string, error) {
	if opts.Delimiter == ' ' {
		return readWhitespace(src)
	}
	cr := csv.NewReader(src)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func readWhitespace(src io.Reader) ([][]string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	var records [][]string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		records = append(records, fields)
	}
	return records, nil
}
