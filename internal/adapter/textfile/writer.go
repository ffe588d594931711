// Package textfile writes output series as plain delimited text files, one file
// per series, in the layout expected by downstream statistics tools.
package textfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/storm-track-etl/internal/domain"
	"github.com/couchcryptid/storm-track-etl/internal/pipeline"
)

// Writer is a pipeline.Loader that writes each series to dir/<name>.
type Writer struct {
	dir       string
	delimiter string
	missing   float64
}

// NewWriter creates the output directory if needed. Missing values are
// written as the given marker.
func NewWriter(dir, delimiter string, missing float64) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if delimiter == "" {
		delimiter = ","
	}
	return &Writer{dir: dir, delimiter: delimiter, missing: missing}, nil
}

func (w *Writer) Name() string { return "txt" }

// Load writes every series, replacing any previous file of the same name.
func (w *Writer) Load(ctx context.Context, _ domain.Run, series []pipeline.Series) error {
	for _, s := range series {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeFile(filepath.Join(w.dir, s.Name), s); err != nil {
			return fmt.Errorf("write %s: %w", s.Name, err)
		}
	}
	return nil
}

func (w *Writer) writeFile(path string, s pipeline.Series) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteSeries(f, s, w.delimiter, w.missing)
}

// WriteSeries writes a "% header" line followed by one row per value.
func WriteSeries(dst io.Writer, s pipeline.Series, delimiter string, missing float64) error {
	bw := bufio.NewWriter(dst)
	if s.Header != "" {
		if _, err := fmt.Fprintf(bw, "%% %s\n", s.Header); err != nil {
			return err
		}
	}

	cells := make([]string, len(s.Columns))
	for row := 0; row < s.Rows(); row++ {
		for c, col := range s.Columns {
			cells[c] = formatValue(s, col[row], missing)
		}
		if _, err := bw.WriteString(strings.Join(cells, delimiter) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatValue(s pipeline.Series, v, missing float64) string {
	if domain.IsMissing(v) {
		v = missing
	}
	if s.Integer() {
		return fmt.Sprintf(s.Format, int64(v))
	}
	return fmt.Sprintf(s.Format, v)
}
