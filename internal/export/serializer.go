package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"campaignexport/internal/domain"
)

const (
	CSVContentType  = "text/csv; charset=utf-8"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Writer streams generated records as CSV rows. The header row is written on the first call to Write.
type Writer struct {
	csv         *csv.Writer
	wroteHeader bool
	rows        int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row if it has not been written yet.
func (w *Writer) WriteHeader() error {
	if w.wroteHeader {
		return nil
	}
	if err := w.csv.Write(Columns()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	w.wroteHeader = true
	return nil
}

func (w *Writer) Write(r *domain.GeneratedRecord) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	row, err := Row(r)
	if err != nil {
		return err
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

// Rows is the number of data rows written so far.
func (w *Writer) Rows() int {
	return w.rows
}

func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// Row renders one record in column order.
func Row(r *domain.GeneratedRecord) ([]string, error) {
	row := make([]string, len(columns))
	for i, c := range columns {
		if c.JSON == nil {
			row[i] = c.Value(r)
			continue
		}
		cell, err := JSONCell(c.JSON(r))
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", c.Header, err)
		}
		row[i] = cell
	}
	return row, nil
}

// JSONCell encodes v for embedding in a single cell. Nil and empty collections render as an empty cell.
func JSONCell(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case []domain.InterestGroup:
		if len(x) == 0 {
			return "", nil
		}
	case []domain.AttributionWindow:
		if len(x) == 0 {
			return "", nil
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// WriteCSV writes the header followed by every record of seq.
func WriteCSV(w io.Writer, seq iter.Seq2[int, domain.GeneratedRecord]) (int, error) {
	cw := NewWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return 0, err
	}
	for _, r := range seq {
		if err := cw.Write(&r); err != nil {
			return cw.Rows(), err
		}
	}
	if err := cw.Flush(); err != nil {
		return cw.Rows(), fmt.Errorf("failed to flush csv: %w", err)
	}
	return cw.Rows(), nil
}

// RenderCSV is WriteCSV into memory. An empty sequence yields the header row only.
func RenderCSV(seq iter.Seq2[int, domain.GeneratedRecord]) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := WriteCSV(&buf, seq); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
