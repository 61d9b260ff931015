package csvutil

import (
	"encoding/csv"
	"io"
)

// Writer handles CSV writing.
type Writer struct {
	out    io.Writer
	writer *csv.Writer
}

// NewWriter creates a new CSV writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		out:    w,
		writer: csv.NewWriter(w),
	}
}

// WriteBOM writes a UTF-8 byte order mark so spreadsheet programs detect the
// encoding of Hebrew text. It must be called before any row.
func (w *Writer) WriteBOM() error {
	_, err := w.out.Write(utf8BOM)
	return err
}

// WriteHeader writes the CSV header row.
func (w *Writer) WriteHeader(headers []string) error {
	return w.writer.Write(headers)
}

// WriteRow writes a single CSV row.
func (w *Writer) WriteRow(row []string) error {
	return w.writer.Write(row)
}

// Flush flushes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	w.writer.Flush()
	return w.writer.Error()
}
