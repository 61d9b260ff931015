package pdfutil

import (
	"bytes"
	"fmt"
	"io"
	"regexp"

	"github.com/ledongthuc/pdf"
)

// PDFInfo is what Inspect reports about a PDF file.
type PDFInfo struct {
	Version   string
	PageCount int
	Size      int
}

var headerPattern = regexp.MustCompile(`^%PDF-(\d\.\d)`)

// Inspect reads a PDF and reports its version and page count. The page count
// comes from the document's page tree, so text that merely looks like a page
// dictionary inside a content stream is not counted.
func Inspect(r io.Reader) (info *PDFInfo, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	m := headerPattern.FindSubmatch(data)
	if m == nil {
		return nil, fmt.Errorf("not a PDF file")
	}
	if !bytes.Contains(data[max(0, len(data)-1024):], []byte("%%EOF")) {
		return nil, fmt.Errorf("pdf is truncated")
	}

	// The reader panics on some malformed object graphs.
	defer func() {
		if p := recover(); p != nil {
			info, err = nil, fmt.Errorf("parse pdf: %v", p)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	pages := reader.NumPage()
	if pages <= 0 {
		return nil, fmt.Errorf("parse pdf: no pages")
	}
	return &PDFInfo{
		Version:   string(m[1]),
		PageCount: pages,
		Size:      len(data),
	}, nil
}
