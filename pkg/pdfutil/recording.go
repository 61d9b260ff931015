package pdfutil

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

// A4 page size in millimetres.
const (
	A4Width  = 210.0
	A4Height = 297.0
)

// Average glyph advance, in em, used by RecordingSurface to measure text.
const recordingGlyphEm = 0.5

const ptToMM = 25.4 / 72

// TextOp is a recorded Text call.
type TextOp struct {
	Page  int
	X, Y  float64
	Text  string
	Size  float64
	Style FontStyle
	Color Color
	Alpha float64
}

// RectOp is a recorded Rect call.
type RectOp struct {
	Page       int
	X, Y, W, H float64
	Mode       PaintMode
	Fill       Color
	Stroke     Color
}

// ImageOp is a recorded Image call.
type ImageOp struct {
	Page       int
	Name       string
	X, Y, W, H float64
	Rotation   float64
	Alpha      float64
}

// LineOp is a recorded Line call.
type LineOp struct {
	Page           int
	X1, Y1, X2, Y2 float64
	Width          float64
}

// RecordingSurface is an in-memory Surface for tests. It measures text with
// a fixed average glyph width so layout decisions are deterministic.
type RecordingSurface struct {
	mu sync.Mutex

	page      int
	size      float64
	style     FontStyle
	fill      Color
	stroke    Color
	textColor Color
	lineWidth float64
	alpha     float64

	images   map[string]ImageInfo
	metadata Metadata

	Texts  []TextOp
	Rects  []RectOp
	Images []ImageOp
	Lines  []LineOp

	// OutputErr, when set, is returned by Output.
	OutputErr error
	// ImageErr, when set, is returned by every RegisterImage call.
	ImageErr error
}

// NewRecordingSurface returns an empty A4 recording surface.
func NewRecordingSurface() *RecordingSurface {
	return &RecordingSurface{size: 10, alpha: 1, lineWidth: 0.2, images: map[string]ImageInfo{}}
}

func (r *RecordingSurface) PageSize() (float64, float64) {
	return A4Width, A4Height
}

func (r *RecordingSurface) AddPage() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.page++
}

func (r *RecordingSurface) PageNo() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.page
}

func (r *RecordingSurface) SetFont(style FontStyle, size float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.style, r.size = style, size
}

func (r *RecordingSurface) SetFillColor(c Color)   { r.mu.Lock(); r.fill = c; r.mu.Unlock() }
func (r *RecordingSurface) SetStrokeColor(c Color) { r.mu.Lock(); r.stroke = c; r.mu.Unlock() }
func (r *RecordingSurface) SetTextColor(c Color)   { r.mu.Lock(); r.textColor = c; r.mu.Unlock() }
func (r *RecordingSurface) SetLineWidth(w float64) { r.mu.Lock(); r.lineWidth = w; r.mu.Unlock() }
func (r *RecordingSurface) SetAlpha(a float64)     { r.mu.Lock(); r.alpha = a; r.mu.Unlock() }

func (r *RecordingSurface) TextWidth(s string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return float64(utf8.RuneCountInString(s)) * r.size * ptToMM * recordingGlyphEm
}

func (r *RecordingSurface) Text(x, y float64, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Texts = append(r.Texts, TextOp{
		Page: r.page, X: x, Y: y, Text: s,
		Size: r.size, Style: r.style, Color: r.textColor, Alpha: r.alpha,
	})
}

func (r *RecordingSurface) Rect(x, y, w, h float64, mode PaintMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rects = append(r.Rects, RectOp{Page: r.page, X: x, Y: y, W: w, H: h, Mode: mode, Fill: r.fill, Stroke: r.stroke})
}

func (r *RecordingSurface) Line(x1, y1, x2, y2 float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lines = append(r.Lines, LineOp{Page: r.page, X1: x1, Y1: y1, X2: x2, Y2: y2, Width: r.lineWidth})
}

// RegisterImage decodes data the same way FpdfSurface does, so corrupt
// images fail here too.
func (r *RecordingSurface) RegisterImage(name string, data []byte) (ImageInfo, error) {
	if r.ImageErr != nil {
		return ImageInfo{}, r.ImageErr
	}
	img, err := NormalizeImage(data, DefaultMaxImageSide)
	if err != nil {
		return ImageInfo{}, err
	}
	info := ImageInfo{Width: img.Width, Height: img.Height}
	r.mu.Lock()
	r.images[name] = info
	r.mu.Unlock()
	return info, nil
}

func (r *RecordingSurface) Image(name string, x, y, w, h, rotation float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Images = append(r.Images, ImageOp{Page: r.page, Name: name, X: x, Y: y, W: w, H: h, Rotation: rotation, Alpha: r.alpha})
}

func (r *RecordingSurface) SetMetadata(m Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata = m
}

// Metadata returns what was passed to SetMetadata.
func (r *RecordingSurface) Metadata() Metadata {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metadata
}

// Output writes a plain-text listing of the recorded text, one line per call.
func (r *RecordingSurface) Output(w io.Writer) error {
	if r.OutputErr != nil {
		return r.OutputErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.Texts {
		if _, err := fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%s\n", t.Page, t.X, t.Y, t.Text); err != nil {
			return err
		}
	}
	return nil
}

func (r *RecordingSurface) Err() error {
	return nil
}

// TextsOn returns the strings drawn on a one-based page, in call order.
func (r *RecordingSurface) TextsOn(page int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, t := range r.Texts {
		if t.Page == page {
			out = append(out, t.Text)
		}
	}
	return out
}

// HasText reports whether s was drawn on page.
func (r *RecordingSurface) HasText(page int, s string) bool {
	for _, t := range r.TextsOn(page) {
		if t == s {
			return true
		}
	}
	return false
}

// CountText counts calls that drew s on page.
func (r *RecordingSurface) CountText(page int, s string) int {
	n := 0
	for _, t := range r.TextsOn(page) {
		if t == s {
			n++
		}
	}
	return n
}

// FindText returns the first op on page whose text contains sub.
func (r *RecordingSurface) FindText(page int, sub string) (TextOp, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.Texts {
		if t.Page == page && strings.Contains(t.Text, sub) {
			return t, true
		}
	}
	return TextOp{}, false
}

// ImagesOn returns the images drawn on page.
func (r *RecordingSurface) ImagesOn(page int) []ImageOp {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ImageOp
	for _, im := range r.Images {
		if im.Page == page {
			out = append(out, im)
		}
	}
	return out
}

// RectsOn returns the rectangles drawn on page.
func (r *RecordingSurface) RectsOn(page int) []RectOp {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RectOp
	for _, rc := range r.Rects {
		if rc.Page == page {
			out = append(out, rc)
		}
	}
	return out
}
