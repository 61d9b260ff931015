// Package pdfutil provides the drawing surface the quote renderer paints on.
//
// Coordinates are millimetres with the origin at the bottom-left corner of
// the page and y growing upward. Text is positioned by its baseline start.
package pdfutil

import (
	"io"
	"time"
)

// FontStyle selects the regular or bold face of the document font.
type FontStyle string

const (
	Regular FontStyle = ""
	Bold    FontStyle = "B"
)

// PaintMode controls whether a rectangle is stroked, filled or both.
type PaintMode string

const (
	Stroke     PaintMode = "D"
	Fill       PaintMode = "F"
	FillStroke PaintMode = "FD"
)

// Color is an 8-bit RGB color.
type Color struct {
	R, G, B uint8
}

// Common colors.
var (
	Black = Color{0, 0, 0}
	White = Color{255, 255, 255}
)

// Gray returns a neutral gray of the given level.
func Gray(level uint8) Color {
	return Color{level, level, level}
}

// ImageInfo describes a registered image in pixels.
type ImageInfo struct {
	Width  int
	Height int
}

// Aspect is height divided by width.
func (i ImageInfo) Aspect() float64 {
	if i.Width == 0 {
		return 1
	}
	return float64(i.Height) / float64(i.Width)
}

// Metadata is written into the PDF information dictionary.
type Metadata struct {
	Title        string
	Author       string
	Subject      string
	Creator      string
	CreationDate time.Time
}

// Surface is a paged vector drawing target.
type Surface interface {
	PageSize() (width, height float64)
	AddPage()
	// PageNo is the one-based current page, 0 before the first AddPage.
	PageNo() int

	SetFont(style FontStyle, size float64)
	SetFillColor(c Color)
	SetStrokeColor(c Color)
	SetTextColor(c Color)
	SetLineWidth(width float64)
	// SetAlpha sets the opacity of subsequent drawing, 0 to 1.
	SetAlpha(alpha float64)

	// TextWidth measures s in the current font.
	TextWidth(s string) float64
	Text(x, y float64, s string)
	// Rect draws a rectangle whose bottom-left corner is (x, y).
	Rect(x, y, w, h float64, mode PaintMode)
	Line(x1, y1, x2, y2 float64)

	// RegisterImage decodes data and makes it available under name.
	RegisterImage(name string, data []byte) (ImageInfo, error)
	// Image draws a registered image with its bottom-left corner at (x, y),
	// rotated counter-clockwise by rotation degrees around its center.
	Image(name string, x, y, w, h, rotation float64)

	SetMetadata(m Metadata)
	Output(w io.Writer) error
	// Err reports a sticky drawing error, if any.
	Err() error
}
