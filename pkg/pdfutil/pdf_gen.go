package pdfutil

import (
	"bytes"
	"fmt"
	"io"

	gofont "github.com/go-text/typesetting/font"
	"github.com/jung-kurt/gofpdf"

	"github.com/panelkitchens/quotekit/pkg/logging"
)

// FallbackFamily is the core font used when no UTF-8 font can be loaded.
// It cannot show Hebrew glyphs but keeps the document structurally complete.
const FallbackFamily = "Helvetica"

// FontSet is a TrueType family embedded into generated documents.
type FontSet struct {
	Family  string
	Regular []byte
	Bold    []byte
}

// FpdfSurface is an A4 portrait Surface backed by gofpdf.
type FpdfSurface struct {
	pdf       *gofpdf.Fpdf
	family    string
	translate func(string) string
	fallback  bool
	maxImage  int
	logger    logging.Logger
}

// NewFpdfSurface creates an empty A4 document. If the font set is missing or
// cannot be parsed the surface falls back to Helvetica and logs a warning.
func NewFpdfSurface(fonts FontSet, logger logging.Logger) *FpdfSurface {
	if logger == nil {
		logger = logging.NewNop()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(true)

	s := &FpdfSurface{pdf: pdf, maxImage: DefaultMaxImageSide, logger: logger}
	if err := s.registerFonts(fonts); err != nil {
		logger.Warn("Falling back to core font",
			logging.NewField("family", fonts.Family),
			logging.NewField("error", err),
		)
		s.family = FallbackFamily
		s.fallback = true
		s.translate = pdf.UnicodeTranslatorFromDescriptor("")
	}
	s.pdf.SetFont(s.family, "", 10)
	return s
}

// registerFonts embeds the family. gofpdf only prints UTF-8 font parse
// errors and some malformed tables make it panic, so the data is validated
// with go-text first and the result is probed with SetFont.
func (s *FpdfSurface) registerFonts(fonts FontSet) (err error) {
	if fonts.Family == "" || len(fonts.Regular) == 0 {
		return fmt.Errorf("no regular font data")
	}
	bold := fonts.Bold
	if len(bold) == 0 {
		bold = fonts.Regular
	}
	for _, data := range [][]byte{fonts.Regular, bold} {
		if _, err := gofont.ParseTTF(bytes.NewReader(data)); err != nil {
			return fmt.Errorf("parse font %s: %w", fonts.Family, err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse font %s: %v", fonts.Family, r)
		}
		if err != nil {
			s.pdf.ClearError()
		}
	}()

	s.pdf.AddUTF8FontFromBytes(fonts.Family, "", fonts.Regular)
	s.pdf.AddUTF8FontFromBytes(fonts.Family, "B", bold)
	s.pdf.SetFont(fonts.Family, "", 10)
	s.pdf.SetFont(fonts.Family, "B", 10)
	if s.pdf.Err() {
		return fmt.Errorf("register font %s: %w", fonts.Family, s.pdf.Error())
	}
	s.family = fonts.Family
	return nil
}

// UsingFallbackFont reports whether the core font replaced the UTF-8 family.
func (s *FpdfSurface) UsingFallbackFont() bool {
	return s.fallback
}

// SetMaxImageSide bounds the pixel size of embedded images.
func (s *FpdfSurface) SetMaxImageSide(px int) {
	s.maxImage = px
}

func (s *FpdfSurface) text(str string) string {
	if s.translate != nil {
		return s.translate(str)
	}
	return str
}

// PageSize returns the A4 page size in millimetres.
func (s *FpdfSurface) PageSize() (float64, float64) {
	return s.pdf.GetPageSize()
}

// AddPage starts a new page.
func (s *FpdfSurface) AddPage() {
	s.pdf.AddPage()
}

// PageNo returns the current page number, starting at 1.
func (s *FpdfSurface) PageNo() int {
	return s.pdf.PageNo()
}

// SetFont selects the embedded family, or the core fallback, at size points.
func (s *FpdfSurface) SetFont(style FontStyle, size float64) {
	s.pdf.SetFont(s.family, string(style), size)
}

// SetFillColor sets the color used by Fill and FillStroke.
func (s *FpdfSurface) SetFillColor(c Color) {
	s.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

// SetStrokeColor sets the color of lines and rectangle borders.
func (s *FpdfSurface) SetStrokeColor(c Color) {
	s.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

// SetTextColor sets the color of subsequent text.
func (s *FpdfSurface) SetTextColor(c Color) {
	s.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}

// SetLineWidth sets the stroke width in millimetres.
func (s *FpdfSurface) SetLineWidth(width float64) {
	s.pdf.SetLineWidth(width)
}

// SetAlpha sets the opacity of everything drawn after it.
func (s *FpdfSurface) SetAlpha(alpha float64) {
	s.pdf.SetAlpha(alpha, "Normal")
}

// TextWidth measures str in the current font.
func (s *FpdfSurface) TextWidth(str string) float64 {
	return s.pdf.GetStringWidth(s.text(str))
}

// Text draws str with its baseline at y, measured up from the bottom edge.
func (s *FpdfSurface) Text(x, y float64, str string) {
	_, h := s.pdf.GetPageSize()
	s.pdf.Text(x, h-y, s.text(str))
}

// Rect draws a rectangle whose lower left corner is at x, y.
func (s *FpdfSurface) Rect(x, y, w, h float64, mode PaintMode) {
	_, ph := s.pdf.GetPageSize()
	s.pdf.Rect(x, ph-y-h, w, h, string(mode))
}

// Line draws a straight line between two points.
func (s *FpdfSurface) Line(x1, y1, x2, y2 float64) {
	_, h := s.pdf.GetPageSize()
	s.pdf.Line(x1, h-y1, x2, h-y2)
}

// RegisterImage normalizes data and registers it with gofpdf. A failure is
// returned and cleared so the rest of the document still renders.
func (s *FpdfSurface) RegisterImage(name string, data []byte) (ImageInfo, error) {
	img, err := NormalizeImage(data, s.maxImage)
	if err != nil {
		return ImageInfo{}, err
	}

	opts := gofpdf.ImageOptions{ImageType: img.Type}
	s.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if s.pdf.Err() {
		err := s.pdf.Error()
		s.pdf.ClearError()
		return ImageInfo{}, fmt.Errorf("register image %s: %w", name, err)
	}
	return ImageInfo{Width: img.Width, Height: img.Height}, nil
}

// Image draws a registered image into the box at x, y, rotated by
// rotation degrees counterclockwise around the box center.
func (s *FpdfSurface) Image(name string, x, y, w, h, rotation float64) {
	_, ph := s.pdf.GetPageSize()
	top := ph - y - h
	opts := gofpdf.ImageOptions{}
	if rotation == 0 {
		s.pdf.ImageOptions(name, x, top, w, h, false, opts, 0, "")
		return
	}
	s.pdf.TransformBegin()
	s.pdf.TransformRotate(rotation, x+w/2, top+h/2)
	s.pdf.ImageOptions(name, x, top, w, h, false, opts, 0, "")
	s.pdf.TransformEnd()
}

// SetMetadata sets the document information dictionary.
func (s *FpdfSurface) SetMetadata(m Metadata) {
	s.pdf.SetTitle(m.Title, true)
	s.pdf.SetAuthor(m.Author, true)
	s.pdf.SetSubject(m.Subject, true)
	s.pdf.SetCreator(m.Creator, true)
	if !m.CreationDate.IsZero() {
		s.pdf.SetCreationDate(m.CreationDate)
	}
}

// Output writes the finished document. It fails if any earlier drawing
// call left a sticky error.
func (s *FpdfSurface) Output(w io.Writer) error {
	if err := s.Err(); err != nil {
		return err
	}
	return s.pdf.Output(w)
}

// Err returns the first drawing error, if any.
func (s *FpdfSurface) Err() error {
	if s.pdf.Err() {
		return s.pdf.Error()
	}
	return nil
}

// Bytes renders the document into memory.
func (s *FpdfSurface) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
