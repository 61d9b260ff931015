package pdfutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxImageSide bounds embedded images; a full-width A4 image at
// 300 dpi is about 2000 pixels wide.
const DefaultMaxImageSide = 2000

// MaxImagePixels caps the declared size of an image before it is decoded.
// Decoding allocates width*height*4 bytes up front.
const MaxImagePixels = 50_000_000

// NormalizedImage is an image re-encoded into a form gofpdf can embed.
type NormalizedImage struct {
	Data   []byte
	Type   string // "JPG" or "PNG"
	Width  int
	Height int
	Format string // the decoded source format
}

// NormalizeImage decodes PNG, JPEG, GIF, BMP, TIFF or WebP data, scales it
// down when its longer side exceeds maxSide, and re-encodes it as JPEG when
// opaque or as 8-bit PNG when it has transparency. maxSide <= 0 disables
// scaling. Images declaring more than MaxImagePixels are rejected without
// being decoded.
func NormalizeImage(data []byte, maxSide int) (*NormalizedImage, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode image: empty %s image", format)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("decode image: %s image is %dx%d, over the %d pixel limit",
			format, cfg.Width, cfg.Height, MaxImagePixels)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("decode image: empty %s image", format)
	}

	tw, th := w, h
	if maxSide > 0 && (w > maxSide || h > maxSide) {
		if w >= h {
			tw, th = maxSide, max(1, h*maxSide/w)
		} else {
			tw, th = max(1, w*maxSide/h), maxSide
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, tw, th))
	if tw == w && th == h {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}

	out := &NormalizedImage{Width: tw, Height: th, Format: format}
	var buf bytes.Buffer
	if dst.Opaque() {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90})
		out.Type = "JPG"
	} else {
		err = png.Encode(&buf, dst)
		out.Type = "PNG"
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s image: %w", out.Type, err)
	}
	out.Data = buf.Bytes()
	return out, nil
}
