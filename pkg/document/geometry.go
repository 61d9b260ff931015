package document

import (
	"github.com/panelkitchens/quotekit/pkg/layout"
	"github.com/panelkitchens/quotekit/pkg/pdfutil"
)

// Page geometry in millimetres, origin bottom-left. The values are chosen so
// that a full first page (15 rows) and a full continuation page (30 rows)
// both leave room for the financial summary with the tallest allowed logo.
const (
	pageMargin  = 20.0
	frameInset  = 10.0
	frameWidth  = 0.8
	logoWidth   = 50.0
	logoMaxH    = 18.0
	logoPadding = 5.0

	titleSize       = 28.0
	titleGap        = 12.0 // logo bottom margin to title baseline
	headerGap       = 18.0 // logo bottom margin to first content line
	continuationGap = 8.0

	customerRowH    = 7.0
	customerSize    = 12.0
	customerTailGap = 6.0

	tableHeaderH    = 7.0
	tableHeaderSize = 10.0
	rowH            = 5.0
	rowSize         = 9.0
	cellPad         = 3.0

	colTotalW = 40.0
	colPriceW = 40.0
	colQtyW   = 25.0

	summaryGap        = 6.0
	summaryBoxW       = 80.0
	summaryBoxH       = 40.0
	summaryLineH      = 6.0
	summarySize       = 11.0
	summaryTotalSize  = 13.0
	summaryLabelInset = 5.0
	summaryValueInset = 45.0
	// summaryFootprint is everything the summary needs below the last row.
	summaryFootprint = 2*summaryGap + summaryBoxH

	footerBarH     = 3.0
	footerLogoY    = 4.0
	footerLogoH    = 8.0
	footerBaseline = 7.0
	footerInfoSize = 7.0
	footerPageSize = 9.0
	contentBottom  = 16.0

	imageCaptionSize = 16.0
	imageCaptionGap  = 10.0
	errorCaptionSize = 9.0

	termsGap      = 20.0
	termsSize     = 10.0
	termsLineH    = 6.0
	signatureGap  = 10.0
	signatureSize = 12.0

	watermarkAlpha    = 0.1
	watermarkRotation = 45.0
)

var (
	brandRed    = pdfutil.Color{R: 211, G: 47, B: 47}
	rowTint     = pdfutil.Gray(230)
	gridGray    = pdfutil.Gray(204)
	summaryFill = pdfutil.Gray(247)
)

// columns are the x extents of the item table. The product column is on the
// right because the table reads right to left.
type columns struct {
	left, totalEnd, priceEnd, qtyEnd, right float64
}

func tableColumns(pageW float64) columns {
	left := pageMargin
	return columns{
		left:     left,
		totalEnd: left + colTotalW,
		priceEnd: left + colTotalW + colPriceW,
		qtyEnd:   left + colTotalW + colPriceW + colQtyW,
		right:    pageW - pageMargin,
	}
}

func (c columns) width() float64 { return c.right - c.left }

// productTextWidth is the space available to a product name.
func (c columns) productTextWidth() float64 {
	return c.right - c.qtyEnd - 10
}

// logoBox returns the header logo size for an image of the given aspect
// (height over width): fixed width, capped height.
func logoBox(aspect float64) (w, h float64) {
	w, h = logoWidth, logoWidth*aspect
	if h > logoMaxH {
		h = logoMaxH
		w = logoMaxH / aspect
	}
	return w, h
}

// headerBottom is the y of the first content line below the header.
func headerBottom(pageH, logoH float64) float64 {
	return pageH - pageMargin - logoH - headerGap
}

// firstTableTop is the y below the table header on the first page.
func firstTableTop(pageH, logoH float64) float64 {
	return headerBottom(pageH, logoH) - 5*customerRowH - customerTailGap - tableHeaderH
}

// continuationTableTop is the y below the table header on later pages.
func continuationTableTop(pageH, logoH float64) float64 {
	return headerBottom(pageH, logoH) - continuationGap - tableHeaderH
}

// summaryFits reports whether the summary block fits under the last table
// row of plan. The renderer and the page count both depend on it.
func summaryFits(plan layout.Plan, pageH, logoH float64) bool {
	top := firstTableTop(pageH, logoH)
	if plan.TablePages > 1 {
		top = continuationTableTop(pageH, logoH)
	}
	y := top - float64(plan.RowsOnLastTablePage())*rowH
	return y-summaryFootprint >= contentBottom
}
