package document

import (
	"fmt"

	"github.com/panelkitchens/quotekit/pkg/layout"
	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/pdfutil"
	"github.com/panelkitchens/quotekit/pkg/quote"
	"github.com/panelkitchens/quotekit/pkg/rtl"
)

const (
	titleText         = "הצעת מחיר"
	image1Caption     = "הדמיה"
	image2Caption     = "הדמיית נקודות מים וחשמל"
	signatureLine     = "חתימת הלקוח: __________"
	ellipsis          = "..."
	logoImage         = "logo"
	watermarkImage    = "watermark"
	image1Name        = "image1"
	image2Name        = "image2"
	pageCounterFormat = "עמוד %d מתוך %d"
)

// Table header labels, right to left.
const (
	headerProduct = "מוצר"
	headerQty     = "כמות"
	headerPrice   = "מחיר ליחידה"
	headerTotal   = "סה\"כ"
)

// renderer draws one document. It is created per call and never shared.
type renderer struct {
	s      pdfutil.Surface
	cfg    Config
	logger logging.Logger
	pageW  float64
	pageH  float64
	cols   columns

	hasLogo      bool
	logoW, logoH float64
	logoAspect   float64

	hasWatermark bool
	wmW, wmH     float64

	plan      layout.Plan
	fallbacks int
}

func newRenderer(s pdfutil.Surface, cfg Config, logger logging.Logger) *renderer {
	w, h := s.PageSize()
	return &renderer{s: s, cfg: cfg, logger: logger, pageW: w, pageH: h, cols: tableColumns(w)}
}

// registerAssets embeds the logo and watermark. Either may be missing.
func (r *renderer) registerAssets(a *Assets) {
	if a == nil {
		return
	}
	if len(a.Logo) > 0 {
		info, err := r.s.RegisterImage(logoImage, a.Logo)
		if err != nil {
			r.logger.Warn("Logo omitted", logging.NewField("error", err))
		} else {
			r.hasLogo = true
			r.logoAspect = info.Aspect()
			r.logoW, r.logoH = logoBox(r.logoAspect)
		}
	}
	if len(a.Watermark) > 0 {
		info, err := r.s.RegisterImage(watermarkImage, a.Watermark)
		if err != nil {
			r.logger.Warn("Watermark omitted", logging.NewField("error", err))
			return
		}
		// Fit into a quarter of the page, like a centered stamp.
		scale := min((r.pageW/2)/float64(info.Width), (r.pageH/2)/float64(info.Height))
		r.hasWatermark = true
		r.wmW, r.wmH = float64(info.Width)*scale, float64(info.Height)*scale
	}
}

// shape converts logical text for drawing and counts fallbacks.
func (r *renderer) shape(text string) string {
	shaped, err := rtl.TryShape(text)
	if err != nil {
		r.fallbacks++
		r.logger.Debug("Shaping fell back to reversal", logging.NewField("error", err))
	}
	return shaped
}

func (r *renderer) textRight(xRight, y float64, s string) {
	r.s.Text(xRight-r.s.TextWidth(s), y, s)
}

func (r *renderer) textCenter(xCenter, y float64, s string) {
	r.s.Text(xCenter-r.s.TextWidth(s)/2, y, s)
}

func (r *renderer) rtlRight(xRight, y float64, logical string) {
	r.textRight(xRight, y, r.shape(logical))
}

// fitText truncates logical text rune by rune until its shaped form,
// ellipsis included, fits maxW. Text that already fits is returned as is;
// when no prefix fits the bare ellipsis is returned.
func (r *renderer) fitText(text string, maxW float64) string {
	if r.s.TextWidth(r.shape(text)) <= maxW {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && r.s.TextWidth(r.shape(string(runes)+ellipsis)) > maxW {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ellipsis
}

// newPage starts a page with the watermark underneath everything else.
func (r *renderer) newPage() {
	r.s.AddPage()
	r.watermark()
}

func (r *renderer) watermark() {
	if !r.hasWatermark {
		return
	}
	r.s.SetAlpha(watermarkAlpha)
	r.s.Image(watermarkImage, (r.pageW-r.wmW)/2, (r.pageH-r.wmH)/2, r.wmW, r.wmH, watermarkRotation)
	r.s.SetAlpha(1)
}

// header draws the frame, logo and title and returns the y below them.
func (r *renderer) header() float64 {
	r.s.SetStrokeColor(brandRed)
	r.s.SetLineWidth(frameWidth)
	r.s.Rect(frameInset, frameInset, r.pageW-2*frameInset, r.pageH-2*frameInset, pdfutil.Stroke)

	logoH := 0.0
	if r.hasLogo {
		logoH = r.logoH
		top := r.pageH - frameInset - logoPadding
		r.s.Image(logoImage, frameInset+logoPadding, top-logoH, r.logoW, logoH, 0)
	}

	r.s.SetFont(pdfutil.Bold, titleSize)
	r.s.SetTextColor(brandRed)
	r.textCenter(r.pageW/2, r.pageH-pageMargin-logoH-titleGap, r.shape(titleText))
	r.s.SetTextColor(pdfutil.Black)

	return headerBottom(r.pageH, logoH)
}

func (r *renderer) headerLogoH() float64 {
	if r.hasLogo {
		return r.logoH
	}
	return 0
}

// footer draws the bottom bar, small logo, contact line and page counter.
func (r *renderer) footer() {
	r.s.SetFillColor(brandRed)
	r.s.Rect(0, 0, r.pageW, footerBarH, pdfutil.Fill)

	x := pageMargin
	if r.hasLogo {
		w := footerLogoH / r.logoAspect
		r.s.Image(logoImage, x, footerLogoY, w, footerLogoH, 0)
		x += w + 5
	}

	r.s.SetTextColor(pdfutil.Black)
	r.s.SetFont(pdfutil.Regular, footerInfoSize)
	r.s.Text(x, footerBaseline, r.shape(r.cfg.ContactLine))

	r.s.SetFont(pdfutil.Regular, footerPageSize)
	r.rtlRight(r.pageW-pageMargin, footerBaseline, fmt.Sprintf(pageCounterFormat, r.s.PageNo(), r.plan.TotalPages))
}

// customerBlock draws the addressee lines and returns the y of the table.
func (r *renderer) customerBlock(y float64, c quote.Customer) float64 {
	r.s.SetFont(pdfutil.Regular, customerSize)
	r.s.SetTextColor(pdfutil.Black)
	for _, line := range customerLines(c) {
		r.rtlRight(r.pageW-pageMargin, y, line)
		y -= customerRowH
	}
	return y - customerTailGap
}

func customerLines(c quote.Customer) []string {
	return []string{
		"לכבוד: " + c.Name,
		"תאריך: " + c.Date.Format("02/01/2006"),
		"טלפון: " + c.Phone,
		"דוא\"ל: " + c.Email,
		"כתובת: " + c.Address,
	}
}

// tableHeader draws the red column band whose top edge is y and returns the
// y below it.
func (r *renderer) tableHeader(y float64) float64 {
	bottom := y - tableHeaderH
	r.s.SetFillColor(brandRed)
	r.s.SetStrokeColor(gridGray)
	r.s.SetLineWidth(0.2)
	r.s.Rect(r.cols.left, bottom, r.cols.width(), tableHeaderH, pdfutil.FillStroke)

	base := bottom + 2.3
	r.s.SetFont(pdfutil.Bold, tableHeaderSize)
	r.s.SetTextColor(pdfutil.White)
	r.rtlRight(r.cols.right-cellPad, base, headerProduct)
	r.textCenter((r.cols.priceEnd+r.cols.qtyEnd)/2, base, r.shape(headerQty))
	r.rtlRight(r.cols.priceEnd-cellPad, base, headerPrice)
	r.rtlRight(r.cols.totalEnd-cellPad, base, headerTotal)
	r.s.SetTextColor(pdfutil.Black)
	return bottom
}

// row draws item i (zero-based across the whole table) with its top at y.
func (r *renderer) row(y float64, i int, item quote.LineItem) float64 {
	bottom := y - rowH
	r.s.SetStrokeColor(gridGray)
	r.s.SetLineWidth(0.2)
	if i%2 == 0 {
		r.s.SetFillColor(rowTint)
		r.s.Rect(r.cols.left, bottom, r.cols.width(), rowH, pdfutil.FillStroke)
	} else {
		r.s.Rect(r.cols.left, bottom, r.cols.width(), rowH, pdfutil.Stroke)
	}

	base := bottom + 1.6
	r.s.SetFont(pdfutil.Regular, rowSize)
	r.s.SetTextColor(pdfutil.Black)

	name := r.fitText(item.Name, r.cols.productTextWidth())
	r.rtlRight(r.cols.right-cellPad, base, name)
	r.textCenter((r.cols.priceEnd+r.cols.qtyEnd)/2, base, fmt.Sprintf("%d", item.Quantity))

	if item.Measured() {
		measured := r.shape(quote.MeasuredPriceLabel)
		r.textRight(r.cols.priceEnd-cellPad, base, measured)
		r.textRight(r.cols.totalEnd-cellPad, base, measured)
	} else {
		r.textRight(r.cols.priceEnd-cellPad, base, quote.FormatMoney(*item.UnitPrice))
		r.textRight(r.cols.totalEnd-cellPad, base, quote.FormatMoney(item.LineTotal()))
	}
	return bottom
}

type summaryLine struct {
	label string
	value string
}

func summaryLines(s quote.Summary) []summaryLine {
	var lines []summaryLine
	if s.ContractorDiscount.IsPositive() {
		lines = append(lines, summaryLine{"הנחת קבלן", quote.FormatMoney(s.ContractorDiscount.Neg())})
	}
	lines = append(lines,
		summaryLine{"סכום ביניים", quote.FormatMoney(s.TaxableBase)},
		summaryLine{"מע\"מ (17%)", quote.FormatMoney(s.Tax)},
	)
	if s.PercentDiscount.IsPositive() {
		label := fmt.Sprintf("הנחה (%s%%)", quote.FormatPercent(s.DiscountPercent))
		lines = append(lines, summaryLine{label, quote.FormatMoney(s.PercentDiscount.Neg())})
	}
	return lines
}

const grandTotalLabel = "סך הכל לתשלום"

// summary draws the divider and the totals box below y.
func (r *renderer) summary(y float64, s quote.Summary) {
	y -= summaryGap
	r.s.SetStrokeColor(brandRed)
	r.s.SetLineWidth(1)
	r.s.Line(pageMargin, y, r.pageW-pageMargin, y)
	y -= summaryGap

	right := r.pageW - pageMargin
	r.s.SetFillColor(summaryFill)
	r.s.SetStrokeColor(gridGray)
	r.s.SetLineWidth(0.3)
	r.s.Rect(right-summaryBoxW, y-summaryBoxH, summaryBoxW, summaryBoxH, pdfutil.FillStroke)

	labelX, valueX := right-summaryLabelInset, right-summaryValueInset
	r.s.SetFont(pdfutil.Regular, summarySize)
	r.s.SetTextColor(pdfutil.Black)
	line := y
	for _, l := range summaryLines(s) {
		line -= summaryLineH
		r.rtlRight(labelX, line, l.label)
		r.textRight(valueX, line, l.value)
	}

	line -= 3
	r.s.SetStrokeColor(brandRed)
	r.s.SetLineWidth(0.6)
	r.s.Line(right-summaryBoxW+5, line, right-summaryLabelInset, line)

	line -= summaryLineH
	r.s.SetFont(pdfutil.Bold, summaryTotalSize)
	r.s.SetTextColor(brandRed)
	r.rtlRight(labelX, line, grandTotalLabel)
	r.textRight(valueX, line, quote.FormatMoney(s.GrandTotal))
	r.s.SetTextColor(pdfutil.Black)
}

// imagePage draws a captioned, fitted image. Failures become a visible
// caption so the document stays complete.
func (r *renderer) imagePage(name, caption string, data []byte) {
	y := r.header()
	r.s.SetFont(pdfutil.Regular, imageCaptionSize)
	r.s.SetTextColor(pdfutil.Black)
	r.textCenter(r.pageW/2, y, r.shape(caption))
	y -= imageCaptionGap

	info, err := r.s.RegisterImage(name, data)
	if err != nil {
		r.logger.Warn("Image page without image",
			logging.NewField("image", name),
			logging.NewField("error", err),
		)
		r.s.SetFont(pdfutil.Regular, errorCaptionSize)
		r.s.SetTextColor(brandRed)
		r.s.Text(pageMargin, y-18, "Error loading image: "+err.Error())
		r.s.SetTextColor(pdfutil.Black)
		return
	}

	maxW := r.pageW - 2*pageMargin
	maxH := y - contentBottom - 4
	scale := min(maxW/float64(info.Width), maxH/float64(info.Height))
	w, h := float64(info.Width)*scale, float64(info.Height)*scale
	bottom := y - h
	if h < maxH*0.8 {
		bottom = y - (maxH-h)/2 - h
	}
	r.s.Image(name, (r.pageW-w)/2, bottom, w, h, 0)
}

// termsPage draws the legal lines and the signature placeholder.
func (r *renderer) termsPage() {
	y := r.header() - termsGap
	r.s.SetFont(pdfutil.Regular, termsSize)
	r.s.SetTextColor(pdfutil.Black)
	for _, t := range r.cfg.Terms {
		r.rtlRight(r.pageW-pageMargin, y, t)
		y -= termsLineH
	}
	y -= signatureGap
	r.s.SetFont(pdfutil.Regular, signatureSize)
	r.rtlRight(r.pageW-pageMargin, y, signatureLine)
}

// render draws every page of plan.
func (r *renderer) render(plan layout.Plan, req Request, sum quote.Summary) {
	r.plan = plan

	r.newPage()
	y := r.header()
	y = r.customerBlock(y, req.Customer)
	y = r.tableHeader(y)

	onPage, tablePage := 0, 0
	for i, item := range req.Items {
		if onPage >= plan.CapacityOf(tablePage) {
			r.footer()
			r.newPage()
			y = r.tableHeader(r.header() - continuationGap)
			onPage = 0
			tablePage++
		}
		y = r.row(y, i, item)
		onPage++
	}

	if plan.SummaryOverflow {
		r.footer()
		r.newPage()
		y = r.header() - continuationGap
	}
	r.summary(y, sum)
	r.footer()

	if plan.HasImage1 {
		r.newPage()
		r.imagePage(image1Name, image1Caption, req.Image1)
		r.footer()
	}
	if plan.HasImage2 {
		r.newPage()
		r.imagePage(image2Name, image2Caption, req.Image2)
		r.footer()
	}

	r.newPage()
	r.termsPage()
	r.footer()

	if r.fallbacks > 0 {
		r.logger.Warn("Some labels were reversed without bidi shaping",
			logging.NewField("count", r.fallbacks))
	}
}
