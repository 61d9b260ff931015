// Package document renders customer quotes as paginated A4 PDF documents.
package document

import (
	"bytes"
	"context"
	"time"

	"github.com/panelkitchens/quotekit/pkg/errors"
	"github.com/panelkitchens/quotekit/pkg/layout"
	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/pdfutil"
	"github.com/panelkitchens/quotekit/pkg/quote"
)

// Request is everything one document is rendered from. Image1 and Image2 are
// raw encoded images; empty means the page is left out.
type Request struct {
	Customer quote.Customer
	Items    []quote.LineItem
	Image1   []byte
	Image2   []byte
}

// RequestFromSession builds a request from a prepared session and the bytes
// of its images.
func RequestFromSession(s quote.Session, image1, image2 []byte) Request {
	return Request{
		Customer: s.Customer,
		Items:    s.LineItems(),
		Image1:   image1,
		Image2:   image2,
	}
}

// Document is a rendered quote.
type Document struct {
	Bytes     []byte
	PageCount int
	Plan      layout.Plan
	Summary   quote.Summary
	FileName  string
	// FallbackFont is set when the configured fonts could not be embedded
	// and Hebrew text was drawn with the core font.
	FallbackFont bool
}

// Generator renders quotes. It holds only read-only configuration and is
// safe for concurrent use.
type Generator struct {
	cfg     Config
	assets  *Assets
	planner *layout.Planner
	logoH   float64
	logger  logging.Logger
	now     func() time.Time
}

// NewGenerator returns a generator. assets may be nil.
func NewGenerator(cfg Config, assets *Assets, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if assets == nil {
		assets = &Assets{}
	}
	cfg = cfg.withDefaults()
	return &Generator{
		cfg:     cfg,
		assets:  assets,
		planner: layout.NewPlanner(cfg.Capacity),
		logoH:   headerLogoHeight(assets.Logo, cfg.MaxImageSide),
		logger:  logger,
		now:     time.Now,
	}
}

// headerLogoHeight is the height the header reserves for logo, or 0 when the
// logo is absent or cannot be decoded.
func headerLogoHeight(logo []byte, maxSide int) float64 {
	if len(logo) == 0 {
		return 0
	}
	img, err := pdfutil.NormalizeImage(logo, maxSide)
	if err != nil {
		return 0
	}
	_, h := logoBox(pdfutil.ImageInfo{Width: img.Width, Height: img.Height}.Aspect())
	return h
}

// Planner returns the planner the generator paginates with.
func (g *Generator) Planner() *layout.Planner {
	return g.planner
}

// Plan returns the page plan Generate would use for req, including the
// summary overflow page when the totals do not fit under the last table row.
func (g *Generator) Plan(req Request) layout.Plan {
	return g.PlanItems(len(req.Items), len(req.Image1) > 0, len(req.Image2) > 0)
}

// PlanItems is Plan for a request with the given item count and images.
func (g *Generator) PlanItems(items int, image1, image2 bool) layout.Plan {
	return g.plan(items, image1, image2, g.logoH)
}

func (g *Generator) plan(items int, image1, image2 bool, logoH float64) layout.Plan {
	plan := g.planner.Plan(items, image1, image2)
	if !summaryFits(plan, pdfutil.A4Height, logoH) {
		plan = plan.WithSummaryOverflow()
	}
	return plan
}

// Generate renders req into a new PDF.
func (g *Generator) Generate(ctx context.Context, req Request) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.FromError(err)
	}
	logger := logging.ForContext(ctx, g.logger)

	surface := pdfutil.NewFpdfSurface(pdfutil.FontSet{
		Family:  g.cfg.FontFamily,
		Regular: g.assets.FontRegular,
		Bold:    g.assets.FontBold,
	}, logger)
	surface.SetMaxImageSide(g.cfg.MaxImageSide)

	doc, err := g.render(surface, req, logger)
	if err != nil {
		return nil, err
	}
	data, err := surface.Bytes()
	if err != nil {
		logger.Error("PDF output failed", logging.NewField("error", err))
		return nil, errors.NewGenerationError("failed to write PDF", err)
	}
	doc.Bytes = data
	doc.FallbackFont = surface.UsingFallbackFont()

	logger.Info("Quote document generated",
		logging.NewField("pages", doc.PageCount),
		logging.NewField("items", len(req.Items)),
		logging.NewField("bytes", len(data)),
		logging.NewField("fallback_font", doc.FallbackFont),
	)
	return doc, nil
}

// Render draws req onto surface and writes it out through the surface's
// Output. It is the entry point for alternative surfaces.
func (g *Generator) Render(surface pdfutil.Surface, req Request) (*Document, error) {
	doc, err := g.render(surface, req, g.logger)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := surface.Output(&buf); err != nil {
		return nil, errors.NewGenerationError("failed to write PDF", err)
	}
	doc.Bytes = buf.Bytes()
	return doc, nil
}

func (g *Generator) render(surface pdfutil.Surface, req Request, logger logging.Logger) (*Document, error) {
	if err := req.Customer.Validate(); err != nil {
		return nil, err
	}
	if err := quote.ValidateItems(req.Items); err != nil {
		return nil, err
	}
	if req.Customer.Date.IsZero() {
		req.Customer.Date = g.now()
	}

	r := newRenderer(surface, g.cfg, logger)
	r.registerAssets(g.assets)

	plan := g.plan(len(req.Items), len(req.Image1) > 0, len(req.Image2) > 0, r.headerLogoH())
	sum := quote.ComputeFor(req.Customer, req.Items)

	surface.SetMetadata(pdfutil.Metadata{
		Title:        titleText + " - " + req.Customer.Name,
		Author:       g.cfg.CompanyName,
		Subject:      titleText,
		Creator:      g.cfg.CompanyName,
		CreationDate: req.Customer.Date,
	})
	r.render(plan, req, sum)

	if err := surface.Err(); err != nil {
		return nil, errors.NewGenerationError("failed to render PDF", err)
	}
	if got := surface.PageNo(); got != plan.TotalPages {
		logger.Error("Page count differs from plan",
			logging.NewField("planned", plan.TotalPages),
			logging.NewField("rendered", got),
		)
	}

	return &Document{
		PageCount: plan.TotalPages,
		Plan:      plan,
		Summary:   sum,
		FileName:  FileName(req.Customer.Name, req.Customer.Date),
	}, nil
}
