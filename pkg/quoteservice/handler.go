package quoteservice

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/panelkitchens/quotekit/pkg/catalog"
	"github.com/panelkitchens/quotekit/pkg/document"
	"github.com/panelkitchens/quotekit/pkg/errors"
	"github.com/panelkitchens/quotekit/pkg/httpservice"
	"github.com/panelkitchens/quotekit/pkg/jwt"
	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/quote"
)

// QuoteIDHeader carries the quote ID on PDF responses.
const QuoteIDHeader = "X-Quote-ID"

// HandlerConfig wires a Handler. Catalogs and CatalogPath may be empty, in
// which case GET /catalog reports not found and product IDs are rejected.
// A nil Tokens leaves the API unauthenticated.
type HandlerConfig struct {
	Service     *Service
	Catalogs    *catalog.Loader
	CatalogPath string
	Tokens      *jwt.TokenService
	Logger      logging.Logger
}

// Handler serves the quote API.
type Handler struct {
	cfg HandlerConfig
}

// NewHandler returns a handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	return &Handler{cfg: cfg}
}

// Register mounts the routes under /api/v1.
func (h *Handler) Register(router *gin.Engine) {
	api := router.Group("/api/v1")
	if h.cfg.Tokens != nil {
		api.Use(jwt.AuthMiddleware(h.cfg.Tokens, h.cfg.Logger))
	}

	api.POST("/quotes", httpservice.Wrap("CreateQuote", h.createQuote))
	api.POST("/quotes/summary", httpservice.Wrap("QuoteSummary", h.summary))
	api.GET("/quotes/:id/pdf", httpservice.Wrap("QuoteDocument", h.document))
	api.GET("/catalog", httpservice.Wrap("Catalog", h.catalog))

	history := []gin.HandlerFunc{httpservice.Wrap("QuoteHistory", h.history)}
	if h.cfg.Tokens != nil {
		history = append([]gin.HandlerFunc{jwt.RequireRole(h.cfg.Logger, jwt.RoleAdmin)}, history...)
	}
	api.GET("/quotes", history...)
}

func (h *Handler) createQuote(c *gin.Context) error {
	req, err := h.bindRequest(c, true)
	if err != nil {
		return err
	}

	res, err := h.cfg.Service.CreateQuote(c.Request.Context(), req)
	if err != nil {
		return err
	}

	c.Header(QuoteIDHeader, res.QuoteID)
	if wantsPDF(c) {
		httpservice.RespondFile(c, "application/pdf", res.Document.FileName, res.Document.Bytes)
		return nil
	}
	httpservice.RespondCreated(c, QuoteResponse{
		QuoteID:   res.QuoteID,
		FileName:  res.Document.FileName,
		PageCount: res.Document.PageCount,
		BlobURL:   res.BlobURL,
		MessageID: res.MessageID,
		Plan:      res.Document.Plan,
		Summary:   res.Document.Summary,
	})
	return nil
}

func (h *Handler) summary(c *gin.Context) error {
	req, err := h.bindRequest(c, false)
	if err != nil {
		return err
	}
	sum := quote.ComputeFor(req.Customer, req.Items)
	plan := h.cfg.Service.Generator().Plan(req)
	httpservice.RespondSuccess(c, SummaryResponse{
		Summary:   sum,
		Formatted: formatSummary(sum),
		Plan:      plan,
	})
	return nil
}

func (h *Handler) history(c *gin.Context) error {
	var q HistoryQuery
	if err := httpservice.BindQuery(c, &q); err != nil {
		return err
	}
	records, err := h.cfg.Service.History(c.Request.Context(), q.Phone, q.Limit)
	if err != nil {
		return err
	}
	httpservice.RespondSuccess(c, records)
	return nil
}

func (h *Handler) document(c *gin.Context) error {
	id := c.Param("id")
	rc, err := h.cfg.Service.Document(c.Request.Context(), id)
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return errors.NewStorageError("failed to read quote document", err)
	}
	c.Header(QuoteIDHeader, id)
	httpservice.RespondFile(c, "application/pdf", id+".pdf", data)
	return nil
}

func (h *Handler) catalog(c *gin.Context) error {
	var q CatalogQuery
	if err := httpservice.BindQuery(c, &q); err != nil {
		return err
	}
	cat, err := h.loadCatalog()
	if err != nil {
		return err
	}
	products := cat.Products
	if q.Search != "" {
		products = cat.Search(q.Search)
	}
	httpservice.RespondSuccess(c, gin.H{
		"categories": cat.Categories(),
		"products":   products,
	})
	return nil
}

// bindRequest decodes and validates a quote request. Images are decoded
// only when withImages is set; the summary endpoint needs their presence,
// not their bytes.
func (h *Handler) bindRequest(c *gin.Context, withImages bool) (document.Request, error) {
	var body CreateQuoteRequest
	if err := httpservice.BindJSON(c, &body); err != nil {
		return document.Request{}, err
	}

	customer, err := body.Customer.toCustomer()
	if err != nil {
		return document.Request{}, err
	}

	var cat *catalog.Catalog
	if usesCatalog(body.Items) {
		if cat, err = h.loadCatalog(); err != nil {
			return document.Request{}, err
		}
	}
	items, err := lineItems(body.Items, cat)
	if err != nil {
		return document.Request{}, err
	}

	req := document.Request{Customer: customer, Items: items}
	if !withImages {
		req.Image1 = []byte(body.Image1)
		req.Image2 = []byte(body.Image2)
		return req, nil
	}
	if req.Image1, err = decodeImage("image1", body.Image1); err != nil {
		return document.Request{}, err
	}
	if req.Image2, err = decodeImage("image2", body.Image2); err != nil {
		return document.Request{}, err
	}
	return req, nil
}

func (h *Handler) loadCatalog() (*catalog.Catalog, error) {
	if h.cfg.Catalogs == nil || h.cfg.CatalogPath == "" {
		return nil, errors.NewNotFoundError("no catalog is configured")
	}
	cat, err := h.cfg.Catalogs.Load(h.cfg.CatalogPath)
	if err != nil {
		h.cfg.Logger.Error("Catalog unavailable",
			logging.NewField("path", h.cfg.CatalogPath),
			logging.NewField("error", err),
		)
		return nil, errors.NewServiceUnavailableError("catalog is unavailable")
	}
	return cat, nil
}

func wantsPDF(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/pdf")
}

var _ httpservice.Handler = (*Handler)(nil)

