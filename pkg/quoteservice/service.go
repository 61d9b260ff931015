// Package quoteservice turns quote requests into stored, announced PDF
// documents and exposes that over HTTP.
package quoteservice

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/panelkitchens/quotekit/pkg/blobclient"
	"github.com/panelkitchens/quotekit/pkg/document"
	"github.com/panelkitchens/quotekit/pkg/errors"
	"github.com/panelkitchens/quotekit/pkg/history"
	"github.com/panelkitchens/quotekit/pkg/httpservice"
	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/servicebusclient"
	"github.com/panelkitchens/quotekit/pkg/telemetry"
	"github.com/panelkitchens/quotekit/pkg/utils"
)

// SubjectQuoteGenerated is the Service Bus subject of the notification sent
// for every stored quote. The mail service subscribes to it.
const SubjectQuoteGenerated = "quote.generated"

// Telemetry is the subset of the New Relic client the service reports to.
type Telemetry interface {
	StartSegment(ctx context.Context, name string) func()
	RecordQuoteGenerated(ctx context.Context, e telemetry.QuoteEvent)
}

// Options configures where quotes go.
type Options struct {
	Container  string
	Topic      string
	AccessTier string
	Retry      utils.RetryConfig
	// GenerateTimeout bounds one CreateQuote call; zero means no bound.
	GenerateTimeout time.Duration
}

// Service creates quotes. Publisher, Store and Telemetry are optional.
type Service struct {
	generator *document.Generator
	blobs     blobclient.BlobClient
	publisher servicebusclient.Publisher
	store     history.Store
	telemetry Telemetry
	opts      Options
	logger    logging.Logger
	now       func() time.Time
}

// NewService wires a Service.
func NewService(gen *document.Generator, blobs blobclient.BlobClient, publisher servicebusclient.Publisher,
	store history.Store, tel Telemetry, opts Options, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Container == "" {
		opts.Container = "quotes"
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = utils.DefaultRetryConfig()
	}
	return &Service{
		generator: gen,
		blobs:     blobs,
		publisher: publisher,
		store:     store,
		telemetry: tel,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Generator returns the document generator.
func (s *Service) Generator() *document.Generator {
	return s.generator
}

// Result is a created quote.
type Result struct {
	QuoteID   string
	BlobName  string
	BlobURL   string
	MessageID string
	Document  *document.Document
}

// Notification is the body of the quote.generated message.
type Notification struct {
	QuoteID      string          `json:"quote_id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Email        string          `json:"email,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	FileName     string          `json:"file_name"`
	BlobURL      string          `json:"blob_url"`
	PageCount    int             `json:"page_count"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CreateQuote renders req, uploads the PDF and records it. Rendering and
// upload failures are returned; history and notification failures are only
// logged, since the document already exists by then.
func (s *Service) CreateQuote(ctx context.Context, req document.Request) (*Result, error) {
	start := s.now()
	if s.opts.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.GenerateTimeout)
		defer cancel()
	}

	if req.Customer.Date.IsZero() {
		req.Customer.Date = start
	}
	quoteID := utils.GenerateQuoteID(req.Customer.Date)
	logger := logging.ForContext(ctx, s.logger).With(logging.NewField("quote_id", quoteID))
	ctx = logging.WithLogger(ctx, logger)

	doc, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	res := &Result{
		QuoteID:  quoteID,
		BlobName: BlobName(quoteID, req.Customer.Date),
		Document: doc,
	}
	res.BlobURL, err = s.upload(ctx, res.BlobName, doc, logger)
	if err != nil {
		return nil, err
	}

	customerID := history.CustomerID(req.Customer.Phone)
	if s.store != nil {
		rec := history.Record{
			QuoteID:      quoteID,
			CustomerID:   customerID,
			CustomerName: req.Customer.Name,
			Phone:        req.Customer.Phone,
			CreatedAt:    start.UTC(),
			FileName:     doc.FileName,
			BlobURL:      res.BlobURL,
			PageCount:    doc.PageCount,
			Subtotal:     doc.Summary.Subtotal,
			GrandTotal:   doc.Summary.GrandTotal,
			Items:        req.Items,
		}
		if err := s.store.Save(ctx, rec); err != nil {
			logger.Warn("Quote history not saved", logging.NewField("error", err))
		}
	}

	res.MessageID = s.notify(ctx, Notification{
		QuoteID:      quoteID,
		CustomerID:   customerID,
		CustomerName: req.Customer.Name,
		Email:        req.Customer.Email,
		Phone:        req.Customer.Phone,
		FileName:     doc.FileName,
		BlobURL:      res.BlobURL,
		PageCount:    doc.PageCount,
		GrandTotal:   doc.Summary.GrandTotal.Round(2),
		CreatedAt:    start.UTC(),
	}, logger)

	duration := s.now().Sub(start)
	if s.telemetry != nil {
		images := 0
		for _, img := range [][]byte{req.Image1, req.Image2} {
			if len(img) > 0 {
				images++
			}
		}
		s.telemetry.RecordQuoteGenerated(ctx, telemetry.QuoteEvent{
			QuoteID:    quoteID,
			CustomerID: customerID,
			Pages:      doc.PageCount,
			Items:      len(req.Items),
			Images:     images,
			GrandTotal: doc.Summary.GrandTotal.InexactFloat64(),
			Duration:   duration,
			Overflow:   doc.Plan.SummaryOverflow,
		})
	}

	logger.Info("Quote created",
		logging.NewField("blob", res.BlobName),
		logging.NewField("pages", doc.PageCount),
		logging.NewField("duration_ms", duration.Milliseconds()),
	)
	return res, nil
}

// History lists the stored quotes of the customer with the given phone.
func (s *Service) History(ctx context.Context, phone string, limit int) ([]history.Record, error) {
	if s.store == nil {
		return nil, errors.NewServiceUnavailableError("quote history is not configured")
	}
	records, err := s.store.ListByCustomer(ctx, history.CustomerID(phone), limit)
	if err != nil {
		return nil, errors.NewStorageError("failed to read quote history", err)
	}
	return records, nil
}

// Document opens the stored PDF of a quote. The date inside the quote ID
// locates the blob. The caller closes the reader.
func (s *Service) Document(ctx context.Context, quoteID string) (io.ReadCloser, error) {
	date, err := utils.QuoteIDDate(quoteID)
	if err != nil {
		return nil, errors.NewBadRequestError("malformed quote ID").
			WithDetails(map[string]interface{}{"quote_id": quoteID})
	}
	rc, err := s.blobs.Get(ctx, s.opts.Container, BlobName(quoteID, date))
	if stderrors.Is(err, blobclient.ErrNotFound) {
		return nil, errors.NewNotFoundError("quote document not found").
			WithDetails(map[string]interface{}{"quote_id": quoteID})
	}
	if err != nil {
		return nil, errors.NewStorageError("failed to read quote document", err)
	}
	return rc, nil
}

func (s *Service) generate(ctx context.Context, req document.Request) (*document.Document, error) {
	if s.telemetry != nil {
		defer s.telemetry.StartSegment(ctx, "quote.render")()
	}
	return s.generator.Generate(ctx, req)
}

func (s *Service) upload(ctx context.Context, name string, doc *document.Document, logger logging.Logger) (string, error) {
	if s.telemetry != nil {
		defer s.telemetry.StartSegment(ctx, "quote.upload")()
	}
	retry := s.opts.Retry
	retry.Retryable = func(err error) bool { return ctx.Err() == nil }
	retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("Quote upload failed, retrying",
			logging.NewField("attempt", attempt),
			logging.NewField("delay_ms", delay.Milliseconds()),
			logging.NewField("error", err),
		)
	}

	opts := blobclient.UploadOptions{
		ContentType:        "application/pdf",
		ContentDisposition: httpservice.ContentDisposition(doc.FileName),
		AccessTier:         s.opts.AccessTier,
		Metadata: map[string]string{
			"pages": fmt.Sprint(doc.PageCount),
		},
	}
	url, err := utils.RetryWithResult(ctx, retry, func() (string, error) {
		return s.blobs.Upload(ctx, s.opts.Container, name, bytes.NewReader(doc.Bytes), opts)
	})
	if err != nil {
		logger.Error("Quote upload failed", logging.NewField("error", err))
		return "", errors.NewStorageError("failed to store quote document", err)
	}
	return url, nil
}

func (s *Service) notify(ctx context.Context, n Notification, logger logging.Logger) string {
	if s.publisher == nil || s.opts.Topic == "" {
		return ""
	}
	body, err := json.Marshal(n)
	if err != nil {
		logger.Warn("Quote notification not encoded", logging.NewField("error", err))
		return ""
	}
	id, err := s.publisher.Publish(ctx, s.opts.Topic, body,
		servicebusclient.WithContentType("application/json"),
		servicebusclient.WithSubject(SubjectQuoteGenerated),
		servicebusclient.WithMessageID(n.QuoteID),
		servicebusclient.WithProperties(map[string]interface{}{"customer_id": n.CustomerID}),
	)
	if err != nil {
		logger.Warn("Quote notification not sent", logging.NewField("error", err))
		return ""
	}
	return id
}

// BlobName is where a quote is stored inside the container, grouped by
// month: 2026/03/Q-20260309-1f0c9a2b.pdf.
func BlobName(quoteID string, date time.Time) string {
	return date.UTC().Format("2006/01") + "/" + quoteID + ".pdf"
}
