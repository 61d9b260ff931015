package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/panelkitchens/quotekit/pkg/logging"
)

// QuoteEvent describes one generated quote.
type QuoteEvent struct {
	QuoteID    string
	CustomerID string
	Pages      int
	Items      int
	Images     int
	GrandTotal float64
	Duration   time.Duration
	Overflow   bool
}

// NewRelicClient wraps the New Relic agent. A disabled client accepts every
// call and records nothing.
type NewRelicClient struct {
	app         *newrelic.Application
	logger      logging.Logger
	serviceName string
	enabled     bool
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	LicenseKey  string
	AppName     string
	ServiceName string
	Enabled     bool
}

// NewNewRelicClient creates a new New Relic client.
func NewNewRelicClient(cfg NewRelicConfig, logger logging.Logger) (*NewRelicClient, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		logger.Info("New Relic disabled or license key not provided")
		return &NewRelicClient{logger: logger, serviceName: cfg.ServiceName}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	logger.Info("New Relic client initialized",
		logging.NewField("app_name", cfg.AppName),
		logging.NewField("service", cfg.ServiceName),
	)

	return &NewRelicClient{
		app:         app,
		logger:      logger,
		serviceName: cfg.ServiceName,
		enabled:     true,
	}, nil
}

// Enabled reports whether events are sent.
func (n *NewRelicClient) Enabled() bool {
	return n.enabled && n.app != nil
}

// StartSegment times a named step inside the transaction carried by ctx.
// The returned function ends it.
func (n *NewRelicClient) StartSegment(ctx context.Context, name string) func() {
	txn := newrelic.FromContext(ctx)
	if !n.Enabled() || txn == nil {
		return func() {}
	}
	seg := txn.StartSegment(name)
	return seg.End
}

// RecordQuoteGenerated records a QuoteGenerated custom event.
func (n *NewRelicClient) RecordQuoteGenerated(ctx context.Context, e QuoteEvent) {
	if !n.Enabled() {
		return
	}
	n.app.RecordCustomEvent("QuoteGenerated", map[string]interface{}{
		"service":          n.serviceName,
		"quote_id":         e.QuoteID,
		"customer_id":      e.CustomerID,
		"pages":            e.Pages,
		"items":            e.Items,
		"images":           e.Images,
		"grand_total":      e.GrandTotal,
		"duration_ms":      e.Duration.Milliseconds(),
		"summary_overflow": e.Overflow,
	})
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.AddAttribute("quote_id", e.QuoteID)
		txn.AddAttribute("quote_pages", e.Pages)
	}
}

// RecordSlowRequest records a slow request event.
func (n *NewRelicClient) RecordSlowRequest(ctx context.Context, path string, durationMs int64, traceID, requestID string) {
	if !n.Enabled() {
		return
	}
	n.app.RecordCustomEvent("SlowRequest", map[string]interface{}{
		"service":     n.serviceName,
		"path":        path,
		"duration_ms": durationMs,
		"trace_id":    traceID,
		"request_id":  requestID,
	})
}

// RecordError records a server error event and notices it on the current
// transaction.
func (n *NewRelicClient) RecordError(ctx context.Context, path, errorMsg string, statusCode int, traceID, requestID string) {
	if !n.Enabled() {
		return
	}
	n.app.RecordCustomEvent("ServiceError", map[string]interface{}{
		"service":     n.serviceName,
		"path":        path,
		"error":       errorMsg,
		"status_code": statusCode,
		"trace_id":    traceID,
		"request_id":  requestID,
	})
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.NoticeError(fmt.Errorf("HTTP %d: %s", statusCode, errorMsg))
	}
}

// Shutdown flushes pending data.
func (n *NewRelicClient) Shutdown(timeout time.Duration) {
	if n.Enabled() {
		n.app.Shutdown(timeout)
	}
}
