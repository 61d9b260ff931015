package quoteservice

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/panelkitchens/quotekit/pkg/catalog"
	"github.com/panelkitchens/quotekit/pkg/errors"
	"github.com/panelkitchens/quotekit/pkg/layout"
	"github.com/panelkitchens/quotekit/pkg/quote"
)

const dateLayout = "2006-01-02"

// CustomerDTO is the customer part of a quote request.
type CustomerDTO struct {
	Name               string          `json:"name" validate:"required,max=120"`
	Phone              string          `json:"phone" validate:"omitempty,phone"`
	Email              string          `json:"email" validate:"omitempty,email"`
	Address            string          `json:"address" validate:"max=250"`
	Date               string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	ContractorDiscount decimal.Decimal `json:"contractor_discount"`
}

// ItemDTO is one requested line. Either ProductID refers to the configured
// catalog, or Name (and optionally UnitPrice) describe the item directly. A
// missing unit price means the item is priced by measurement.
type ItemDTO struct {
	ProductID string           `json:"product_id" validate:"required_without=Name"`
	Name      string           `json:"name" validate:"required_without=ProductID,max=200"`
	Quantity  int              `json:"quantity" validate:"gte=0,lte=10000"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Notes     string           `json:"notes" validate:"max=500"`
	Category  string           `json:"category" validate:"max=120"`
}

// CreateQuoteRequest is the body of POST /api/v1/quotes and
// POST /api/v1/quotes/summary. Images are standard base64.
type CreateQuoteRequest struct {
	Customer CustomerDTO `json:"customer"`
	Items    []ItemDTO   `json:"items" validate:"max=500,dive"`
	Image1   string      `json:"image1" validate:"omitempty,base64"`
	Image2   string      `json:"image2" validate:"omitempty,base64"`
}

// QuoteResponse describes a created quote.
type QuoteResponse struct {
	QuoteID   string        `json:"quote_id"`
	FileName  string        `json:"file_name"`
	PageCount int           `json:"page_count"`
	BlobURL   string        `json:"blob_url"`
	MessageID string        `json:"message_id,omitempty"`
	Plan      layout.Plan   `json:"plan"`
	Summary   quote.Summary `json:"summary"`
}

// SummaryResponse is the body returned by POST /api/v1/quotes/summary.
type SummaryResponse struct {
	Summary   quote.Summary     `json:"summary"`
	Formatted map[string]string `json:"formatted"`
	Plan      layout.Plan       `json:"plan"`
}

// HistoryQuery is the query of GET /api/v1/quotes.
type HistoryQuery struct {
	Phone string `form:"phone" validate:"required,phone"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=200"`
}

// CatalogQuery is the query of GET /api/v1/catalog.
type CatalogQuery struct {
	Search string `form:"q" validate:"max=100"`
}

func (c CustomerDTO) toCustomer() (quote.Customer, error) {
	cust := quote.Customer{
		Name:               strings.TrimSpace(c.Name),
		Phone:              strings.TrimSpace(c.Phone),
		Email:              strings.TrimSpace(c.Email),
		Address:            strings.TrimSpace(c.Address),
		DiscountPercent:    c.DiscountPercent,
		ContractorDiscount: c.ContractorDiscount,
	}
	if c.Date != "" {
		d, err := time.Parse(dateLayout, c.Date)
		if err != nil {
			return quote.Customer{}, errors.NewValidationError("date must be YYYY-MM-DD")
		}
		cust.Date = d
	}
	return cust, cust.Validate()
}

// lineItems resolves the requested items. cat may be nil when no item uses
// a product ID.
func lineItems(items []ItemDTO, cat *catalog.Catalog) ([]quote.LineItem, error) {
	out := make([]quote.LineItem, 0, len(items))
	for i, it := range items {
		if it.ProductID == "" {
			out = append(out, quote.LineItem{
				Name:      strings.TrimSpace(it.Name),
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				Notes:     it.Notes,
				Category:  it.Category,
			})
			continue
		}
		if cat == nil {
			return nil, errors.NewValidationError(fmt.Sprintf("item %d: product_id given but no catalog is configured", i+1))
		}
		p, ok := cat.Product(it.ProductID)
		if !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("item %d: unknown product %q", i+1, it.ProductID)).
				WithDetails(map[string]interface{}{"product_id": it.ProductID})
		}
		li := quote.NewLineItem(p, it.Quantity)
		if it.Notes != "" {
			li.Notes = it.Notes
		}
		out = append(out, li)
	}
	return out, quote.ValidateItems(out)
}

func decodeImage(field, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.NewValidationError(field + " is not valid base64")
	}
	return data, nil
}

func usesCatalog(items []ItemDTO) bool {
	for _, it := range items {
		if it.ProductID != "" {
			return true
		}
	}
	return false
}

func formatSummary(s quote.Summary) map[string]string {
	return map[string]string{
		"subtotal":            quote.FormatMoney(s.Subtotal),
		"contractor_discount": quote.FormatMoney(s.ContractorDiscount.Neg()),
		"taxable_base":        quote.FormatMoney(s.TaxableBase),
		"tax":                 quote.FormatMoney(s.Tax),
		"discount":            quote.FormatMoney(s.PercentDiscount.Neg()),
		"grand_total":         quote.FormatMoney(s.GrandTotal),
	}
}
