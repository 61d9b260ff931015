// Package quote holds the quote data model and the financial summary
// arithmetic. All money is decimal; rounding happens only when formatting.
package quote

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/panelkitchens/quotekit/pkg/errors"
)

// Product is one priced row of the catalog.
type Product struct {
	ID       string           `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Category string           `json:"category,omitempty" yaml:"category,omitempty"`
	Notes    string           `json:"notes,omitempty" yaml:"notes,omitempty"`
	// UnitPrice is nil for items priced by measurement.
	UnitPrice *decimal.Decimal `json:"unit_price" yaml:"unit_price"`
}

// Measured reports whether the product has no fixed price.
func (p Product) Measured() bool {
	return p.UnitPrice == nil
}

// LineItem is a product with a chosen quantity.
type LineItem struct {
	Name      string           `json:"name" yaml:"name"`
	Quantity  int              `json:"quantity" yaml:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	Notes     string           `json:"notes,omitempty" yaml:"notes,omitempty"`
	Category  string           `json:"category,omitempty" yaml:"category,omitempty"`
}

// NewLineItem builds a line item from a catalog product.
func NewLineItem(p Product, quantity int) LineItem {
	return LineItem{
		Name:      p.Name,
		Quantity:  quantity,
		UnitPrice: p.UnitPrice,
		Notes:     p.Notes,
		Category:  p.Category,
	}
}

// Measured reports whether the item is priced by measurement.
func (li LineItem) Measured() bool {
	return li.UnitPrice == nil
}

// LineTotal is quantity times unit price, or zero when priced by measurement.
func (li LineItem) LineTotal() decimal.Decimal {
	if li.UnitPrice == nil {
		return decimal.Zero
	}
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Validate checks a line item before it reaches the renderer.
func (li LineItem) Validate() error {
	if strings.TrimSpace(li.Name) == "" {
		return errors.NewValidationError("line item name is required")
	}
	if li.Quantity < 0 {
		return errors.NewValidationError(fmt.Sprintf("quantity of %q must not be negative", li.Name))
	}
	if li.UnitPrice != nil && li.UnitPrice.IsNegative() {
		return errors.NewValidationError(fmt.Sprintf("unit price of %q must not be negative", li.Name))
	}
	return nil
}

// Customer is the addressee of a quote plus the discounts agreed with them.
type Customer struct {
	Name    string    `json:"name" yaml:"name"`
	Phone   string    `json:"phone" yaml:"phone"`
	Email   string    `json:"email,omitempty" yaml:"email,omitempty"`
	Address string    `json:"address,omitempty" yaml:"address,omitempty"`
	Date    time.Time `json:"date" yaml:"date"`
	// DiscountPercent is applied after VAT, 0 to 100.
	DiscountPercent decimal.Decimal `json:"discount_percent" yaml:"discount_percent"`
	// ContractorDiscount is a fixed amount taken off before VAT.
	ContractorDiscount decimal.Decimal `json:"contractor_discount" yaml:"contractor_discount"`
}

var hundred = decimal.NewFromInt(100)

// Validate enforces the discount ranges.
func (c Customer) Validate() error {
	if c.DiscountPercent.IsNegative() || c.DiscountPercent.GreaterThan(hundred) {
		return errors.NewValidationError("discount percent must be between 0 and 100").
			WithDetails(map[string]interface{}{"discount_percent": c.DiscountPercent.String()})
	}
	if c.ContractorDiscount.IsNegative() {
		return errors.NewValidationError("contractor discount must not be negative").
			WithDetails(map[string]interface{}{"contractor_discount": c.ContractorDiscount.String()})
	}
	return nil
}

// ValidateItems validates every line item, reporting the first failure.
func ValidateItems(items []LineItem) error {
	for i, li := range items {
		if err := li.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}
	return nil
}
