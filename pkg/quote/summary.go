package quote

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TaxRate is the Israeli VAT rate applied to the taxable base.
var TaxRate = decimal.RequireFromString("0.17")

// MeasuredPriceLabel is shown instead of a price for items priced by measurement.
const MeasuredPriceLabel = "לפי מידה"

// Summary is the financial block printed under the item table.
type Summary struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	ContractorDiscount decimal.Decimal `json:"contractor_discount"`
	TaxableBase        decimal.Decimal `json:"taxable_base"`
	Tax                decimal.Decimal `json:"tax"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	PercentDiscount    decimal.Decimal `json:"percent_discount"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
}

// Compute derives the summary. The contractor discount is taken before VAT,
// the percentage discount after it. A contractor discount larger than the
// subtotal yields a negative base and is not clamped.
func Compute(items []LineItem, contractorDiscount, discountPercent decimal.Decimal) Summary {
	subtotal := decimal.Zero
	for _, li := range items {
		subtotal = subtotal.Add(li.LineTotal())
	}

	taxable := subtotal.Sub(contractorDiscount)
	tax := taxable.Mul(TaxRate)
	gross := taxable.Add(tax)
	percentOff := gross.Mul(discountPercent).Div(hundred)

	return Summary{
		Subtotal:           subtotal,
		ContractorDiscount: contractorDiscount,
		TaxableBase:        taxable,
		Tax:                tax,
		DiscountPercent:    discountPercent,
		PercentDiscount:    percentOff,
		GrandTotal:         gross.Sub(percentOff),
	}
}

// ComputeFor is Compute with the customer's discounts.
func ComputeFor(c Customer, items []LineItem) Summary {
	return Compute(items, c.ContractorDiscount, c.DiscountPercent)
}

// FormatMoney renders an amount as shekels with two decimals and thousands
// separators, e.g. ₪1,234.50 and -₪200.00.
func FormatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac = s[:dot], s[dot:]
	}

	var b strings.Builder
	if d.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString("₪")
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString(frac)
	return b.String()
}

// FormatPercent renders a percentage without trailing zeros, e.g. 10 or 12.5.
func FormatPercent(d decimal.Decimal) string {
	return d.Round(2).String()
}
