package catalog

import (
	"fmt"
	"io"
	"strconv"

	"github.com/panelkitchens/quotekit/pkg/csvutil"
	"github.com/panelkitchens/quotekit/pkg/quote"
)

var lineItemHeader = []string{"קטגוריה", "הפריט", "כמות", "מחיר יחידה", "סהכ", "הערות"}

// WriteLineItems exports items as CSV with a byte order mark, for opening in
// a spreadsheet. Measured items get the measured label in both price cells.
func WriteLineItems(w io.Writer, items []quote.LineItem) error {
	cw := csvutil.NewWriter(w)
	if err := cw.WriteBOM(); err != nil {
		return fmt.Errorf("write line items: %w", err)
	}
	if err := cw.WriteHeader(lineItemHeader); err != nil {
		return fmt.Errorf("write line items: %w", err)
	}
	for _, li := range items {
		price, total := quote.MeasuredPriceLabel, quote.MeasuredPriceLabel
		if !li.Measured() {
			price = li.UnitPrice.StringFixed(2)
			total = li.LineTotal().StringFixed(2)
		}
		row := []string{li.Category, li.Name, strconv.Itoa(li.Quantity), price, total, li.Notes}
		if err := cw.WriteRow(row); err != nil {
			return fmt.Errorf("write line items: %w", err)
		}
	}
	return cw.Flush()
}
