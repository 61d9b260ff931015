// Package catalog reads the product catalog, a spreadsheet kept as .xlsx or
// exported to CSV.
//
// The header row may be preceded by a title block; it is the first row that
// names both an item and a unit price column. Rows without a price are
// category headings: the first non-empty cell names the category of the
// products that follow. Product rows whose price is zero or not a number are
// priced by measurement.
package catalog

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/panelkitchens/quotekit/pkg/csvutil"
	"github.com/panelkitchens/quotekit/pkg/quote"
)

// Header names accepted for each column, Hebrew first.
var (
	idColumns    = []string{"מס'", "מספר", "id"}
	nameColumns  = []string{"הפריט", "פריט", "name"}
	priceColumns = []string{"מחיר יחידה", "unit_price", "price"}
	notesColumns = []string{"הערות", "notes"}
)

// maxHeaderRow bounds the search for the header row. The price list sheet
// keeps its header on row 9.
const maxHeaderRow = 20

// Catalog is an ordered product list.
type Catalog struct {
	Products []quote.Product `json:"products"`
	byID     map[string]int
}

// Parse reads a catalog from CSV.
func Parse(r io.Reader) (*Catalog, error) {
	cfg := csvutil.DefaultParserConfig()
	cfg.HasHeader = false
	// Anything narrower cannot hold an item and a price.
	cfg.Validators = []csvutil.RowValidator{csvutil.MinColumnsValidator(2)}

	rows, err := csvutil.NewParser(cfg).ParseToSlice(r)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return fromRows(rows)
}

// fromRows builds a catalog from trimmed spreadsheet rows.
func fromRows(rows [][]string) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("parse catalog: no rows")
	}
	start, cols, err := findHeader(rows)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	var (
		category string
		products []quote.Product
	)
	for _, row := range rows[start+1:] {
		priceCell := csvutil.Cell(row, cols.price)
		if priceCell == "" {
			if heading := firstNonEmpty(row); heading != "" {
				category = heading
			}
			continue
		}

		name := csvutil.Cell(row, cols.name)
		if name == "" {
			continue
		}
		id := csvutil.Cell(row, cols.id)
		if id == "" {
			id = strconv.Itoa(len(products) + 1)
		}
		products = append(products, quote.Product{
			ID:        id,
			Name:      name,
			Category:  category,
			Notes:     csvutil.Cell(row, cols.notes),
			UnitPrice: parsePrice(priceCell),
		})
	}
	return New(products), nil
}

// findHeader returns the index of the header row and its columns. When no
// row qualifies the error describes the first row.
func findHeader(rows [][]string) (int, columns, error) {
	var firstErr error
	for i, row := range rows {
		if i >= maxHeaderRow {
			break
		}
		cols, err := resolveColumns(row)
		if err == nil {
			return i, cols, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return 0, columns{}, firstErr
}

// New builds a catalog from products in display order.
func New(products []quote.Product) *Catalog {
	c := &Catalog{Products: products, byID: make(map[string]int, len(products))}
	for i, p := range products {
		c.byID[p.ID] = i
	}
	return c
}

// Product returns the product with the given ID.
func (c *Catalog) Product(id string) (quote.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return quote.Product{}, false
	}
	return c.Products[i], true
}

// Categories returns the category names in catalog order.
func (c *Catalog) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range c.Products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}

// Search returns the products whose name contains term, ignoring case.
func (c *Catalog) Search(term string) []quote.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return c.Products
	}
	var out []quote.Product
	for _, p := range c.Products {
		if strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	return out
}

// Selection starts an empty selection over the catalog's products.
func (c *Catalog) Selection() quote.Selection {
	return quote.NewSelection(c.Products)
}

type columns struct {
	id, name, price, notes int
}

func resolveColumns(header []string) (columns, error) {
	c := columns{
		id:    csvutil.ColumnIndex(header, idColumns...),
		name:  csvutil.ColumnIndex(header, nameColumns...),
		price: csvutil.ColumnIndex(header, priceColumns...),
		notes: csvutil.ColumnIndex(header, notesColumns...),
	}
	if c.name < 0 {
		c.name = containsColumn(header, "פריט")
	}
	if c.name < 0 || c.price < 0 {
		return columns{}, fmt.Errorf("catalog needs item name and unit price columns, got %q", header)
	}
	return c, nil
}

// containsColumn finds a header cell containing sub, for sheets whose item
// column carries extra words.
func containsColumn(header []string, sub string) int {
	for i, h := range header {
		if strings.Contains(h, sub) {
			return i
		}
	}
	return -1
}

func firstNonEmpty(row []string) string {
	for _, cell := range row {
		if cell != "" {
			return cell
		}
	}
	return ""
}

// parsePrice returns nil for prices that are zero or not numbers.
func parsePrice(s string) *decimal.Decimal {
	s = strings.NewReplacer(",", "", "₪", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsZero() || d.IsNegative() {
		return nil
	}
	return &d
}
