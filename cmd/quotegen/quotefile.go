package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/panelkitchens/quotekit/pkg/catalog"
	"github.com/panelkitchens/quotekit/pkg/document"
	"github.com/panelkitchens/quotekit/pkg/httpservice"
	"github.com/panelkitchens/quotekit/pkg/quote"
)

// quoteFile is the YAML description of one quote. Amounts are strings so
// that "1,250" and "לפי מידה" survive YAML typing; paths are relative to
// the file.
type quoteFile struct {
	Customer struct {
		Name               string `yaml:"name" validate:"required"`
		Phone              string `yaml:"phone" validate:"omitempty,phone"`
		Email              string `yaml:"email" validate:"omitempty,email"`
		Address            string `yaml:"address"`
		Date               string `yaml:"date" validate:"omitempty,datetime=2006-01-02"`
		DiscountPercent    string `yaml:"discount_percent"`
		ContractorDiscount string `yaml:"contractor_discount"`
	} `yaml:"customer"`
	Catalog string `yaml:"catalog"`
	Items   []struct {
		ProductID string `yaml:"product_id" validate:"required_without=Name"`
		Name      string `yaml:"name" validate:"required_without=ProductID"`
		Quantity  int    `yaml:"quantity" validate:"gte=0"`
		UnitPrice string `yaml:"unit_price"`
		Notes     string `yaml:"notes"`
		Category  string `yaml:"category"`
	} `yaml:"items" validate:"dive"`
	Image1 string `yaml:"image1"`
	Image2 string `yaml:"image2"`

	dir string
}

func readQuoteFile(path string) (*quoteFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var qf quoteFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := httpservice.ValidateStruct(&qf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	qf.dir = filepath.Dir(path)
	return &qf, nil
}

func (qf *quoteFile) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(qf.dir, p)
}

// catalogPath prefers the command-line override.
func (qf *quoteFile) catalogPath(override string) string {
	if override != "" {
		return override
	}
	return qf.resolve(qf.Catalog)
}

func (qf *quoteFile) customer() (quote.Customer, error) {
	c := quote.Customer{
		Name:    strings.TrimSpace(qf.Customer.Name),
		Phone:   qf.Customer.Phone,
		Email:   qf.Customer.Email,
		Address: qf.Customer.Address,
	}
	var err error
	if c.DiscountPercent, err = amount(qf.Customer.DiscountPercent); err != nil {
		return c, fmt.Errorf("discount_percent: %w", err)
	}
	if c.ContractorDiscount, err = amount(qf.Customer.ContractorDiscount); err != nil {
		return c, fmt.Errorf("contractor_discount: %w", err)
	}
	if qf.Customer.Date != "" {
		if c.Date, err = time.Parse("2006-01-02", qf.Customer.Date); err != nil {
			return c, fmt.Errorf("date: %w", err)
		}
	}
	return c, c.Validate()
}

// items resolves product IDs against cat, which may be nil when none are
// used. An unparsable unit price marks the item as priced by measurement,
// the same rule the catalog applies.
func (qf *quoteFile) items(cat *catalog.Catalog) ([]quote.LineItem, error) {
	out := make([]quote.LineItem, 0, len(qf.Items))
	for i, it := range qf.Items {
		if it.ProductID != "" {
			if cat == nil {
				return nil, fmt.Errorf("item %d: product_id %q needs a catalog", i+1, it.ProductID)
			}
			p, ok := cat.Product(it.ProductID)
			if !ok {
				return nil, fmt.Errorf("item %d: unknown product %q", i+1, it.ProductID)
			}
			li := quote.NewLineItem(p, it.Quantity)
			if it.Notes != "" {
				li.Notes = it.Notes
			}
			out = append(out, li)
			continue
		}
		li := quote.LineItem{Name: it.Name, Quantity: it.Quantity, Notes: it.Notes, Category: it.Category}
		if d, err := decimal.NewFromString(strings.ReplaceAll(it.UnitPrice, ",", "")); err == nil && d.IsPositive() {
			li.UnitPrice = &d
		}
		out = append(out, li)
	}
	return out, quote.ValidateItems(out)
}

func (qf *quoteFile) usesCatalog() bool {
	for _, it := range qf.Items {
		if it.ProductID != "" {
			return true
		}
	}
	return false
}

// request builds the render request. Unreadable images are reported and
// left out, as the renderer does for corrupt ones.
func (qf *quoteFile) request(cat *catalog.Catalog, warn func(string, error)) (document.Request, error) {
	c, err := qf.customer()
	if err != nil {
		return document.Request{}, err
	}
	items, err := qf.items(cat)
	if err != nil {
		return document.Request{}, err
	}
	req := document.Request{Customer: c, Items: items}
	req.Image1 = qf.readImage(qf.Image1, warn)
	req.Image2 = qf.readImage(qf.Image2, warn)
	return req, nil
}

func (qf *quoteFile) readImage(p string, warn func(string, error)) []byte {
	if p == "" {
		return nil
	}
	data, err := os.ReadFile(qf.resolve(p))
	if err != nil {
		warn(p, err)
		return nil
	}
	return data
}

func amount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
