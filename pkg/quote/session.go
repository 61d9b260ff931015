package quote

import (
	"fmt"
	"time"
)

// Session is the state of one quote being prepared: who it is for, what
// was chosen and which optional images go with it.
type Session struct {
	ID          string
	Customer    Customer
	Selection   Selection
	CatalogPath string
	// Image1Path is the kitchen rendering, Image2Path the water and
	// electricity layout. Either may be empty.
	Image1Path string
	Image2Path string
	CreatedAt  time.Time
}

// LineItems returns the selected items in catalog order.
func (s Session) LineItems() []LineItem {
	return s.Selection.LineItems()
}

// Summary returns the current totals.
func (s Session) Summary() Summary {
	return s.Selection.Summary(s.Customer)
}

// Ready reports whether the session can be rendered.
func (s Session) Ready() error {
	if err := s.Customer.Validate(); err != nil {
		return err
	}
	if s.Customer.Name == "" {
		return fmt.Errorf("session %s: customer name is required", s.ID)
	}
	return ValidateItems(s.LineItems())
}
