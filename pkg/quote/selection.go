package quote

// Selection is an immutable snapshot of the quantities chosen over a catalog.
// Events produce new snapshots through Apply; the zero value is an empty
// selection over an empty catalog.
type Selection struct {
	products   []Product
	quantities map[string]int
}

// NewSelection returns an empty selection over products. The slice is
// copied so later changes to it do not leak into the snapshot.
func NewSelection(products []Product) Selection {
	cp := make([]Product, len(products))
	copy(cp, products)
	return Selection{products: cp, quantities: map[string]int{}}
}

// Products returns the catalog the selection was made over.
func (s Selection) Products() []Product {
	cp := make([]Product, len(s.products))
	copy(cp, s.products)
	return cp
}

// Quantity returns the chosen quantity of a product, zero when unselected.
func (s Selection) Quantity(productID string) int {
	return s.quantities[productID]
}

// Len is the number of products with a positive quantity.
func (s Selection) Len() int {
	return len(s.quantities)
}

// LineItems lists selected products in catalog order.
func (s Selection) LineItems() []LineItem {
	items := make([]LineItem, 0, len(s.quantities))
	for _, p := range s.products {
		if q := s.quantities[p.ID]; q > 0 {
			items = append(items, NewLineItem(p, q))
		}
	}
	return items
}

// Summary previews the totals for c.
func (s Selection) Summary(c Customer) Summary {
	return ComputeFor(c, s.LineItems())
}

func (s Selection) has(productID string) bool {
	for _, p := range s.products {
		if p.ID == productID {
			return true
		}
	}
	return false
}

func (s Selection) with(productID string, quantity int) Selection {
	next := Selection{products: s.products, quantities: make(map[string]int, len(s.quantities)+1)}
	for id, q := range s.quantities {
		next.quantities[id] = q
	}
	if quantity > 0 {
		next.quantities[productID] = quantity
	} else {
		delete(next.quantities, productID)
	}
	return next
}

// Event is a change to a selection.
type Event interface {
	apply(s Selection) Selection
}

// SetQuantity sets a product's quantity; negative values clear it.
type SetQuantity struct {
	ProductID string
	Quantity  int
}

func (e SetQuantity) apply(s Selection) Selection {
	return s.with(e.ProductID, e.Quantity)
}

// AdjustQuantity adds Delta to a product's quantity, stopping at zero.
type AdjustQuantity struct {
	ProductID string
	Delta     int
}

func (e AdjustQuantity) apply(s Selection) Selection {
	return s.with(e.ProductID, s.quantities[e.ProductID]+e.Delta)
}

// ClearSelection drops every chosen quantity.
type ClearSelection struct{}

func (ClearSelection) apply(s Selection) Selection {
	return Selection{products: s.products, quantities: map[string]int{}}
}

// Apply returns the snapshot that results from e. Events naming a product
// outside the catalog leave the selection unchanged. s is never modified.
func Apply(s Selection, e Event) Selection {
	switch ev := e.(type) {
	case SetQuantity:
		if !s.has(ev.ProductID) {
			return s
		}
	case AdjustQuantity:
		if !s.has(ev.ProductID) {
			return s
		}
	}
	return e.apply(s)
}

// ApplyAll folds events over s in order.
func ApplyAll(s Selection, events ...Event) Selection {
	for _, e := range events {
		s = Apply(s, e)
	}
	return s
}
