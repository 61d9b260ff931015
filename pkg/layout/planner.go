// Package layout decides how many pages a quote document needs before any
// drawing happens, so every footer can print "page X of N".
package layout

// Default table capacities. The first content page shares its height with
// the header and customer block.
const (
	DefaultFirstPageItems      = 15
	DefaultSubsequentPageItems = 30
)

// Capacity is the number of item rows a table page holds.
type Capacity struct {
	FirstPage      int `json:"first_page" yaml:"first_page"`
	SubsequentPage int `json:"subsequent_page" yaml:"subsequent_page"`
}

// DefaultCapacity returns the standard A4 capacities.
func DefaultCapacity() Capacity {
	return Capacity{FirstPage: DefaultFirstPageItems, SubsequentPage: DefaultSubsequentPageItems}
}

func (c Capacity) normalized() Capacity {
	if c.FirstPage <= 0 {
		c.FirstPage = DefaultFirstPageItems
	}
	if c.SubsequentPage <= 0 {
		c.SubsequentPage = DefaultSubsequentPageItems
	}
	return c
}

// Planner computes document plans for a fixed capacity.
type Planner struct {
	capacity Capacity
}

// NewPlanner returns a planner. Non-positive capacities fall back to the
// defaults.
func NewPlanner(c Capacity) *Planner {
	return &Planner{capacity: c.normalized()}
}

// Capacity returns the capacities the planner uses.
func (p *Planner) Capacity() Capacity {
	return p.capacity
}

// Plan is the page structure of one document: table pages, an optional
// page per image, and the closing terms page, in that order.
type Plan struct {
	TotalPages             int  `json:"total_pages"`
	TablePages             int  `json:"table_pages"`
	ItemCount              int  `json:"item_count"`
	ItemsPerFirstPage      int  `json:"items_per_first_page"`
	ItemsPerSubsequentPage int  `json:"items_per_subsequent_page"`
	HasImage1              bool `json:"has_image1"`
	HasImage2              bool `json:"has_image2"`
	// SummaryOverflow is set when the financial summary does not fit below
	// the last row and gets a page of its own.
	SummaryOverflow bool `json:"summary_overflow"`
}

// Plan returns the page plan for itemCount rows and the given images.
// Negative counts are treated as zero; an empty table still gets a page.
func (p *Planner) Plan(itemCount int, hasImage1, hasImage2 bool) Plan {
	if itemCount < 0 {
		itemCount = 0
	}

	additional := 0
	if over := itemCount - p.capacity.FirstPage; over > 0 {
		additional = (over + p.capacity.SubsequentPage - 1) / p.capacity.SubsequentPage
	}

	plan := Plan{
		TablePages:             1 + additional,
		ItemCount:              itemCount,
		ItemsPerFirstPage:      p.capacity.FirstPage,
		ItemsPerSubsequentPage: p.capacity.SubsequentPage,
		HasImage1:              hasImage1,
		HasImage2:              hasImage2,
	}
	plan.TotalPages = plan.TablePages + plan.imagePages() + 1
	return plan
}

func (pl Plan) imagePages() int {
	n := 0
	if pl.HasImage1 {
		n++
	}
	if pl.HasImage2 {
		n++
	}
	return n
}

// WithSummaryOverflow returns a copy with an extra page after the table for
// the financial summary. It is idempotent.
func (pl Plan) WithSummaryOverflow() Plan {
	if pl.SummaryOverflow {
		return pl
	}
	pl.SummaryOverflow = true
	pl.TotalPages++
	return pl
}

// CapacityOf returns the row capacity of the zero-based table page.
func (pl Plan) CapacityOf(tablePage int) int {
	if tablePage == 0 {
		return pl.ItemsPerFirstPage
	}
	return pl.ItemsPerSubsequentPage
}

// Breaks returns the item indices that start a new table page.
func (pl Plan) Breaks() []int {
	var breaks []int
	next := pl.ItemsPerFirstPage
	for next < pl.ItemCount {
		breaks = append(breaks, next)
		next += pl.ItemsPerSubsequentPage
	}
	return breaks
}

// RowsOnLastTablePage is the number of rows on the final table page.
func (pl Plan) RowsOnLastTablePage() int {
	if pl.TablePages == 1 {
		return pl.ItemCount
	}
	return pl.ItemCount - pl.ItemsPerFirstPage - (pl.TablePages-2)*pl.ItemsPerSubsequentPage
}

// SummaryPage is the one-based page carrying the financial summary.
func (pl Plan) SummaryPage() int {
	if pl.SummaryOverflow {
		return pl.TablePages + 1
	}
	return pl.TablePages
}

// Image1Page is the one-based page of the first image, or 0.
func (pl Plan) Image1Page() int {
	if !pl.HasImage1 {
		return 0
	}
	return pl.SummaryPage() + 1
}

// Image2Page is the one-based page of the second image, or 0.
func (pl Plan) Image2Page() int {
	if !pl.HasImage2 {
		return 0
	}
	if pl.HasImage1 {
		return pl.SummaryPage() + 2
	}
	return pl.SummaryPage() + 1
}

// TermsPage is the one-based page of the closing terms, always the last.
func (pl Plan) TermsPage() int {
	return pl.TotalPages
}
