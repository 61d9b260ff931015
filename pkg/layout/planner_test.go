package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestPlan_Boundaries(t *testing.T) {
	p := NewPlanner(DefaultCapacity())

	tests := []struct {
		items      int
		tablePages int
	}{
		{0, 1},
		{1, 1},
		{15, 1},
		{16, 2},
		{45, 2},
		{46, 3},
		{75, 3},
		{76, 4},
	}
	for _, tt := range tests {
		plan := p.Plan(tt.items, false, false)
		assert.Equal(t, tt.tablePages, plan.TablePages, "items=%d", tt.items)
		assert.Equal(t, tt.tablePages+1, plan.TotalPages, "items=%d", tt.items)
	}
}

func TestPlan_FullFirstPageAddsNoEmptyPage(t *testing.T) {
	p := NewPlanner(DefaultCapacity())
	assert.Equal(t, p.Plan(0, false, false).TotalPages, p.Plan(15, false, false).TotalPages)
	assert.Equal(t, p.Plan(15, false, false).TotalPages+1, p.Plan(16, false, false).TotalPages)
}

func TestPlan_Monotonic(t *testing.T) {
	p := NewPlanner(DefaultCapacity())
	for _, img := range [][2]bool{{false, false}, {true, false}, {false, true}, {true, true}} {
		prev := 0
		for n := 0; n <= 200; n++ {
			total := p.Plan(n, img[0], img[1]).TotalPages
			assert.GreaterOrEqual(t, total, prev, "n=%d images=%v", n, img)
			prev = total
		}
	}
}

func TestPlan_Images(t *testing.T) {
	p := NewPlanner(DefaultCapacity())

	got := p.Plan(40, true, true)
	want := Plan{
		TotalPages:             5,
		TablePages:             2,
		ItemCount:              40,
		ItemsPerFirstPage:      15,
		ItemsPerSubsequentPage: 30,
		HasImage1:              true,
		HasImage2:              true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, got.Image1Page())
	assert.Equal(t, 4, got.Image2Page())
	assert.Equal(t, 5, got.TermsPage())

	only2 := p.Plan(3, false, true)
	assert.Equal(t, 0, only2.Image1Page())
	assert.Equal(t, 2, only2.Image2Page())
	assert.Equal(t, 3, only2.TotalPages)
}

func TestPlan_NegativeCountIsEmpty(t *testing.T) {
	p := NewPlanner(DefaultCapacity())
	assert.Equal(t, p.Plan(0, true, false), p.Plan(-5, true, false))
}

func TestPlan_CustomAndInvalidCapacity(t *testing.T) {
	custom := NewPlanner(Capacity{FirstPage: 10, SubsequentPage: 20})
	assert.Equal(t, 3, custom.Plan(31, false, false).TablePages)

	fallback := NewPlanner(Capacity{FirstPage: 0, SubsequentPage: -1})
	assert.Equal(t, DefaultCapacity(), fallback.Capacity())
}

func TestPlan_Breaks(t *testing.T) {
	p := NewPlanner(DefaultCapacity())
	assert.Empty(t, p.Plan(15, false, false).Breaks())
	assert.Equal(t, []int{15}, p.Plan(40, false, false).Breaks())
	assert.Equal(t, []int{15, 45}, p.Plan(46, false, false).Breaks())

	plan := p.Plan(46, false, false)
	assert.Equal(t, len(plan.Breaks())+1, plan.TablePages)
	assert.Equal(t, 15, plan.CapacityOf(0))
	assert.Equal(t, 30, plan.CapacityOf(2))
	assert.Equal(t, 1, plan.RowsOnLastTablePage())
	assert.Equal(t, 25, p.Plan(40, false, false).RowsOnLastTablePage())
	assert.Equal(t, 0, p.Plan(0, false, false).RowsOnLastTablePage())
}

func TestPlan_WithSummaryOverflow(t *testing.T) {
	p := NewPlanner(DefaultCapacity())
	base := p.Plan(40, true, false)
	over := base.WithSummaryOverflow()

	assert.Equal(t, base.TotalPages+1, over.TotalPages)
	assert.Equal(t, over, over.WithSummaryOverflow())
	assert.Equal(t, 3, over.SummaryPage())
	assert.Equal(t, 4, over.Image1Page())
	assert.Equal(t, 5, over.TermsPage())
	assert.False(t, base.SummaryOverflow)
}
