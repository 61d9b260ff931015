package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/panelkitchens/quotekit/pkg/csvutil"
	"github.com/panelkitchens/quotekit/pkg/quote"
)

const sampleCSV = `מס',הפריט,מחיר יחידה,הערות
,ארונות תחתונים,,
1,ארון 60,"1,250",לבן מט
2,ארון פינה,0,
,משטחים,,
3,משטח קוורץ,לפי מידה,
4,קרניז,85.50,
`

func TestParse(t *testing.T) {
	c, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, c.Products, 4)

	first := c.Products[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "ארון 60", first.Name)
	assert.Equal(t, "ארונות תחתונים", first.Category)
	assert.Equal(t, "לבן מט", first.Notes)
	require.NotNil(t, first.UnitPrice)
	assert.True(t, first.UnitPrice.Equal(decimal.NewFromInt(1250)))

	assert.True(t, c.Products[1].Measured(), "zero price")
	assert.True(t, c.Products[2].Measured(), "text price")
	assert.Equal(t, "משטחים", c.Products[2].Category)

	assert.Equal(t, []string{"ארונות תחתונים", "משטחים"}, c.Categories())

	p, ok := c.Product("4")
	require.True(t, ok)
	assert.Equal(t, "85.5", p.UnitPrice.String())
	_, ok = c.Product("99")
	assert.False(t, ok)
}

func TestParse_EnglishHeadersWithoutIDs(t *testing.T) {
	c, err := Parse(strings.NewReader("name,price\nHandle,12\nHinge,3\n"))
	require.NoError(t, err)
	require.Len(t, c.Products, 2)
	assert.Equal(t, "2", c.Products[1].ID)
	assert.Empty(t, c.Products[0].Category)
}

func TestParse_MissingColumns(t *testing.T) {
	_, err := Parse(strings.NewReader("name,color\nHandle,red\n"))
	assert.ErrorContains(t, err, "unit price")

	_, err = Parse(strings.NewReader("name,color\n"))
	assert.Error(t, err)
}

func TestCatalog_SearchAndSelection(t *testing.T) {
	c, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Len(t, c.Search("ארון"), 2)
	assert.Len(t, c.Search(""), 4)

	sel := quote.ApplyAll(c.Selection(),
		quote.SetQuantity{ProductID: "1", Quantity: 2},
		quote.SetQuantity{ProductID: "3", Quantity: 1},
	)
	items := sel.LineItems()
	require.Len(t, items, 2)
	assert.True(t, quote.ComputeFor(quote.Customer{}, items).Subtotal.Equal(decimal.NewFromInt(2500)))
}

func TestLoader_CachesUntilModified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	l := NewLoader(DefaultCacheSize, nil)
	a, err := l.Load(path)
	require.NoError(t, err)
	b, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, a, b)

	require.NoError(t, os.WriteFile(path, []byte(sampleCSV+"5,ידית,20,\n"), 0o644))
	c, err := l.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Len(t, c.Products, 5)
}

func TestLoader_NoCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	l := NewLoader(0, nil)
	a, err := l.Load(path)
	require.NoError(t, err)
	b, err := l.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(1, nil).Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoader_EvictsLeastRecentlyUsed(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 3)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("catalog%d.csv", i))
		require.NoError(t, os.WriteFile(paths[i], []byte(sampleCSV), 0o644))
	}

	l := NewLoader(2, nil)
	load := func(i int) *Catalog {
		c, err := l.Load(paths[i])
		require.NoError(t, err)
		return c
	}
	a, b := load(0), load(1)
	assert.Same(t, a, load(0))
	load(2)

	assert.Same(t, a, load(0))
	assert.NotSame(t, b, load(1))
}

func TestParse_TitleRowsBeforeHeader(t *testing.T) {
	preamble := strings.Repeat(",,,\n", 3) +
		"פאנל מטבחים,,,\n" +
		"מחירון 2026,,,\n" +
		",,,\n" +
		"טלפון,050-0000000,,\n" +
		",,,\n"
	c, err := Parse(strings.NewReader(preamble + sampleCSV))
	require.NoError(t, err)
	require.Len(t, c.Products, 4)
	assert.Equal(t, "ארונות תחתונים", c.Products[0].Category)
	assert.Equal(t, "ארון 60", c.Products[0].Name)
}

func TestParse_RejectsSingleColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("הפריט\nארון\n"))
	assert.ErrorContains(t, err, "at least 2")
}

// workbook writes the sample catalog to a sheet named sheet, with a title
// block so the header lands on row 9.
func workbook(t *testing.T, sheet string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Sheet1", "A1", "ignored"))
	}

	rows := [][]interface{}{
		{"הצעת מחיר - פאנל מטבחים"},
		{"מחירון 2026"},
		{"מס'", "הפריט", "מחיר יחידה", "הערות"},
		{nil, "ארונות תחתונים"},
		{1, "ארון 60", 1250, "לבן מט"},
		{2, "ארון פינה", 0},
		{nil, "משטחים"},
		{3, "משטח קוורץ", "לפי מידה"},
		{4, "קרניז", 85.5},
	}
	cells := []string{"A1", "A3", "A9", "A10", "A11", "A12", "A13", "A14", "A15"}
	for i, row := range rows {
		row := row
		require.NoError(t, f.SetSheetRow(sheet, cells[i], &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	c, err := ParseXLSX(bytes.NewReader(workbook(t, SheetName)))
	require.NoError(t, err)
	require.Len(t, c.Products, 4)

	first := c.Products[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "ארונות תחתונים", first.Category)
	assert.Equal(t, "לבן מט", first.Notes)
	require.NotNil(t, first.UnitPrice)
	assert.True(t, first.UnitPrice.Equal(decimal.NewFromInt(1250)))
	assert.True(t, c.Products[1].Measured())
	assert.True(t, c.Products[2].Measured())
	assert.Equal(t, "85.5", c.Products[3].UnitPrice.String())
}

func TestParseXLSX_FirstSheetFallback(t *testing.T) {
	c, err := ParseXLSX(bytes.NewReader(workbook(t, "Sheet1")))
	require.NoError(t, err)
	assert.Len(t, c.Products, 4)
}

func TestParseXLSX_NotAWorkbook(t *testing.T) {
	_, err := ParseXLSX(strings.NewReader(sampleCSV))
	assert.Error(t, err)
}

func TestLoader_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, os.WriteFile(path, workbook(t, SheetName), 0o644))

	c, err := NewLoader(DefaultCacheSize, nil).Load(path)
	require.NoError(t, err)
	_, ok := c.Product("3")
	assert.True(t, ok)
}

func TestWriteLineItems(t *testing.T) {
	price := decimal.RequireFromString("120")
	items := []quote.LineItem{
		{Name: "ארון", Quantity: 3, UnitPrice: &price, Category: "תחתונים"},
		{Name: "משטח", Quantity: 1, Notes: "קוורץ"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLineItems(&buf, items))

	rows, err := csvutil.NewParser(csvutil.DefaultParserConfig()).ParseToSlice(&buf)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"תחתונים", "ארון", "3", "120.00", "360.00", ""},
		{"", "משטח", "1", quote.MeasuredPriceLabel, quote.MeasuredPriceLabel, "קוורץ"},
	}, rows)
}
