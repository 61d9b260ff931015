package document

import (
	"github.com/panelkitchens/quotekit/pkg/layout"
	"github.com/panelkitchens/quotekit/pkg/pdfutil"
)

// Config holds the company-specific content of generated quotes.
type Config struct {
	Capacity    layout.Capacity
	CompanyName string
	// ContactLine is printed in every footer.
	ContactLine string
	// Terms are the legal lines on the closing page, in order.
	Terms        []string
	FontFamily   string
	MaxImageSide int
}

// DefaultTerms are the standard quote conditions.
var DefaultTerms = []string{
	"הצעת המחיר תקפה ל-14 ימים ממועד הפקתה.",
	"ההצעה מיועדת ללקוח הספציפי בלבד ולא להעברה לחוץ.",
	"המחירים עשויים להשתנות והחברה אינה אחראית לטעויות.",
	"אישור ההצעה מהווה התחייבות לתשלום 10% מקדמה.",
	"הלקוח מתחייב לפנות נקודות מים וחשמל בהתאם לתכניות.",
	"אי עמידה בתנאים עלולה לגרור עיכובים וחריגות.",
}

// DefaultConfig returns the Panel Kitchens settings.
func DefaultConfig() Config {
	return Config{
		Capacity:     layout.DefaultCapacity(),
		CompanyName:  "Panel Kitchens",
		ContactLine:  "הנגרים 1 (מתחם הורדוס), באר שבע | טל: 072-393-3997 | דוא\"ל: info@panel-k.co.il",
		Terms:        DefaultTerms,
		FontFamily:   "Heebo",
		MaxImageSide: pdfutil.DefaultMaxImageSide,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.CompanyName == "" {
		c.CompanyName = def.CompanyName
	}
	if c.ContactLine == "" {
		c.ContactLine = def.ContactLine
	}
	if len(c.Terms) == 0 {
		c.Terms = def.Terms
	}
	if c.FontFamily == "" {
		c.FontFamily = def.FontFamily
	}
	if c.MaxImageSide <= 0 {
		c.MaxImageSide = def.MaxImageSide
	}
	return c
}
