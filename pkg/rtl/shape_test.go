package rtl

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestShape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"latin unchanged", "Error loading image: missing.png", "Error loading image: missing.png"},
		{"currency unchanged", "₪1,234.50", "₪1,234.50"},
		{"hebrew word", "שלום", "םולש"},
		{"title", "הצעת מחיר", "ריחמ תעצה"},
		{"page counter keeps digits", "עמוד 1 מתוך 3", "3 ךותמ 1 דומע"},
		{"number with separators", "סה\"כ 1,234.50", "1,234.50 כ\"הס"},
		{"percent in brackets", "מע\"מ (17%)", "(17%) מ\"עמ"},
		{"currency after label", "סה\"כ ₪936.00", "₪936.00 כ\"הס"},
		{"label colon", "לכבוד:", ":דובכל"},
		{"latin run keeps its digits", "ארון IKEA 60", "IKEA 60 ןורא"},
		{"hebrew inside latin", "Cabinet ארון", "Cabinet ןורא"},
		{"arabic lam alef", "سلام", "\uFEE1\uFEFC\uFEB3"},
		{"arabic initial final", "بب", "\uFE90\uFE91"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Shape(tt.in))
		})
	}
}

func TestTryShape_NoFallbackOnValidInput(t *testing.T) {
	shaped, err := TryShape("הנחת קבלן")
	assert.NoError(t, err)
	assert.Equal(t, "ןלבק תחנה", shaped)
}

func TestNeedsShaping(t *testing.T) {
	assert.False(t, NeedsShaping("Panel Kitchens 072-393-3997"))
	assert.True(t, NeedsShaping("טל: 072"))
	assert.True(t, NeedsShaping("مرحبا"))
}

func TestReverse(t *testing.T) {
	assert.Equal(t, "cba", Reverse("abc"))
	assert.Equal(t, "\uFFFDa", Reverse("a\xff"))
}

func TestShape_NeverPanics(t *testing.T) {
	odd := []string{
		"\xff\xfeשלום",
		"‏‮א(ב]ג",
		"ـــ",
		"لا",
		"לְִ",
		"  שלום  ",
		"\tעמוד\n2",
		"((((((א",
		"١٢٣ عربي",
	}
	for _, s := range odd {
		assert.NotPanics(t, func() { Shape(s) }, "%q", s)
	}

	f := func(s string) bool {
		_ = Shape(s)
		return true
	}
	assert.NoError(t, quick.Check(f, &quick.Config{MaxCount: 500}))
}

func TestShape_PreservesRuneCountForHebrew(t *testing.T) {
	in := "חתימת הלקוח: __________"
	assert.Equal(t, len([]rune(in)), len([]rune(Shape(in))))
}

func TestJoinArabic_Transparent(t *testing.T) {
	// A fatha between two behs must not break the join.
	got := joinArabic([]rune("بَب"))
	assert.Equal(t, []rune{0xFE91, 0x064E, 0xFE90}, got)
}
