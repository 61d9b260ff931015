package rtl

import (
	"github.com/go-text/typesetting/language"
	"golang.org/x/text/unicode/bidi"
)

type joining uint8

const (
	nonJoining   joining = iota
	rightJoining         // connects to the preceding letter only
	dualJoining
)

// arabicForm holds the isolated presentation form. Final, initial and medial
// forms follow it consecutively in the Presentation Forms-B block.
type arabicForm struct {
	isolated rune
	join     joining
}

const (
	tatweel = 'ـ'
	lam     = 'ل'
)

var arabicForms = map[rune]arabicForm{
	'ء': {0xFE80, nonJoining},
	'آ': {0xFE81, rightJoining},
	'أ': {0xFE83, rightJoining},
	'ؤ': {0xFE85, rightJoining},
	'إ': {0xFE87, rightJoining},
	'ئ': {0xFE89, dualJoining},
	'ا': {0xFE8D, rightJoining},
	'ب': {0xFE8F, dualJoining},
	'ة': {0xFE93, rightJoining},
	'ت': {0xFE95, dualJoining},
	'ث': {0xFE99, dualJoining},
	'ج': {0xFE9D, dualJoining},
	'ح': {0xFEA1, dualJoining},
	'خ': {0xFEA5, dualJoining},
	'د': {0xFEA9, rightJoining},
	'ذ': {0xFEAB, rightJoining},
	'ر': {0xFEAD, rightJoining},
	'ز': {0xFEAF, rightJoining},
	'س': {0xFEB1, dualJoining},
	'ش': {0xFEB5, dualJoining},
	'ص': {0xFEB9, dualJoining},
	'ض': {0xFEBD, dualJoining},
	'ط': {0xFEC1, dualJoining},
	'ظ': {0xFEC5, dualJoining},
	'ع': {0xFEC9, dualJoining},
	'غ': {0xFECD, dualJoining},
	'ف': {0xFED1, dualJoining},
	'ق': {0xFED5, dualJoining},
	'ك': {0xFED9, dualJoining},
	'ل': {0xFEDD, dualJoining},
	'م': {0xFEE1, dualJoining},
	'ن': {0xFEE5, dualJoining},
	'ه': {0xFEE9, dualJoining},
	'و': {0xFEED, rightJoining},
	'ى': {0xFEEF, rightJoining},
	'ي': {0xFEF1, dualJoining},
}

// Lam followed by one of these alefs becomes a single ligature; the value is
// its isolated form and the final form follows it.
var lamAlef = map[rune]rune{
	'آ': 0xFEF5,
	'أ': 0xFEF7,
	'إ': 0xFEF9,
	'ا': 0xFEFB,
}

func (f arabicForm) shape(prevJoins, nextJoins bool) rune {
	switch f.join {
	case dualJoining:
		switch {
		case prevJoins && nextJoins:
			return f.isolated + 3
		case nextJoins:
			return f.isolated + 2
		case prevJoins:
			return f.isolated + 1
		}
	case rightJoining:
		if prevJoins {
			return f.isolated + 1
		}
	}
	return f.isolated
}

func hasArabic(runes []rune) bool {
	for _, r := range runes {
		if language.LookupScript(r) == language.Arabic {
			return true
		}
	}
	return false
}

// transparent marks (harakat) do not break joining.
func transparent(r rune) bool {
	return classOf(r) == bidi.NSM
}

// joinsForward reports whether r connects to the letter after it.
func joinsForward(r rune) bool {
	if r == tatweel {
		return true
	}
	f, ok := arabicForms[r]
	return ok && f.join == dualJoining
}

// joinsBackward reports whether r connects to the letter before it.
func joinsBackward(r rune) bool {
	if r == tatweel {
		return true
	}
	f, ok := arabicForms[r]
	return ok && f.join != nonJoining
}

func prevLetter(runes []rune, i int) (rune, bool) {
	for j := i - 1; j >= 0; j-- {
		if !transparent(runes[j]) {
			return runes[j], true
		}
	}
	return 0, false
}

func nextLetter(runes []rune, i int) (int, bool) {
	for j := i + 1; j < len(runes); j++ {
		if !transparent(runes[j]) {
			return j, true
		}
	}
	return -1, false
}

// joinArabic replaces Arabic letters with their contextual presentation
// forms, in logical order.
func joinArabic(runes []rune) []rune {
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		form, ok := arabicForms[r]
		if !ok {
			out = append(out, r)
			continue
		}

		prev, hasPrev := prevLetter(runes, i)
		prevJoins := hasPrev && joinsForward(prev)
		next, hasNext := nextLetter(runes, i)

		if r == lam && hasNext && next == i+1 {
			if lig, ok := lamAlef[runes[next]]; ok {
				if prevJoins {
					lig++
				}
				out = append(out, lig)
				i = next
				continue
			}
		}

		nextJoins := hasNext && joinsBackward(runes[next])
		out = append(out, form.shape(prevJoins, nextJoins))
	}
	return out
}
