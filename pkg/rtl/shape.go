// Package rtl turns logical-order text containing Hebrew or Arabic into the
// visual order expected by a left-to-right text primitive such as gofpdf's
// Text and CellFormat.
//
// Arabic letters are replaced with their contextual presentation forms
// before reordering. Hebrew has no joining behaviour and is only reordered.
package rtl

import (
	"fmt"

	"golang.org/x/text/unicode/bidi"
)

// Shape returns text in visual order. It never fails: if shaping panics the
// runes are returned in reverse order, which is correct for pure RTL labels.
func Shape(text string) string {
	shaped, _ := TryShape(text)
	return shaped
}

// TryShape is Shape that also reports when the reversal fallback was used.
// The returned string is always usable.
func TryShape(text string) (shaped string, err error) {
	if !NeedsShaping(text) {
		return text, nil
	}

	defer func() {
		if r := recover(); r != nil {
			shaped = Reverse(text)
			err = fmt.Errorf("rtl: shaping %q: %v", text, r)
		}
	}()

	runes := []rune(text)
	if hasArabic(runes) {
		runes = joinArabic(runes)
	}
	return string(reorder(runes)), nil
}

// NeedsShaping reports whether text contains right-to-left letters or
// Arabic-Indic digits. Pure LTR text passes through Shape unchanged.
func NeedsShaping(text string) bool {
	for _, r := range text {
		switch classOf(r) {
		case bidi.R, bidi.AL, bidi.AN:
			return true
		}
	}
	return false
}

// Reverse reverses text rune by rune without any bidi analysis. Invalid
// UTF-8 is decoded as U+FFFD.
func Reverse(text string) string {
	runes := []rune(text)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
