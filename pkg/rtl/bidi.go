package rtl

import (
	"github.com/go-text/typesetting/di"
	"golang.org/x/text/unicode/bidi"
)

// classOf returns the bidi class of r, folding explicit embedding controls
// and boundary neutrals into ON. Embeddings are not supported.
func classOf(r rune) bidi.Class {
	p, _ := bidi.LookupRune(r)
	switch c := p.Class(); c {
	case bidi.L, bidi.R, bidi.AL, bidi.EN, bidi.ES, bidi.ET, bidi.AN,
		bidi.CS, bidi.NSM, bidi.B, bidi.S, bidi.WS, bidi.ON:
		return c
	default:
		return bidi.ON
	}
}

// paragraphDirection picks the direction of the first strong character.
func paragraphDirection(types []bidi.Class) di.Direction {
	for _, t := range types {
		switch t {
		case bidi.L:
			return di.DirectionLTR
		case bidi.R, bidi.AL:
			return di.DirectionRTL
		}
	}
	return di.DirectionLTR
}

// reorder runs a single-line, embedding-free version of the Unicode
// bidirectional algorithm and returns the runes in visual order, mirroring
// brackets that end up on right-to-left levels.
func reorder(runes []rune) []rune {
	n := len(runes)
	if n == 0 {
		return runes
	}

	orig := make([]bidi.Class, n)
	for i, r := range runes {
		orig[i] = classOf(r)
	}
	types := make([]bidi.Class, n)
	copy(types, orig)

	var base uint8
	sos := bidi.L
	if paragraphDirection(types) == di.DirectionRTL {
		base, sos = 1, bidi.R
	}

	resolveWeak(types, sos)
	resolveNeutral(types, sos)
	levels := implicitLevels(types, base)
	resetTrailing(orig, levels, base)

	order := visualOrder(levels)
	out := make([]rune, n)
	for i, idx := range order {
		r := runes[idx]
		if levels[idx]%2 == 1 {
			r = mirror(r)
		}
		out[i] = r
	}
	return out
}

// resolveWeak applies rules W1 to W7.
func resolveWeak(types []bidi.Class, sos bidi.Class) {
	n := len(types)

	prev := sos
	for i, t := range types {
		if t == bidi.NSM {
			types[i] = prev
		} else {
			prev = t
		}
	}

	lastStrong := sos
	for i, t := range types {
		switch t {
		case bidi.L, bidi.R, bidi.AL:
			lastStrong = t
		case bidi.EN:
			if lastStrong == bidi.AL {
				types[i] = bidi.AN
			}
		}
	}

	for i, t := range types {
		if t == bidi.AL {
			types[i] = bidi.R
		}
	}

	for i := 1; i+1 < n; i++ {
		before, after := types[i-1], types[i+1]
		switch types[i] {
		case bidi.ES:
			if before == bidi.EN && after == bidi.EN {
				types[i] = bidi.EN
			}
		case bidi.CS:
			if before == after && (before == bidi.EN || before == bidi.AN) {
				types[i] = before
			}
		}
	}

	for i := 0; i < n; {
		if types[i] != bidi.ET {
			i++
			continue
		}
		j := i
		for j < n && types[j] == bidi.ET {
			j++
		}
		if (i > 0 && types[i-1] == bidi.EN) || (j < n && types[j] == bidi.EN) {
			for k := i; k < j; k++ {
				types[k] = bidi.EN
			}
		}
		i = j
	}

	for i, t := range types {
		switch t {
		case bidi.ES, bidi.ET, bidi.CS:
			types[i] = bidi.ON
		}
	}

	lastStrong = sos
	for i, t := range types {
		switch t {
		case bidi.L, bidi.R:
			lastStrong = t
		case bidi.EN:
			if lastStrong == bidi.L {
				types[i] = bidi.L
			}
		}
	}
}

func isNeutral(t bidi.Class) bool {
	switch t {
	case bidi.B, bidi.S, bidi.WS, bidi.ON:
		return true
	}
	return false
}

// strongDirection treats numbers as R when resolving neutrals (N1).
func strongDirection(t bidi.Class) bidi.Class {
	if t == bidi.L {
		return bidi.L
	}
	return bidi.R
}

// resolveNeutral applies N1 and N2. With no embeddings sos and eos are the
// same paragraph direction.
func resolveNeutral(types []bidi.Class, sos bidi.Class) {
	n := len(types)
	for i := 0; i < n; {
		if !isNeutral(types[i]) {
			i++
			continue
		}
		j := i
		for j < n && isNeutral(types[j]) {
			j++
		}

		before, after := sos, sos
		if i > 0 {
			before = strongDirection(types[i-1])
		}
		if j < n {
			after = strongDirection(types[j])
		}

		dir := sos
		if before == after {
			dir = before
		}
		for k := i; k < j; k++ {
			types[k] = dir
		}
		i = j
	}
}

// implicitLevels applies I1 and I2.
func implicitLevels(types []bidi.Class, base uint8) []uint8 {
	levels := make([]uint8, len(types))
	for i, t := range types {
		lvl := base
		if base%2 == 0 {
			switch t {
			case bidi.R:
				lvl++
			case bidi.EN, bidi.AN:
				lvl += 2
			}
		} else if t != bidi.R {
			lvl++
		}
		levels[i] = lvl
	}
	return levels
}

// resetTrailing applies L1: separators and the whitespace before them or at
// the end of the line go back to the paragraph level.
func resetTrailing(orig []bidi.Class, levels []uint8, base uint8) {
	trailing := true
	for i := len(orig) - 1; i >= 0; i-- {
		switch orig[i] {
		case bidi.S, bidi.B:
			levels[i] = base
			trailing = true
		case bidi.WS:
			if trailing {
				levels[i] = base
			}
		default:
			trailing = false
		}
	}
}

// visualOrder applies L2 and returns logical indices in display order.
func visualOrder(levels []uint8) []int {
	order := make([]int, len(levels))
	var highest, lowestOdd uint8 = 0, 255
	for i, lvl := range levels {
		order[i] = i
		if lvl > highest {
			highest = lvl
		}
		if lvl%2 == 1 && lvl < lowestOdd {
			lowestOdd = lvl
		}
	}
	if lowestOdd == 255 {
		return order
	}

	for lvl := highest; lvl >= lowestOdd; lvl-- {
		for i := 0; i < len(order); {
			if levels[order[i]] < lvl {
				i++
				continue
			}
			j := i
			for j < len(order) && levels[order[j]] >= lvl {
				j++
			}
			for a, b := i, j-1; a < b; a, b = a+1, b-1 {
				order[a], order[b] = order[b], order[a]
			}
			i = j
		}
	}
	return order
}

var extraMirrors = map[rune]rune{
	'<': '>', '>': '<',
	'«': '»', '»': '«',
	'‹': '›', '›': '‹',
}

// mirror returns the mirrored glyph for brackets and a few comparison and
// quotation marks. Paired brackets come from x/text.
func mirror(r rune) rune {
	if m, ok := extraMirrors[r]; ok {
		return m
	}
	if p, _ := bidi.LookupRune(r); p.IsBracket() {
		if m := []rune(bidi.ReverseString(string(r))); len(m) == 1 {
			return m[0]
		}
	}
	return r
}
