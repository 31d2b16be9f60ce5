package textshape

import "golang.org/x/text/unicode/bidi"

func classify(text []rune) []bidi.Class {
	classes := make([]bidi.Class, len(text))
	for i, r := range text {
		p, _ := bidi.LookupRune(r)
		classes[i] = p.Class()
	}
	return classes
}

// paragraphLevel follows rules P2/P3: the first strong character decides.
func paragraphLevel(classes []bidi.Class) int {
	for _, c := range classes {
		switch c {
		case bidi.L:
			return 0
		case bidi.R, bidi.AL:
			return 1
		}
	}
	return 0
}

func isNeutral(c bidi.Class) bool {
	switch c {
	case bidi.B, bidi.S, bidi.WS, bidi.ON, bidi.BN, bidi.Control:
		return true
	}
	return false
}

func directionOf(level int) bidi.Class {
	if level%2 == 1 {
		return bidi.R
	}
	return bidi.L
}

// resolveWeak applies W1–W7 over one level run that spans the whole line.
func resolveWeak(classes []bidi.Class, level int) []bidi.Class {
	n := len(classes)
	types := make([]bidi.Class, n)
	copy(types, classes)
	sos := directionOf(level)

	// W1: marks take the type of what precedes them.
	for i := range types {
		if types[i] == bidi.NSM || types[i] == bidi.BN {
			if i == 0 {
				types[i] = sos
			} else {
				types[i] = types[i-1]
			}
		}
	}

	// W2: European numbers after an Arabic letter become Arabic numbers.
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

	// W3
	for i, t := range types {
		if t == bidi.AL {
			types[i] = bidi.R
		}
	}

	// W4: a single separator between two numbers of the same kind.
	for i := 1; i < n-1; i++ {
		prev, next := types[i-1], types[i+1]
		switch types[i] {
		case bidi.ES:
			if prev == bidi.EN && next == bidi.EN {
				types[i] = bidi.EN
			}
		case bidi.CS:
			if prev == next && (prev == bidi.EN || prev == bidi.AN) {
				types[i] = prev
			}
		}
	}

	// W5: terminators next to European numbers.
	for i := 0; i < n; i++ {
		if types[i] != bidi.ET {
			continue
		}
		end := i
		for end < n && types[end] == bidi.ET {
			end++
		}
		if (i > 0 && types[i-1] == bidi.EN) || (end < n && types[end] == bidi.EN) {
			for j := i; j < end; j++ {
				types[j] = bidi.EN
			}
		}
		i = end - 1
	}

	// W6
	for i, t := range types {
		if t == bidi.ES || t == bidi.ET || t == bidi.CS {
			types[i] = bidi.ON
		}
	}

	// W7: European numbers in a left-to-right context behave as L.
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

	return types
}

// resolveNeutral applies N1/N2; numbers count as R when looking at neighbours.
func resolveNeutral(types []bidi.Class, level int) {
	n := len(types)
	embedding := directionOf(level)

	strong := func(t bidi.Class) bidi.Class {
		switch t {
		case bidi.L:
			return bidi.L
		case bidi.R, bidi.AN, bidi.EN:
			return bidi.R
		}
		return bidi.ON
	}

	for i := 0; i < n; i++ {
		if !isNeutral(types[i]) {
			continue
		}
		end := i
		for end < n && isNeutral(types[end]) {
			end++
		}

		before := embedding
		if i > 0 {
			before = strong(types[i-1])
		}
		after := embedding
		if end < n {
			after = strong(types[end])
		}

		dir := embedding
		if before == after {
			dir = before
		}
		for j := i; j < end; j++ {
			types[j] = dir
		}
		i = end - 1
	}
}

// resolveLevels applies I1/I2 and the line rule L1.
func resolveLevels(classes, types []bidi.Class, level int) []int {
	n := len(types)
	levels := make([]int, n)

	for i, t := range types {
		lv := level
		if level%2 == 0 {
			switch t {
			case bidi.R:
				lv++
			case bidi.AN, bidi.EN:
				lv += 2
			}
		} else {
			switch t {
			case bidi.L, bidi.EN, bidi.AN:
				lv++
			}
		}
		levels[i] = lv
	}

	// L1: separators and trailing whitespace go back to the paragraph level.
	trailing := true
	for i := n - 1; i >= 0; i-- {
		switch classes[i] {
		case bidi.S, bidi.B:
			levels[i] = level
			trailing = true
		case bidi.WS, bidi.BN, bidi.Control:
			if trailing {
				levels[i] = level
			}
		default:
			trailing = false
		}
	}

	return levels
}

var mirrors = map[rune]rune{
	'(': ')', ')': '(',
	'[': ']', ']': '[',
	'{': '}', '}': '{',
	'<': '>', '>': '<',
	'«': '»', '»': '«',
}

// reorder converts one line from logical to visual order (rule L2) and
// mirrors paired punctuation inside right-to-left runs (L4).
func reorder(text []rune) []rune {
	n := len(text)
	if n == 0 {
		return text
	}

	classes := classify(text)
	level := paragraphLevel(classes)
	types := resolveWeak(classes, level)
	resolveNeutral(types, level)
	levels := resolveLevels(classes, types, level)

	out := make([]rune, n)
	copy(out, text)
	for i := range out {
		if levels[i]%2 == 1 {
			if m, ok := mirrors[out[i]]; ok {
				out[i] = m
			}
		}
	}

	highest, lowestOdd := 0, -1
	for _, lv := range levels {
		if lv > highest {
			highest = lv
		}
		if lv%2 == 1 && (lowestOdd == -1 || lv < lowestOdd) {
			lowestOdd = lv
		}
	}
	if lowestOdd == -1 {
		return out
	}

	lv := make([]int, n)
	copy(lv, levels)
	for target := highest; target >= lowestOdd; target-- {
		for i := 0; i < n; i++ {
			if lv[i] < target {
				continue
			}
			end := i
			for end < n && lv[end] >= target {
				end++
			}
			reverse(out[i:end])
			reverse(lv[i:end])
			i = end
		}
	}

	return out
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
