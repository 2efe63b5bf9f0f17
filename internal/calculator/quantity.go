package calculator

import (
	"strconv"
	"strings"
	"unicode"
)

// MinQuantity is the smallest quantity a row may hold.
const MinQuantity = 1

// ParseQuantity reads the leading integer of raw, the way a browser number
// input is read: leading whitespace and a sign are accepted and trailing
// garbage is ignored ("3 boxes" is 3, "2.7" is 2).
//
// Anything without a leading integer, below MinQuantity, or too large for an
// int yields MinQuantity with ok == false.
func ParseQuantity(raw string) (quantity int, ok bool) {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return MinQuantity, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil || n < MinQuantity {
		return MinQuantity, false
	}
	return n, true
}
