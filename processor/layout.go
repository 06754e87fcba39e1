package processor

import (
	"fmt"
	"unicode/utf8"
)

// QuoteLayout slices a B6034 payload. A positive entry takes that many
// characters as the next field; a negative entry skips that many.
//
//	issue code | 5 bid (price, qty) | 5 ask (price, qty) | accept time
var QuoteLayout = []int{
	-5, 12, -12,
	5, 7, 5, 7, 5, 7, 5, 7, 5, 7,
	-7,
	5, 7, 5, 7, 5, 7, 5, 7, 5, 7,
	-50, 8,
}

// Extract slices text according to layout and returns the taken fields in
// order. Fields share memory with text. A field that would split a multibyte
// character fails with ErrInvalidText.
func Extract(text string, layout []int) ([]string, error) {
	out := make([]string, 0, FieldCount(layout))
	pos := 0
	for _, n := range layout {
		width := n
		if width < 0 {
			width = -width
		}
		end := pos + width
		if n > 0 {
			if end > len(text) {
				return nil, fmt.Errorf("%w: need %d characters, have %d", ErrShortPayload, end, len(text))
			}
			if !utf8.RuneStart(text[pos]) || (end < len(text) && !utf8.RuneStart(text[end])) {
				return nil, fmt.Errorf("%w: field at %d..%d splits a character", ErrInvalidText, pos, end)
			}
			out = append(out, text[pos:end])
		}
		pos = end
	}
	return out, nil
}

// FieldCount returns the number of fields layout produces.
func FieldCount(layout []int) int {
	count := 0
	for _, n := range layout {
		if n > 0 {
			count++
		}
	}
	return count
}

// LayoutWidth returns the number of characters layout consumes.
func LayoutWidth(layout []int) int {
	width := 0
	for _, n := range layout {
		if n < 0 {
			width -= n
		} else {
			width += n
		}
	}
	return width
}
