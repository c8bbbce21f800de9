package devserver

import (
	"strings"

	"github.com/mcdev12/braillechain/go/internal/models"
)

// Dots returns the cell with the given dots (1-6) raised. Dot n is bit n-1.
func Dots(dots ...int) models.Cell {
	var c models.Cell
	for _, d := range dots {
		if d >= 1 && d <= 6 {
			c |= 1 << (d - 1)
		}
	}
	return c
}

// Uncontracted English letters.
var letters = map[rune]models.Cell{
	'a': Dots(1),
	'b': Dots(1, 2),
	'c': Dots(1, 4),
	'd': Dots(1, 4, 5),
	'e': Dots(1, 5),
	'f': Dots(1, 2, 4),
	'g': Dots(1, 2, 4, 5),
	'h': Dots(1, 2, 5),
	'i': Dots(2, 4),
	'j': Dots(2, 4, 5),
	'k': Dots(1, 3),
	'l': Dots(1, 2, 3),
	'm': Dots(1, 3, 4),
	'n': Dots(1, 3, 4, 5),
	'o': Dots(1, 3, 5),
	'p': Dots(1, 2, 3, 4),
	'q': Dots(1, 2, 3, 4, 5),
	'r': Dots(1, 2, 3, 5),
	's': Dots(2, 3, 4),
	't': Dots(2, 3, 4, 5),
	'u': Dots(1, 3, 6),
	'v': Dots(1, 2, 3, 6),
	'w': Dots(2, 4, 5, 6),
	'x': Dots(1, 3, 4, 6),
	'y': Dots(1, 3, 4, 5, 6),
	'z': Dots(1, 3, 5, 6),
}

var cells = func() map[models.Cell]rune {
	m := make(map[models.Cell]rune, len(letters))
	for r, c := range letters {
		m[c] = r
	}
	return m
}()

// Encode returns the cells spelling word. Characters outside a-z are skipped.
func Encode(word string) []models.Cell {
	out := make([]models.Cell, 0, len(word))
	for _, r := range strings.ToLower(word) {
		if c, ok := letters[r]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Decode reads cells as uncontracted letters. Unknown cells decode to '?'.
func Decode(buffer []models.Cell) string {
	var b strings.Builder
	for _, c := range buffer {
		if r, ok := cells[c]; ok {
			b.WriteRune(r)
		} else {
			b.WriteRune('?')
		}
	}
	return b.String()
}
