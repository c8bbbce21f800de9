package devserver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrWordTooShort   = errors.New("word is too short")
	ErrWordUsed       = errors.New("word has already been used")
	ErrWordNotChained = errors.New("word does not start with the last letter of the previous word")
	ErrUnknownWord    = errors.New("word is not in the dictionary")
)

// Validator decides whether a word continues the chain and picks the
// opponent's reply.
type Validator interface {
	Check(word string, history []string) error
	NextWord(history []string) (string, bool)
}

// WordChain is a Validator backed by a fixed dictionary.
type WordChain struct {
	MinLength  int
	Dictionary []string
	// Strict rejects words missing from the dictionary.
	Strict bool
}

func DefaultDictionary() []string {
	return []string{
		"apple", "egg", "game", "elephant", "tiger", "rabbit", "turtle",
		"eagle", "lemon", "night", "table", "energy", "yellow", "water",
		"river", "robot", "train", "needle", "earth", "house", "snake",
		"kite", "echo", "orange",
	}
}

func NewWordChain(minLength int) *WordChain {
	return &WordChain{MinLength: minLength, Dictionary: DefaultDictionary()}
}

func (v *WordChain) Check(word string, history []string) error {
	word = strings.ToLower(word)
	if len([]rune(word)) < v.MinLength {
		return fmt.Errorf("%w: at least %d letters", ErrWordTooShort, v.MinLength)
	}
	for _, used := range history {
		if used == word {
			return ErrWordUsed
		}
	}
	if len(history) > 0 && !chains(history[len(history)-1], word) {
		return ErrWordNotChained
	}
	if v.Strict && !v.known(word) {
		return ErrUnknownWord
	}
	return nil
}

func (v *WordChain) NextWord(history []string) (string, bool) {
	if len(history) == 0 {
		return "", false
	}
	last := history[len(history)-1]
outer:
	for _, candidate := range v.Dictionary {
		if !chains(last, candidate) {
			continue
		}
		for _, used := range history {
			if used == candidate {
				continue outer
			}
		}
		return candidate, true
	}
	return "", false
}

func (v *WordChain) known(word string) bool {
	for _, w := range v.Dictionary {
		if w == word {
			return true
		}
	}
	return false
}

func chains(prev, next string) bool {
	p, n := []rune(prev), []rune(next)
	return len(p) > 0 && len(n) > 0 && p[len(p)-1] == n[0]
}
