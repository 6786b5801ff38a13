// Package moderation censors blacklisted words in message content
// before it reaches the store, so history and live delivery always
// agree on the text.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator masks forbidden patterns with a replacement character while
// preserving the original spacing and punctuation. Matching runs on a
// normalized view of the text (lowercased, de-leeted, noise stripped)
// and replacement is mapped back onto the original runes.
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the Aho-Corasick automaton from the word list.
// Words are normalized the same way inputs are, so "B.4.d.g.€r" still
// matches a plain "badger" entry.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, len(words))
	for i, word := range words {
		normalized, _ := normalize([]rune(word))
		patterns[i] = normalized
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement}, nil
}

// Censor returns the content with every matched span replaced.
func (m *Moderator) Censor(content string) string {
	origRunes := []rune(content)
	normalized, origIdx := normalize(origRunes)
	if len(normalized) == 0 {
		return content
	}

	spans := m.matcher.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return content
	}

	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		// Mask the whole original range covered by the match,
		// separators included.
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = m.replacement
		}
	}
	return string(origRunes)
}

// normalize lowercases, maps leet-speak digits back to letters, drops
// punctuation/whitespace/symbols, and records for each kept rune its
// index in the original slice.
func normalize(input []rune) ([]rune, []int) {
	norm := make([]rune, 0, len(input))
	origIdx := make([]int, 0, len(input))
	for i, r := range input {
		clean := deleet(r)
		if unicode.IsPunct(clean) || unicode.IsSpace(clean) || unicode.IsSymbol(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	return norm, origIdx
}

func deleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
