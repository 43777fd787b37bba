package app

import (
	"strconv"
	"time"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"github.com/vleray/parley/internal/domain"
)

// ContentFilter censors free-text fields before they are relayed. Matching
// is case-insensitive, skips punctuation noise and folds common leet
// substitutions, so "b.a.d" still hits "bad". Censoring is idempotent: the
// replacement character is itself noise, so censored text never re-matches.
type ContentFilter struct {
	matcher *goahocorasick.Machine
	replace rune
}

// NewContentFilter builds the Aho-Corasick automaton over the normalized
// word list. An empty list yields a pass-through filter.
func NewContentFilter(words []string, replace rune) (*ContentFilter, error) {
	if len(words) == 0 {
		return &ContentFilter{replace: replace}, nil
	}
	patterns := make([][]rune, len(words))
	for i, w := range words {
		patterns[i], _ = foldRunes([]rune(w))
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &ContentFilter{matcher: m, replace: replace}, nil
}

// Censor replaces every character of a matched span with the replacement
// rune, preserving length and spacing of the original.
func (f *ContentFilter) Censor(original string) string {
	if f.matcher == nil {
		return original
	}

	orig := []rune(original)
	folded, origIdx := foldRunes(orig)
	if len(folded) == 0 {
		return original
	}

	spans := f.matcher.MultiPatternSearch(folded, false)
	if len(spans) == 0 {
		return original
	}

	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			orig[i] = f.replace
		}
	}
	return string(orig)
}

// Nickname produces the stored display name: empty input falls back to a
// numeric timestamp token, then censor, then cap at the nickname limit.
func (f *ContentFilter) Nickname(raw string) string {
	if raw == "" {
		raw = strconv.FormatInt(time.Now().Unix(), 10)
	}
	return truncateRunes(f.Censor(raw), domain.MaxNicknameLen)
}

// Body censors and caps a chat message body.
func (f *ContentFilter) Body(raw string) string {
	return truncateRunes(f.Censor(raw), domain.MaxMessageLen)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// foldRunes lowercases, drops punctuation/space/symbol noise and undoes
// leet substitutions. It returns the folded runes together with the index
// each one had in the input, so matched spans can be mapped back.
func foldRunes(input []rune) ([]rune, []int) {
	folded := make([]rune, 0, len(input))
	idx := make([]int, 0, len(input))
	for i, r := range input {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		folded = append(folded, unicode.ToLower(r))
		idx = append(idx, i)
	}
	return folded, idx
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
