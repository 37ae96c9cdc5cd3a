package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// PhraseItem is one highlightable item from a section body.
type PhraseItem struct {
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
}

var (
	bulletRx = regexp.MustCompile(`^(?:[-•]|\*[ \t])[ \t]*`)
	// phrase, then an em/en dash, or a hyphen with spaces around it, then the translation
	separatorRx = regexp.MustCompile(`^(.+?)(?:[ \t]*[—–][ \t]*|[ \t]+-[ \t]+)(.+)$`)
)

var quotePairs = map[rune]rune{
	'"':  '"',
	'“':  '”',
	'«':  '»',
	'\'': '\'',
	'‘':  '’',
}

// ExtractPhrases splits a section body into items, one per line or bullet,
// and splits each item into phrase and translation where a dash separates
// them. Order is preserved and duplicates are kept.
func ExtractPhrases(body string) []PhraseItem {
	var out []PhraseItem
	for _, line := range strings.Split(body, "\n") {
		for _, raw := range strings.Split(line, "•") {
			item := strings.TrimSpace(raw)
			item = strings.TrimSpace(bulletRx.ReplaceAllString(item, ""))
			if item == "" {
				continue
			}
			out = append(out, splitItem(item))
		}
	}
	return out
}

func splitItem(item string) PhraseItem {
	m := separatorRx.FindStringSubmatch(item)
	if m == nil {
		return PhraseItem{Text: cleanPhrase(item)}
	}
	phrase := cleanPhrase(m[1])
	if phrase == "" {
		return PhraseItem{Text: cleanPhrase(item)}
	}
	return PhraseItem{Text: phrase, Translation: cleanPhrase(m[2])}
}

func cleanPhrase(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "**"), "**"))
	return unquote(s)
}

func unquote(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	closing, ok := quotePairs[first]
	if !ok {
		return s
	}
	last, lastSize := utf8.DecodeLastRuneInString(s)
	if last != closing || len(s) < size+lastSize {
		return s
	}
	return strings.TrimSpace(s[size : len(s)-lastSize])
}
