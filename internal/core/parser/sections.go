// Package parser extracts the structured parts of a tutoring reply.
package parser

import (
	"regexp"
	"sort"
	"strings"
)

// Name identifies one of the known reply sections.
type Name string

const (
	Corrected           Name = "corrected"
	Corrections         Name = "corrections"
	Phrase              Name = "phrase"
	Vocab               Name = "vocab"
	Followup            Name = "followup"
	FollowupTranslation Name = "followupTranslation"
)

// Field is an optional section body. Present is false when the header was
// not found or its body was blank.
type Field struct {
	Text    string
	Present bool
}

// Sections is the parsed view of one reply. It is derived from the raw reply
// every time and never stored on its own.
type Sections struct {
	Corrected           Field
	Corrections         Field
	Phrase              Field
	Vocab               Field
	Followup            Field
	FollowupTranslation Field
}

type header struct {
	name Name
	re   *regexp.Regexp
}

// headerExpr matches a bold "**Name:**" or "**Name**:" anywhere, and the
// plain "Name:" or "## Name:" forms only at the start of a line, so prose
// that mentions a section name does not open a section.
func headerExpr(name string) *regexp.Regexp {
	bold := `\*\*[ \t]*` + name + `[ \t]*(?::[ \t]*\*\*|\*\*[ \t]*:)`
	plain := `^[ \t]*(?:#{1,6}[ \t]*)?` + name + `[ \t]*:`
	return regexp.MustCompile(`(?im)(?:` + bold + `|` + plain + `)`)
}

// Priority order of the tutoring format. The combined
// "Vocabulary Enhancer/Follow-up" header opens the vocab section.
var headers = []header{
	{Corrected, headerExpr(`corrected[ \t]+entry`)},
	{Corrections, headerExpr(`key[ \t]+corrections`)},
	{Phrase, headerExpr(`phrases?[ \t]+to[ \t]+remember`)},
	{Vocab, headerExpr(`vocabulary[ \t]+enhancer(?:[ \t]*/[ \t]*follow[ \t-]?up)?`)},
	{Followup, headerExpr(`follow[ \t-]?up`)},
	{FollowupTranslation, headerExpr(`follow[ \t-]?up[ \t]+translation`)},
}

// Parse extracts every known section from reply. A section's body runs from
// its first header to the nearest later known header, or to the end of the
// string. Missing sections are normal; Parse never fails.
func Parse(reply string) Sections {
	var out Sections
	if strings.TrimSpace(reply) == "" {
		return out
	}

	type hit struct {
		name       Name
		start, end int
	}
	var (
		firsts []hit
		starts []int
	)
	for _, h := range headers {
		locs := h.re.FindAllStringIndex(reply, -1)
		if len(locs) == 0 {
			continue
		}
		firsts = append(firsts, hit{name: h.name, start: locs[0][0], end: locs[0][1]})
		for _, loc := range locs {
			starts = append(starts, loc[0])
		}
	}
	sort.Ints(starts)

	for _, h := range firsts {
		stop := len(reply)
		if i := sort.SearchInts(starts, h.end); i < len(starts) {
			stop = starts[i]
		}
		body := strings.TrimSpace(reply[h.end:stop])
		if body == "" {
			continue
		}
		*out.field(h.name) = Field{Text: body, Present: true}
	}
	return out
}

func (s *Sections) field(n Name) *Field {
	switch n {
	case Corrected:
		return &s.Corrected
	case Corrections:
		return &s.Corrections
	case Phrase:
		return &s.Phrase
	case Vocab:
		return &s.Vocab
	case Followup:
		return &s.Followup
	case FollowupTranslation:
		return &s.FollowupTranslation
	}
	return &Field{}
}

// Get returns the body of the named section and whether it was present.
func (s Sections) Get(n Name) (string, bool) {
	f := s.field(n)
	return f.Text, f.Present
}

// Names lists the present sections in priority order.
func (s Sections) Names() []Name {
	var out []Name
	for _, h := range headers {
		if _, ok := s.Get(h.name); ok {
			out = append(out, h.name)
		}
	}
	return out
}

// Empty reports whether no section was found, in which case the reply should
// be shown as plain text.
func (s Sections) Empty() bool {
	return len(s.Names()) == 0
}

// Map returns the present sections keyed by name, for JSON responses.
func (s Sections) Map() map[Name]string {
	out := make(map[Name]string)
	for _, n := range s.Names() {
		out[n], _ = s.Get(n)
	}
	return out
}
