// Package diff computes word-level reconciliations between an original span and
// a proposed replacement.
package diff

import (
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type Tag string

const (
	TagUnchanged Tag = "unchanged"
	TagAdded     Tag = "added"
	TagRemoved   Tag = "removed"
)

type Segment struct {
	Text string `json:"text"`
	Tag  Tag    `json:"tag"`
}

// Words aligns original and candidate at word granularity. Whitespace runs are
// tokens of their own, so joining every non-removed segment yields candidate and
// joining every non-added segment yields original.
func Words(original, candidate string) []Segment {
	if original == candidate {
		if original == "" {
			return []Segment{}
		}
		return []Segment{{Text: original, Tag: TagUnchanged}}
	}

	enc := newTokenEncoder()
	a := enc.encode(tokenize(original))
	b := enc.encode(tokenize(candidate))

	dmp := diffmatchpatch.New()
	// No deadline: a timed-out diff is not reproducible across calls.
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMainRunes(a, b, false)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		text := enc.decode(d.Text)
		if text == "" {
			continue
		}
		var tag Tag
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			tag = TagAdded
		case diffmatchpatch.DiffDelete:
			tag = TagRemoved
		default:
			tag = TagUnchanged
		}
		segments = appendSegment(segments, Segment{Text: text, Tag: tag})
	}
	return segments
}

// Candidate joins every segment that is not removed.
func Candidate(segments []Segment) string {
	return join(segments, TagRemoved)
}

// Original joins every segment that is not added.
func Original(segments []Segment) string {
	return join(segments, TagAdded)
}

func join(segments []Segment, skip Tag) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Tag != skip {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

func appendSegment(segments []Segment, s Segment) []Segment {
	if n := len(segments); n > 0 && segments[n-1].Tag == s.Tag {
		segments[n-1].Text += s.Text
		return segments
	}
	return append(segments, s)
}

// tokenize splits s into alternating runs of whitespace and non-whitespace.
func tokenize(s string) []string {
	var tokens []string
	start := 0
	inSpace := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if i > start && space != inSpace {
			tokens = append(tokens, s[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

// tokenEncoder maps each distinct token to one rune so the character differ
// works on whole words.
type tokenEncoder struct {
	ids    map[string]rune
	tokens []string
}

func newTokenEncoder() *tokenEncoder {
	return &tokenEncoder{ids: make(map[string]rune)}
}

func (e *tokenEncoder) encode(tokens []string) []rune {
	out := make([]rune, len(tokens))
	for i, tok := range tokens {
		id, ok := e.ids[tok]
		if !ok {
			id = indexToRune(len(e.tokens))
			e.ids[tok] = id
			e.tokens = append(e.tokens, tok)
		}
		out[i] = id
	}
	return out
}

func (e *tokenEncoder) decode(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(e.tokens[runeToIndex(r)])
	}
	return b.String()
}

// Surrogate code points do not survive a string round trip, so they are skipped.
const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF
)

func indexToRune(i int) rune {
	r := rune(i + 1)
	if r >= surrogateMin {
		r += surrogateMax - surrogateMin + 1
	}
	return r
}

func runeToIndex(r rune) int {
	if r > surrogateMax {
		r -= surrogateMax - surrogateMin + 1
	}
	return int(r - 1)
}
