package diff

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWords(t *testing.T) {
	tests := []struct {
		name      string
		original  string
		candidate string
		want      []Segment
	}{
		{
			name:      "both empty",
			original:  "",
			candidate: "",
			want:      []Segment{},
		},
		{
			name:      "identical",
			original:  "the quick brown fox",
			candidate: "the quick brown fox",
			want:      []Segment{{Text: "the quick brown fox", Tag: TagUnchanged}},
		},
		{
			name:      "single word replaced",
			original:  "the quick brown fox",
			candidate: "the slow brown fox",
			want: []Segment{
				{Text: "the ", Tag: TagUnchanged},
				{Text: "quick", Tag: TagRemoved},
				{Text: "slow", Tag: TagAdded},
				{Text: " brown fox", Tag: TagUnchanged},
			},
		},
		{
			name:      "word appended",
			original:  "hello",
			candidate: "hello world",
			want: []Segment{
				{Text: "hello", Tag: TagUnchanged},
				{Text: " world", Tag: TagAdded},
			},
		},
		{
			name:      "everything removed",
			original:  "gone entirely",
			candidate: "",
			want:      []Segment{{Text: "gone entirely", Tag: TagRemoved}},
		},
		{
			name:      "inserted from nothing",
			original:  "",
			candidate: "brand new",
			want:      []Segment{{Text: "brand new", Tag: TagAdded}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Words(tt.original, tt.candidate)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWords_WordGranularity(t *testing.T) {
	// A one-letter edit flags the whole word, never a partial one.
	segments := Words("colour me surprised", "color me surprised")

	for _, s := range segments {
		if s.Tag == TagUnchanged {
			continue
		}
		assert.NotContains(t, []string{"u", "colo", "r"}, s.Text)
	}
	assert.Equal(t, []Segment{
		{Text: "colour", Tag: TagRemoved},
		{Text: "color", Tag: TagAdded},
		{Text: " me surprised", Tag: TagUnchanged},
	}, segments)
}

func TestWords_ReconstructionIdentities(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	vocab := []string{"alpha", "beta", "gamma", "delta", "ελληνικά", "日本語", "x"}
	spaces := []string{" ", "  ", "\n", "\t", " \n "}

	sentence := func() string {
		var b strings.Builder
		n := r.Intn(25)
		if r.Intn(4) == 0 {
			b.WriteString(spaces[r.Intn(len(spaces))])
		}
		for i := 0; i < n; i++ {
			b.WriteString(vocab[r.Intn(len(vocab))])
			if i < n-1 || r.Intn(3) == 0 {
				b.WriteString(spaces[r.Intn(len(spaces))])
			}
		}
		return b.String()
	}

	for i := 0; i < 300; i++ {
		original, candidate := sentence(), sentence()
		segments := Words(original, candidate)

		require.Equal(t, candidate, Candidate(segments), "candidate for %q -> %q", original, candidate)
		require.Equal(t, original, Original(segments), "original for %q -> %q", original, candidate)
		require.Equal(t, segments, Words(original, candidate), "recomputation must be stable")
	}
}

func TestWords_EqualInputsOnlyUnchanged(t *testing.T) {
	for _, s := range []string{"a", "  leading", "trailing  ", "multi\nline\n\ntext", "日本語 テキスト"} {
		for _, seg := range Words(s, s) {
			assert.Equal(t, TagUnchanged, seg.Tag)
		}
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"a", " ", "bc", "\n\n", "d"}, tokenize("a bc\n\nd"))
	assert.Equal(t, []string{"  ", "x", " "}, tokenize("  x "))
	assert.Nil(t, tokenize(""))
}

func TestIndexToRune_SkipsSurrogates(t *testing.T) {
	for _, i := range []int{0, 1, surrogateMin - 2, surrogateMin - 1, surrogateMin, 70000} {
		r := indexToRune(i)
		assert.False(t, r >= surrogateMin && r <= surrogateMax, "index %d mapped into surrogates", i)
		assert.Equal(t, i, runeToIndex(r))
	}
}
