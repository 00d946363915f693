package utils

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reconstruct(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		b.WriteString(string([]rune(c)[overlap:]))
	}
	return b.String()
}

func randomProse(r *rand.Rand, words int) string {
	vocab := []string{"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog", "écrit", "naïve", "ghost", "text"}
	var b strings.Builder
	for i := 0; i < words; i++ {
		b.WriteString(vocab[r.Intn(len(vocab))])
		switch r.Intn(20) {
		case 0:
			b.WriteString(".\n\n")
		case 1:
			b.WriteString("\n")
		case 2:
			b.WriteString(". ")
		default:
			b.WriteString(" ")
		}
	}
	return b.String()
}

func TestNewRecursiveSplitter(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		s := NewRecursiveSplitter()
		assert.Equal(t, DefaultChunkSize, s.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, s.Overlap())
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		s := NewRecursiveSplitter(WithChunkSize(100), WithOverlap(150))
		assert.Less(t, s.Overlap(), s.ChunkSize())
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		s := NewRecursiveSplitter(WithChunkSize(0), WithOverlap(-1))
		assert.Equal(t, DefaultChunkSize, s.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, s.Overlap())
	})
}

func TestSplitText_EmptyInput(t *testing.T) {
	chunks := SplitText("", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0])
}

func TestSplitText_ShortInput(t *testing.T) {
	chunks := SplitText("hello world", 1000, 200)
	assert.Equal(t, []string{"hello world"}, chunks)
}

func TestSplitText_PlainTextSource(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 100)[:2500]
	require.Equal(t, 2500, len(text))

	chunks := SplitText(text, 1000, 200)

	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 1000, "chunk %d too long", i)
	}
	first := chunks[0]
	assert.True(t, strings.HasPrefix(chunks[1], first[len(first)-200:]))
	assert.Equal(t, text, reconstruct(chunks, 200))
}

func TestSplitText_HardCutWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 2500)

	s := NewRecursiveSplitter(WithChunkSize(1000), WithOverlap(200))
	assert.Equal(t, []Span{{0, 1000}, {800, 1800}, {1600, 2500}}, s.Spans(text))
}

func TestSplitText_CustomSeparators(t *testing.T) {
	text := strings.Repeat("abcdefgh|", 20)

	s := NewRecursiveSplitter(WithChunkSize(40), WithOverlap(0), WithSeparators("|", ""))
	chunks := s.Split(text)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 40)
		assert.True(t, strings.HasSuffix(c, "|"))
	}
	assert.Equal(t, text, reconstruct(chunks, 0))
}

func TestSplitText_PrefersParagraphBoundary(t *testing.T) {
	para := strings.Repeat("a ", 200)
	text := para + "\n\n" + para + "\n\n" + para

	chunks := SplitText(text, 1000, 100)

	require.Len(t, chunks, 2)
	assert.Equal(t, 804, len(chunks[0]))
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"))
	assert.Equal(t, text, reconstruct(chunks, 100))
}

func TestSplitText_PrefersSentenceOverWord(t *testing.T) {
	sentence := strings.Repeat("word ", 30) + "end. "
	text := strings.Repeat(sentence, 10)

	chunks := SplitText(text, 400, 50)
	for i, c := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(c, ". "), "chunk %d should end at a sentence: %q", i, c[len(c)-10:])
	}
}

func TestSplitText_MultiByteRunes(t *testing.T) {
	text := strings.Repeat("é", 1500)

	chunks := SplitText(text, 1000, 200)

	require.Len(t, chunks, 2)
	assert.Equal(t, 1000, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, text, reconstruct(chunks, 200))
}

func TestSplitText_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	sizes := []struct {
		chunkSize int
		overlap   int
	}{
		{1000, 200},
		{300, 50},
		{120, 0},
		{64, 63},
		{50, 10},
	}

	for _, sz := range sizes {
		for round := 0; round < 20; round++ {
			text := randomProse(r, r.Intn(600))
			s := NewRecursiveSplitter(WithChunkSize(sz.chunkSize), WithOverlap(sz.overlap))
			chunks := s.Split(text)

			require.NotEmpty(t, chunks)
			for _, c := range chunks {
				require.LessOrEqual(t, utf8.RuneCountInString(c), s.ChunkSize())
			}
			for i := 1; i < len(chunks); i++ {
				prev := []rune(chunks[i-1])
				tail := string(prev[len(prev)-s.Overlap():])
				require.True(t, strings.HasPrefix(chunks[i], tail))
			}
			require.Equal(t, text, reconstruct(chunks, s.Overlap()))
		}
	}
}
