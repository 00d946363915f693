package utils

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultSeparators is ordered from the largest semantic unit to the smallest.
// The empty separator splits into single characters and is the hard-cut fallback.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// SplitText splits text into chunks of at most chunkSize characters (runes).
// Every chunk after the first starts with the trailing overlap characters of the previous chunk.
func SplitText(text string, chunkSize int, overlap int) []string {
	return NewRecursiveSplitter(WithChunkSize(chunkSize), WithOverlap(overlap)).Split(text)
}

// RecursiveSplitter breaks text at the largest separator that keeps pieces within budget,
// recursing into oversized pieces with progressively smaller separators.
type RecursiveSplitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

type SplitterOption func(*RecursiveSplitter)

func WithChunkSize(size int) SplitterOption {
	return func(s *RecursiveSplitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

func WithOverlap(overlap int) SplitterOption {
	return func(s *RecursiveSplitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

func WithSeparators(separators ...string) SplitterOption {
	return func(s *RecursiveSplitter) {
		if len(separators) > 0 {
			s.separators = separators
		}
	}
}

func NewRecursiveSplitter(opts ...SplitterOption) *RecursiveSplitter {
	s := &RecursiveSplitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}
	// The character separator must always be available as the last resort.
	if s.separators[len(s.separators)-1] != "" {
		s.separators = append(append([]string{}, s.separators...), "")
	}
	return s
}

func (s *RecursiveSplitter) ChunkSize() int { return s.chunkSize }
func (s *RecursiveSplitter) Overlap() int   { return s.overlap }

// Span is a half-open rune range [Start, End) of the source text.
type Span struct {
	Start int
	End   int
}

// Split returns the chunk texts in source order. Empty input yields one empty chunk.
func (s *RecursiveSplitter) Split(text string) []string {
	runes := []rune(text)
	spans := s.spans(runes)

	chunks := make([]string, len(spans))
	for i, sp := range spans {
		chunks[i] = string(runes[sp.Start:sp.End])
	}
	return chunks
}

// Spans returns the rune ranges Split would produce.
func (s *RecursiveSplitter) Spans(text string) []Span {
	return s.spans([]rune(text))
}

// piece is an atomic range produced by decomposition. level is the separator index
// that produced the boundary at end; lower is a better place to cut.
type piece struct {
	end   int
	level int
}

func (s *RecursiveSplitter) spans(runes []rune) []Span {
	total := len(runes)
	if total <= s.chunkSize {
		return []Span{{Start: 0, End: total}}
	}

	// Pieces never exceed chunkSize-overlap, so a later chunk can always take
	// at least one whole piece after its overlap prefix.
	budget := s.chunkSize - s.overlap
	pieces := make([]piece, 0, total/budget+1)
	s.decompose(runes, 0, total, 0, -1, budget, &pieces)

	var spans []Span
	start := 0
	next := 0 // index of the first piece ending after start+overlap
	for {
		if total-start <= s.chunkSize {
			spans = append(spans, Span{Start: start, End: total})
			return spans
		}

		// Cutting after start+overlap keeps the next chunk's start moving forward.
		lo, hi := start+s.overlap, start+s.chunkSize

		for next < len(pieces) && pieces[next].end <= lo {
			next++
		}

		cut, cutLevel := -1, len(s.separators)
		for i := next; i < len(pieces) && pieces[i].end <= hi; i++ {
			if pieces[i].level <= cutLevel {
				cut, cutLevel = pieces[i].end, pieces[i].level
			}
		}
		if cut < 0 {
			cut = hi
		}

		spans = append(spans, Span{Start: start, End: cut})
		start = cut - s.overlap
	}
}

// decompose splits [start, end) on separators[depth]; pieces still over budget
// are split again with the next separator.
func (s *RecursiveSplitter) decompose(runes []rune, start, end, depth, endLevel, budget int, out *[]piece) {
	if end-start <= budget {
		*out = append(*out, piece{end: end, level: endLevel})
		return
	}

	sep := []rune(s.separators[depth])
	if len(sep) == 0 {
		for p := start + 1; p < end; p++ {
			*out = append(*out, piece{end: p, level: depth})
		}
		*out = append(*out, piece{end: end, level: endLevel})
		return
	}

	pieceStart := start
	for p := start; p+len(sep) <= end; {
		if !hasRunesAt(runes, p, sep) {
			p++
			continue
		}
		boundary := p + len(sep)
		if boundary < end {
			s.decompose(runes, pieceStart, boundary, depth+1, depth, budget, out)
			pieceStart = boundary
		}
		p = boundary
	}
	s.decompose(runes, pieceStart, end, depth+1, endLevel, budget, out)
}

func hasRunesAt(runes []rune, at int, sep []rune) bool {
	for i, r := range sep {
		if runes[at+i] != r {
			return false
		}
	}
	return true
}
