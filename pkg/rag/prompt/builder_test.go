package prompt

import (
	"strings"
	"testing"

	"ai-ghostwriter-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompletion(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		input  string
		want   string
		wantOk bool
	}{
		{
			name:   "leading space de-duplicated",
			raw:    "<completion> world</completion>",
			input:  "hello ",
			want:   "world",
			wantOk: true,
		},
		{
			name:   "leading space kept when input has none",
			raw:    "<completion> world</completion>",
			input:  "hello",
			want:   " world",
			wantOk: true,
		},
		{
			name:   "only one space trimmed",
			raw:    "<completion>  world</completion>",
			input:  "hello ",
			want:   " world",
			wantOk: true,
		},
		{
			name:   "surrounding chatter ignored",
			raw:    "Sure! <completion>and then some</completion> hope that helps",
			input:  "first ",
			want:   "and then some",
			wantOk: true,
		},
		{
			name:   "missing tags",
			raw:    "and then some",
			input:  "first ",
			wantOk: false,
		},
		{
			name:   "unterminated",
			raw:    "<completion>and then",
			input:  "first ",
			wantOk: false,
		},
		{
			name:   "close before open",
			raw:    "</completion>text<completion>",
			input:  "",
			wantOk: false,
		},
		{
			name:   "empty completion",
			raw:    "<completion></completion>",
			input:  "x",
			want:   "",
			wantOk: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCompletion(tt.raw, tt.input)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompletionBuilder(t *testing.T) {
	t.Run("with reference material", func(t *testing.T) {
		msgs := NewCompletionBuilder("Paris is the capital.", "The capital of France is", "").Build()
		require.Len(t, msgs, 2)
		assert.Equal(t, llm.RoleSystem, msgs[0].Role)
		assert.Contains(t, msgs[0].Content, CompletionOpenTag)
		assert.Contains(t, msgs[1].Content, "<reference_material>\nParis is the capital.")
		assert.Contains(t, msgs[1].Content, "The capital of France is")
		assert.NotContains(t, msgs[1].Content, "<text_after_cursor>")
	})

	t.Run("without reference material", func(t *testing.T) {
		msgs := NewCompletionBuilder("  ", "Dear team,", "Regards").Build()
		assert.False(t, strings.Contains(msgs[1].Content, "<reference_material>"))
		assert.Contains(t, msgs[1].Content, "<text_after_cursor>\nRegards")
	})
}

func TestModificationBuilder(t *testing.T) {
	msgs := NewModificationBuilder("teh cat sat", "fix typos").Build()
	require.Len(t, msgs, 2)
	assert.NotContains(t, msgs[0].Content, CompletionOpenTag)
	assert.Contains(t, msgs[1].Content, "fix typos")
	assert.Contains(t, msgs[1].Content, "teh cat sat")
}
