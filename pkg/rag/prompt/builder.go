package prompt

import (
	"strings"

	"ai-ghostwriter-be/pkg/llm"
)

const (
	CompletionOpenTag  = "<completion>"
	CompletionCloseTag = "</completion>"
)

// CompletionBuilder builds the ghost-text prompt: grounding context plus the
// text before the cursor. The model must answer inside <completion> tags.
type CompletionBuilder struct {
	context string
	before  string
	after   string
}

func NewCompletionBuilder(groundingContext, textBeforeCursor, textAfterCursor string) *CompletionBuilder {
	return &CompletionBuilder{
		context: groundingContext,
		before:  textBeforeCursor,
		after:   textAfterCursor,
	}
}

func (b *CompletionBuilder) Build() []llm.Message {
	var system strings.Builder
	b.writeTask(&system)
	b.writeGuidelines(&system)

	var user strings.Builder
	b.writeReferenceMaterial(&user)
	b.writeDocument(&user)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system.String()},
		{Role: llm.RoleUser, Content: user.String()},
	}
}

func (b *CompletionBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a writing assistant that continues the user's text where their cursor is.\n")
	prompt.WriteString("Suggest the next few words or the rest of the sentence, in the user's voice.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *CompletionBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Reply with the continuation only, wrapped as <completion>your text</completion>\n")
	prompt.WriteString("2. Never repeat text that is already before the cursor\n")
	prompt.WriteString("3. Start with a space if the continuation begins a new word\n")
	prompt.WriteString("4. Keep it short: at most one sentence\n")
	prompt.WriteString("5. Prefer facts from the reference material when it is relevant\n")
	prompt.WriteString("</guidelines>\n")
}

func (b *CompletionBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	if strings.TrimSpace(b.context) == "" {
		return
	}
	prompt.WriteString("<reference_material>\n")
	prompt.WriteString(b.context)
	prompt.WriteString("\n</reference_material>\n\n")
}

func (b *CompletionBuilder) writeDocument(prompt *strings.Builder) {
	prompt.WriteString("<text_before_cursor>\n")
	prompt.WriteString(b.before)
	prompt.WriteString("\n</text_before_cursor>\n")
	if b.after != "" {
		prompt.WriteString("\n<text_after_cursor>\n")
		prompt.WriteString(b.after)
		prompt.WriteString("\n</text_after_cursor>\n")
	}
}

// ParseCompletion extracts the suggestion from a raw model response. ok is false
// when the response is not wrapped in <completion>...</completion>. When input
// ends with a space, one leading space of the suggestion is dropped.
func ParseCompletion(raw, input string) (suggestion string, ok bool) {
	start := strings.Index(raw, CompletionOpenTag)
	if start < 0 {
		return "", false
	}
	rest := raw[start+len(CompletionOpenTag):]
	end := strings.Index(rest, CompletionCloseTag)
	if end < 0 {
		return "", false
	}

	suggestion = rest[:end]
	if strings.HasSuffix(input, " ") {
		suggestion = strings.TrimPrefix(suggestion, " ")
	}
	return suggestion, true
}

// ModificationBuilder builds a rewrite prompt for a selected span. The model
// answers with raw replacement text, no sentinel.
type ModificationBuilder struct {
	selection   string
	instruction string
}

func NewModificationBuilder(selection, instruction string) *ModificationBuilder {
	return &ModificationBuilder{selection: selection, instruction: instruction}
}

func (b *ModificationBuilder) Build() []llm.Message {
	var system strings.Builder
	system.WriteString("<task>\n")
	system.WriteString("You rewrite a passage of the user's document according to their instruction.\n")
	system.WriteString("</task>\n\n")
	system.WriteString("<guidelines>\n")
	system.WriteString("1. Reply with the rewritten passage only: no preamble, no quotes, no tags\n")
	system.WriteString("2. Keep the meaning unless the instruction asks otherwise\n")
	system.WriteString("3. Preserve leading and trailing whitespace of the passage\n")
	system.WriteString("</guidelines>\n")

	var user strings.Builder
	user.WriteString("<instruction>\n")
	user.WriteString(b.instruction)
	user.WriteString("\n</instruction>\n\n")
	user.WriteString("<passage>\n")
	user.WriteString(b.selection)
	user.WriteString("\n</passage>\n")

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system.String()},
		{Role: llm.RoleUser, Content: user.String()},
	}
}
