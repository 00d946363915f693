package editor

import (
	"context"
	"strings"

	"ai-ghostwriter-be/pkg/diff"
)

// Origin tags every text change. Only manual changes schedule a completion;
// programmatic ones (accepting a suggestion or a rewrite) never do.
type Origin int

const (
	OriginManual Origin = iota
	OriginProgrammatic
)

func (o Origin) String() string {
	if o == OriginProgrammatic {
		return "programmatic"
	}
	return "manual"
}

type TextChange struct {
	Text   string
	Cursor int
	Origin Origin
}

type CompletionPhase string

const (
	CompletionRequested CompletionPhase = "requested"
	CompletionStreaming CompletionPhase = "streaming"
)

type ModificationPhase string

const (
	ModificationStreaming ModificationPhase = "streaming"
	ModificationDiffReady ModificationPhase = "diff_ready"
)

// AiOperation is the single pending AI operation of a session: IdleOp,
// *CompletionOp or *ModificationOp. Holding one value enforces that at most
// one of them is active.
type AiOperation interface {
	Name() string
	isAiOperation()
}

type IdleOp struct{}

func (IdleOp) Name() string   { return "idle" }
func (IdleOp) isAiOperation() {}

// flight identifies one network-backed operation. seq orders operations within
// a session; cancel aborts the provider call.
type flight struct {
	seq    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// live reports whether results for seq may still be applied.
func (f *flight) live(seq uint64) bool {
	return f.seq == seq && f.ctx.Err() == nil
}

type CompletionOp struct {
	flight
	Phase CompletionPhase
	// Input is the text before the cursor when the request was made.
	Input  string
	Cursor int
	raw    strings.Builder
}

func (op *CompletionOp) Name() string { return "completion_" + string(op.Phase) }
func (*CompletionOp) isAiOperation()  {}

// ModificationRequest is a rewrite of the runes in [Start, End).
type ModificationRequest struct {
	Start       int
	End         int
	Instruction string
	Selection   string
}

type ModificationOp struct {
	flight
	Phase     ModificationPhase
	Request   ModificationRequest
	Candidate string
	Diff      []diff.Segment
}

func (op *ModificationOp) Name() string { return "modification_" + string(op.Phase) }
func (*ModificationOp) isAiOperation()  {}

// Suggestion is ghost text shown at Cursor, not yet part of the document.
type Suggestion struct {
	Text   string
	Cursor int
}
