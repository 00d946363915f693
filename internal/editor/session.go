package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-ghostwriter-be/internal/pkg/logger"
	"ai-ghostwriter-be/pkg/diff"
	"ai-ghostwriter-be/pkg/llm"
	"ai-ghostwriter-be/pkg/rag/prompt"
	"ai-ghostwriter-be/pkg/rag/retriever"
)

const module = "EditorSession"

// queryWindow caps how much text before the cursor is sent as the retrieval query.
const queryWindow = 1000

type ContextRetriever interface {
	Retrieve(ctx context.Context, q retriever.Query) (string, error)
}

type ProviderResolver interface {
	Resolve(model string) (llm.LLMProvider, string, error)
}

type Config struct {
	Debounce              time.Duration
	TopK                  int
	Temperature           float64
	CompletionMaxTokens   int
	ModificationMaxTokens int
}

func DefaultConfig() Config {
	return Config{
		Debounce:              300 * time.Millisecond,
		TopK:                  5,
		Temperature:           0.7,
		CompletionMaxTokens:   100,
		ModificationMaxTokens: 1024,
	}
}

type Dependencies struct {
	Retriever ContextRetriever
	Providers ProviderResolver
	Sink      Sink
	Scheduler Scheduler
	Logger    logger.ILogger
}

// Snapshot is a consistent view of a session.
type Snapshot struct {
	ID         string
	OwnerID    string
	Text       string
	Cursor     int
	State      string
	Suggestion *Suggestion
	Sources    []string
	Model      string
}

// Session is the editor state of one open document. All offsets are in runes.
// Every network-backed operation runs in its own goroutine and applies its
// results only while it is still the session's current operation.
type Session struct {
	id      string
	ownerID string
	config  Config
	deps    Dependencies

	mu         sync.Mutex
	doc        []rune
	cursor     int
	op         AiOperation
	suggestion *Suggestion
	seq        uint64
	sources    []string
	model      string
	closed     bool

	debounce    Timer
	debounceGen uint64

	inflight sync.WaitGroup
}

func NewSession(id, ownerID string, config Config, deps Dependencies) *Session {
	if deps.Scheduler == nil {
		deps.Scheduler = RealScheduler()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	if deps.Sink == nil {
		deps.Sink = SinkFunc(func(Event) {})
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultConfig().Debounce
	}
	return &Session{
		id:      id,
		ownerID: ownerID,
		config:  config,
		deps:    deps,
		op:      IdleOp{},
	}
}

func (s *Session) ID() string      { return s.id }
func (s *Session) OwnerID() string { return s.ownerID }

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:      s.id,
		OwnerID: s.ownerID,
		Text:    string(s.doc),
		Cursor:  s.cursor,
		State:   s.op.Name(),
		Sources: append([]string(nil), s.sources...),
		Model:   s.model,
	}
	if s.suggestion != nil {
		sg := *s.suggestion
		snap.Suggestion = &sg
	}
	return snap
}

// Operation returns the pending AI operation.
func (s *Session) Operation() AiOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.op
}

// Configure sets the knowledge sources used to ground completions and the model
// requests are sent to. An empty model selects the registry default.
func (s *Session) Configure(sourceIDs []string, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append([]string(nil), sourceIDs...)
	s.model = model
}

// ApplyChange replaces the document and cursor. Manual changes cancel any
// in-flight completion, clear the shown suggestion and restart the debounce.
// Programmatic changes never schedule a completion. While a modification is
// pending the document is locked and ErrEditLocked is returned.
func (s *Session) ApplyChange(change TextChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if _, ok := s.op.(*ModificationOp); ok {
		return ErrEditLocked
	}

	s.doc = []rune(change.Text)
	s.cursor = clamp(change.Cursor, 0, len(s.doc))

	// A keystroke makes the pending or shown suggestion stale.
	reason := ReasonStale
	if change.Origin == OriginProgrammatic {
		reason = ReasonSuperseded
	}
	s.cancelCompletionLocked(reason)
	s.clearSuggestionLocked(reason)
	s.stopDebounceLocked()

	if change.Origin == OriginManual {
		s.scheduleLocked()
	}
	return nil
}

// MoveCursor repositions the cursor without editing. A shown suggestion is
// anchored to the old position, so it is dropped.
func (s *Session) MoveCursor(cursor int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursor = clamp(cursor, 0, len(s.doc))
	if cursor == s.cursor {
		return
	}
	s.cursor = cursor
	s.cancelCompletionLocked(ReasonRejected)
	s.clearSuggestionLocked(ReasonRejected)
	s.stopDebounceLocked()
}

// AcceptSuggestion splices the shown suggestion in at the cursor (Tab). It
// reports false when there was nothing to accept; any request still in flight
// is cancelled either way.
func (s *Session) AcceptSuggestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopDebounceLocked()
	s.cancelCompletionLocked(ReasonStale)

	sg := s.suggestion
	if sg == nil || sg.Text == "" {
		s.clearSuggestionLocked(ReasonRejected)
		return false
	}

	insert := []rune(sg.Text)
	next := make([]rune, 0, len(s.doc)+len(insert))
	next = append(next, s.doc[:s.cursor]...)
	next = append(next, insert...)
	next = append(next, s.doc[s.cursor:]...)

	s.doc = next
	s.cursor += len(insert)
	s.suggestion = nil

	s.emitLocked(Event{Type: EventSuggestionCleared, Reason: ReasonAccepted})
	s.emitDocumentLocked()
	return true
}

// Dismiss cancels any completion work and clears the suggestion (Escape).
func (s *Session) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopDebounceLocked()
	s.cancelCompletionLocked(ReasonRejected)
	s.clearSuggestionLocked(ReasonRejected)
}

// Stop halts token consumption of the current operation. A streaming
// modification keeps what it has received so far and becomes diff-ready.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopDebounceLocked()
	switch op := s.op.(type) {
	case *CompletionOp:
		s.cancelCompletionLocked(ReasonStopped)
	case *ModificationOp:
		if op.Phase != ModificationStreaming {
			return
		}
		op.cancel()
		op.Phase = ModificationDiffReady
		s.emitStateLocked(ReasonStopped)
	}
}

// RequestModification starts a streamed rewrite of the runes in [start, end).
// Any pending completion or modification is cancelled first.
func (s *Session) RequestModification(start, end int, instruction string) error {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return ErrEmptyInstruction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if start < 0 || end > len(s.doc) || start >= end {
		return fmt.Errorf("%w: [%d, %d) of %d", ErrInvalidSelection, start, end, len(s.doc))
	}

	s.stopDebounceLocked()
	s.cancelCompletionLocked(ReasonSuperseded)
	s.clearSuggestionLocked(ReasonSuperseded)
	if prev, ok := s.op.(*ModificationOp); ok {
		prev.cancel()
		s.op = IdleOp{}
	}

	selection := string(s.doc[start:end])
	op := &ModificationOp{
		flight: s.newFlightLocked(),
		Phase:  ModificationStreaming,
		Request: ModificationRequest{
			Start:       start,
			End:         end,
			Instruction: instruction,
			Selection:   selection,
		},
	}
	op.Diff = diff.Words(selection, "")
	s.op = op

	s.emitStateLocked("")
	s.emitDiffLocked(op)

	model := s.model
	s.inflight.Add(1)
	go s.runModification(op.ctx, op.seq, selection, instruction, model)
	return nil
}

// AcceptModification replaces the original range with the final candidate.
func (s *Session) AcceptModification() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.op.(*ModificationOp)
	if !ok {
		return ErrNoModification
	}
	if op.Phase != ModificationDiffReady {
		return ErrModificationStreaming
	}

	candidate := []rune(op.Candidate)
	next := make([]rune, 0, len(s.doc)-(op.Request.End-op.Request.Start)+len(candidate))
	next = append(next, s.doc[:op.Request.Start]...)
	next = append(next, candidate...)
	next = append(next, s.doc[op.Request.End:]...)

	op.cancel()
	s.op = IdleOp{}
	s.suggestion = nil
	s.doc = next
	s.cursor = op.Request.Start + len(candidate)

	s.emitStateLocked(ReasonAccepted)
	s.emitDocumentLocked()
	return nil
}

// RejectModification discards the candidate. The document is not touched.
// Rejecting mid-stream cancels the request.
func (s *Session) RejectModification() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.op.(*ModificationOp)
	if !ok {
		return ErrNoModification
	}
	op.cancel()
	s.op = IdleOp{}
	s.emitStateLocked(ReasonRejected)
	return nil
}

// Close cancels everything and waits for in-flight requests to unwind.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopDebounceLocked()
	switch op := s.op.(type) {
	case *CompletionOp:
		op.cancel()
	case *ModificationOp:
		op.cancel()
	}
	s.op = IdleOp{}
	s.suggestion = nil
	s.mu.Unlock()

	s.inflight.Wait()
}

// Wait blocks until every request started so far has finished.
func (s *Session) Wait() {
	s.inflight.Wait()
}

func (s *Session) scheduleLocked() {
	s.debounceGen++
	gen := s.debounceGen
	s.debounce = s.deps.Scheduler.AfterFunc(s.config.Debounce, func() {
		s.fireDebounce(gen)
	})
}

func (s *Session) stopDebounceLocked() {
	s.debounceGen++
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}

func (s *Session) fireDebounce(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.debounceGen {
		return
	}
	s.debounce = nil
	if _, idle := s.op.(IdleOp); !idle {
		return
	}

	input := string(s.doc[:s.cursor])
	after := string(s.doc[s.cursor:])
	op := &CompletionOp{
		flight: s.newFlightLocked(),
		Phase:  CompletionRequested,
		Input:  input,
		Cursor: s.cursor,
	}
	s.op = op
	s.emitStateLocked("")

	q := retriever.Query{
		Text:      tail(input, queryWindow),
		OwnerID:   s.ownerID,
		SourceIDs: append([]string(nil), s.sources...),
		TopK:      s.config.TopK,
	}
	model := s.model
	s.inflight.Add(1)
	go s.runCompletion(op.ctx, op.seq, q, input, after, model)
}

func (s *Session) runCompletion(ctx context.Context, seq uint64, q retriever.Query, input, after, model string) {
	defer s.inflight.Done()

	grounding := ""
	if s.deps.Retriever != nil {
		var err error
		grounding, err = s.deps.Retriever.Retrieve(ctx, q)
		if err != nil {
			// Completion proceeds ungrounded.
			s.deps.Logger.Warn(module, "Retrieval failed", map[string]interface{}{
				"session_id": s.id,
				"error":      err,
			})
			grounding = ""
		}
	}
	if ctx.Err() != nil {
		s.dropStale(seq, "completion")
		return
	}

	provider, resolved, err := s.resolve(model)
	if err != nil {
		s.finishCompletion(seq, "", fmt.Errorf("%w: %v", ErrGeneration, err))
		return
	}

	history := prompt.NewCompletionBuilder(grounding, input, after).Build()
	err = provider.Stream(ctx, history, func(token string) error {
		return s.appendCompletion(seq, token)
	},
		llm.WithModel(resolved),
		llm.WithTemperature(s.config.Temperature),
		llm.WithMaxTokens(s.config.CompletionMaxTokens),
	)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	s.finishCompletion(seq, input, err)
}

func (s *Session) appendCompletion(seq uint64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.op.(*CompletionOp)
	if !ok || !op.live(seq) {
		return ErrStaleResponse
	}
	if op.Phase == CompletionRequested {
		op.Phase = CompletionStreaming
		s.emitStateLocked("")
	}
	op.raw.WriteString(token)
	return nil
}

func (s *Session) finishCompletion(seq uint64, input string, genErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.op.(*CompletionOp)
	if !ok || !op.live(seq) {
		s.logStaleLocked(seq, "completion")
		return
	}
	op.cancel()
	s.op = IdleOp{}

	if genErr != nil {
		s.deps.Logger.Error(module, "Completion failed", map[string]interface{}{
			"session_id": s.id,
			"error":      genErr,
		})
		s.emitStateLocked(ReasonErrored)
		s.emitLocked(Event{Type: EventError, Error: genErr.Error()})
		return
	}

	text, parsed := prompt.ParseCompletion(op.raw.String(), input)
	if !parsed {
		s.deps.Logger.Debug(module, "Completion dropped", map[string]interface{}{
			"session_id": s.id,
			"error":      ErrMalformedResponse,
		})
	}
	s.suggestion = &Suggestion{Text: text, Cursor: op.Cursor}
	s.emitStateLocked("")
	s.emitLocked(Event{Type: EventSuggestion, Suggestion: text, Cursor: op.Cursor})
}

func (s *Session) runModification(ctx context.Context, seq uint64, selection, instruction, model string) {
	defer s.inflight.Done()

	provider, resolved, err := s.resolve(model)
	if err != nil {
		s.finishModification(seq, fmt.Errorf("%w: %v", ErrGeneration, err))
		return
	}

	history := prompt.NewModificationBuilder(selection, instruction).Build()
	err = provider.Stream(ctx, history, func(token string) error {
		return s.appendModification(seq, token)
	},
		llm.WithModel(resolved),
		llm.WithTemperature(s.config.Temperature),
		llm.WithMaxTokens(s.config.ModificationMaxTokens),
	)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	s.finishModification(seq, err)
}

func (s *Session) appendModification(seq uint64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.op.(*ModificationOp)
	if !ok || !op.live(seq) || op.Phase != ModificationStreaming {
		return ErrStaleResponse
	}
	op.Candidate += token
	op.Diff = diff.Words(op.Request.Selection, op.Candidate)
	s.emitDiffLocked(op)
	return nil
}

func (s *Session) finishModification(seq uint64, genErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.op.(*ModificationOp)
	if !ok || !op.live(seq) || op.Phase != ModificationStreaming {
		s.logStaleLocked(seq, "modification")
		return
	}

	if genErr != nil {
		// A failed rewrite is an implicit reject.
		op.cancel()
		s.op = IdleOp{}
		s.deps.Logger.Error(module, "Modification failed", map[string]interface{}{
			"session_id": s.id,
			"error":      genErr,
		})
		s.emitStateLocked(ReasonErrored)
		s.emitLocked(Event{Type: EventError, Error: genErr.Error()})
		return
	}

	op.Phase = ModificationDiffReady
	s.emitStateLocked("")
	s.emitDiffLocked(op)
}

func (s *Session) resolve(model string) (llm.LLMProvider, string, error) {
	if s.deps.Providers == nil {
		return nil, "", errors.New("no generation provider configured")
	}
	return s.deps.Providers.Resolve(model)
}

func (s *Session) dropStale(seq uint64, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logStaleLocked(seq, kind)
}

func (s *Session) logStaleLocked(seq uint64, kind string) {
	s.deps.Logger.Debug(module, "Dropped response", map[string]interface{}{
		"session_id": s.id,
		"operation":  kind,
		"seq":        seq,
		"error":      ErrStaleResponse,
	})
}

func (s *Session) newFlightLocked() flight {
	s.seq++
	ctx, cancel := context.WithCancel(context.Background())
	return flight{seq: s.seq, ctx: ctx, cancel: cancel}
}

func (s *Session) cancelCompletionLocked(reason string) {
	op, ok := s.op.(*CompletionOp)
	if !ok {
		return
	}
	op.cancel()
	s.op = IdleOp{}
	s.emitStateLocked(reason)
}

func (s *Session) clearSuggestionLocked(reason string) {
	if s.suggestion == nil {
		return
	}
	s.suggestion = nil
	s.emitLocked(Event{Type: EventSuggestionCleared, Reason: reason})
}

func (s *Session) emitLocked(e Event) {
	e.SessionID = s.id
	if e.Cursor == 0 {
		e.Cursor = s.cursor
	}
	s.deps.Sink.Emit(e)
}

func (s *Session) emitStateLocked(reason string) {
	s.emitLocked(Event{Type: EventState, State: s.op.Name(), Reason: reason})
}

func (s *Session) emitDocumentLocked() {
	s.emitLocked(Event{Type: EventDocument, Text: string(s.doc), Cursor: s.cursor})
}

func (s *Session) emitDiffLocked(op *ModificationOp) {
	s.emitLocked(Event{
		Type:  EventDiff,
		State: op.Name(),
		Start: op.Request.Start,
		End:   op.Request.End,
		Diff:  op.Diff,
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// IsClientError reports whether err stems from a request the client can fix.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEditLocked) ||
		errors.Is(err, ErrInvalidSelection) ||
		errors.Is(err, ErrEmptyInstruction) ||
		errors.Is(err, ErrNoModification) ||
		errors.Is(err, ErrModificationStreaming)
}
