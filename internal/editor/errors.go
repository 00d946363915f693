package editor

import "errors"

var (
	// ErrGeneration: the provider request failed or broke off mid-stream.
	ErrGeneration = errors.New("generation failed")
	// ErrMalformedResponse: ghost-text output without <completion> tags. Treated as no suggestion.
	ErrMalformedResponse = errors.New("malformed completion response")
	// ErrStaleResponse: output for an operation that was cancelled or superseded.
	ErrStaleResponse = errors.New("stale response")

	ErrEditLocked            = errors.New("document is locked while a modification is pending")
	ErrInvalidSelection      = errors.New("invalid selection range")
	ErrEmptyInstruction      = errors.New("instruction is required")
	ErrNoModification        = errors.New("no modification pending")
	ErrModificationStreaming = errors.New("modification is still streaming")
	ErrSessionClosed         = errors.New("editor session closed")
)
