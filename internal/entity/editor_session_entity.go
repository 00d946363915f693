package entity

import "errors"

// Editor sessions live in process memory only; see memory.EditorSessionRepository.
var ErrEditorSessionNotFound = errors.New("editor session not found")
