package service

import (
	"ai-ghostwriter-be/internal/editor"
	"ai-ghostwriter-be/internal/entity"
	"ai-ghostwriter-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// SessionStore keeps live editor sessions.
type SessionStore interface {
	Save(session *editor.Session)
	Get(sessionID string) (*editor.Session, bool)
	Delete(sessionID string)
	Count() int
}

// SinkFactory builds the event sink for a new session.
type SinkFactory func(sessionID string) editor.Sink

type IEditorService interface {
	// Open resumes an owned session, or starts a new one when sessionID is
	// empty or unknown.
	Open(ownerID, sessionID string) (*editor.Session, error)
	Get(ownerID, sessionID string) (*editor.Session, error)
	Close(ownerID, sessionID string) error
}

type editorService struct {
	store     SessionStore
	config    editor.Config
	retriever editor.ContextRetriever
	providers editor.ProviderResolver
	sinks     SinkFactory
	logger    logger.ILogger
}

func NewEditorService(
	store SessionStore,
	config editor.Config,
	retriever editor.ContextRetriever,
	providers editor.ProviderResolver,
	sinks SinkFactory,
	log logger.ILogger,
) IEditorService {
	return &editorService{
		store:     store,
		config:    config,
		retriever: retriever,
		providers: providers,
		sinks:     sinks,
		logger:    log,
	}
}

func (s *editorService) Open(ownerID, sessionID string) (*editor.Session, error) {
	if sessionID != "" {
		if session, ok := s.store.Get(sessionID); ok {
			if session.OwnerID() != ownerID {
				return nil, entity.ErrEditorSessionNotFound
			}
			return session, nil
		}
	} else {
		sessionID = uuid.NewString()
	}

	deps := editor.Dependencies{
		Retriever: s.retriever,
		Providers: s.providers,
		Logger:    s.logger,
	}
	if s.sinks != nil {
		deps.Sink = s.sinks(sessionID)
	}

	session := editor.NewSession(sessionID, ownerID, s.config, deps)
	s.store.Save(session)
	s.logger.Info("EditorService", "Editor session opened", map[string]interface{}{
		"session_id": sessionID,
		"owner_id":   ownerID,
		"live":       s.store.Count(),
	})
	return session, nil
}

func (s *editorService) Get(ownerID, sessionID string) (*editor.Session, error) {
	session, ok := s.store.Get(sessionID)
	if !ok || session.OwnerID() != ownerID {
		return nil, entity.ErrEditorSessionNotFound
	}
	return session, nil
}

func (s *editorService) Close(ownerID, sessionID string) error {
	if _, err := s.Get(ownerID, sessionID); err != nil {
		return err
	}
	s.store.Delete(sessionID)
	return nil
}
