package memory

import (
	"time"

	"ai-ghostwriter-be/internal/editor"

	"github.com/patrickmn/go-cache"
)

// EditorSessionRepository keeps live editor sessions in process. Sessions that
// are not touched for the idle period are evicted and closed.
type EditorSessionRepository struct {
	cache *cache.Cache
	idle  time.Duration
}

func NewEditorSessionRepository(idle time.Duration) *EditorSessionRepository {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	c := cache.New(idle, idle/3)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*editor.Session); ok {
			go s.Close()
		}
	})
	return &EditorSessionRepository{
		cache: c,
		idle:  idle,
	}
}

func (r *EditorSessionRepository) Save(session *editor.Session) {
	r.cache.Set(session.ID(), session, cache.DefaultExpiration)
}

// Get returns the session and extends its lifetime.
func (r *EditorSessionRepository) Get(sessionID string) (*editor.Session, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	s := x.(*editor.Session)
	r.cache.Set(sessionID, s, cache.DefaultExpiration)
	return s, true
}

// Delete removes and closes the session.
func (r *EditorSessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *EditorSessionRepository) Count() int {
	return r.cache.ItemCount()
}
