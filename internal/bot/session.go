package bot

import (
	"fmt"
	"log"
	"time"

	cache "github.com/patrickmn/go-cache"

	"semantist/internal/models"
)

// SessionManager keeps one session per chat with TTL eviction. Eviction of an
// abandoned session cancels any pipeline it still owns.
type SessionManager struct {
	sessions *cache.Cache
}

// NewSessionManager creates the session store. ttl bounds how long an idle
// conversation keeps its state.
func NewSessionManager(ttl time.Duration) *SessionManager {
	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(key string, value interface{}) {
		if session, ok := value.(*models.Session); ok {
			log.Printf("🧹 [SESSION] Evicting idle session for chat %s", key)
			session.Lock()
			session.EndPipeline()
			session.Unlock()
		}
	})
	return &SessionManager{sessions: c}
}

// Get returns the chat's session, creating it on first contact. Every access
// refreshes the TTL.
func (m *SessionManager) Get(chatID int64) *models.Session {
	key := fmt.Sprintf("%d", chatID)
	if cached, found := m.sessions.Get(key); found {
		session := cached.(*models.Session)
		m.sessions.SetDefault(key, session)
		return session
	}

	session := models.NewSession(chatID)
	m.sessions.SetDefault(key, session)
	return session
}

// Count reports live sessions, for the health endpoint.
func (m *SessionManager) Count() int {
	return m.sessions.ItemCount()
}
