package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/metrics"
	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/SAP-F-2025/lesson-service/internal/repositories"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// SessionMemory is a process-local SessionStore. Sessions are stored as
// JSON so callers never share state with the store. Expired sessions are
// swept on Save at most once per TTL.
type SessionMemory struct {
	mu        sync.RWMutex
	sessions  map[string]entry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewSessionMemory(ttl time.Duration) *SessionMemory {
	return &SessionMemory{
		sessions: map[string]entry{},
		ttl:      ttl,
		now:      time.Now,
	}
}

var _ repositories.SessionStore = (*SessionMemory)(nil)

func (m *SessionMemory) Save(ctx context.Context, session *models.LessonSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweepLocked(now)
	m.sessions[session.ID] = entry{data: data, expiresAt: now.Add(m.ttl)}
	return nil
}

// sweepLocked drops expired sessions. Callers hold the write lock.
func (m *SessionMemory) sweepLocked(now time.Time) {
	if m.ttl <= 0 || now.Sub(m.lastSweep) < m.ttl {
		return
	}
	m.lastSweep = now

	expired := 0
	for id, e := range m.sessions {
		if e.expired(now) {
			delete(m.sessions, id)
			expired++
		}
	}
	metrics.SessionsExpired(expired)
}

func (m *SessionMemory) Get(ctx context.Context, id string) (*models.LessonSession, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	if m.ttl > 0 && e.expired(m.now()) {
		// A concurrent Save may have refreshed the entry since the read.
		m.mu.Lock()
		e, ok = m.sessions[id]
		if ok && e.expired(m.now()) {
			delete(m.sessions, id)
			metrics.SessionsExpired(1)
			ok = false
		}
		m.mu.Unlock()
		if !ok {
			return nil, repositories.ErrSessionNotFound
		}
	}

	var session models.LessonSession
	if err := json.Unmarshal(e.data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (m *SessionMemory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return repositories.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}
