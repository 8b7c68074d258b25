package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
)

type Store interface {
	Load(ctx context.Context, userID int64) (model.Session, error)
	Save(ctx context.Context, session model.Session) error
	Clear(ctx context.Context, userID int64) error
}

// MemoryStore is the in-process fallback used when Redis is not configured.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[int64]model.Session
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[int64]model.Session),
	}
}

func (s *MemoryStore) Load(_ context.Context, userID int64) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return model.NewSession(userID), nil
	}
	if s.ttl > 0 && s.now().Sub(session.UpdatedAt) > s.ttl {
		delete(s.sessions, userID)
		return model.NewSession(userID), nil
	}
	session.Queue.IDs = append([]int64(nil), session.Queue.IDs...)
	return session, nil
}

func (s *MemoryStore) Save(_ context.Context, session model.Session) error {
	if session.UserID <= 0 {
		return fmt.Errorf("session user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session.UpdatedAt = s.now()
	session.Queue.IDs = append([]int64(nil), session.Queue.IDs...)
	s.sessions[session.UserID] = session
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}
