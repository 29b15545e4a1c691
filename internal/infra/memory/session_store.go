package memory

import (
	"sync"

	"risk-assessment-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.SessionController
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.SessionController),
	}
}

func (s *SessionStore) GetOrCreate(patientID string, create func() *app.SessionController) *app.SessionController {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctrl, ok := s.sessions[patientID]; ok {
		return ctrl
	}
	ctrl := create()
	s.sessions[patientID] = ctrl
	return ctrl
}

func (s *SessionStore) Get(patientID string) (*app.SessionController, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctrl, ok := s.sessions[patientID]
	return ctrl, ok
}

func (s *SessionStore) Delete(patientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, patientID)
}

// Len reports how many patients hold a session.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
