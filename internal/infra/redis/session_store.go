package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"risk-assessment-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Controllers still live in a local map; their state machine is in-process.
//   - Redis carries a liveness marker per patient and a mirror of the answers
//     recorded so far, so operators can see progress across instances.
type SessionStore struct {
	client    *redis.Client
	ttl       time.Duration
	opTimeout time.Duration
	mu        sync.RWMutex
	sessions  map[string]*app.SessionController
}

// StoreOption customizes a SessionStore.
type StoreOption func(*SessionStore)

// WithOpTimeout bounds the marker writes made by GetOrCreate and Delete.
func WithOpTimeout(d time.Duration) StoreOption {
	return func(s *SessionStore) {
		if d > 0 {
			s.opTimeout = d
		}
	}
}

func NewSessionStore(client *redis.Client, ttl time.Duration, opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		client:    client,
		ttl:       ttl,
		opTimeout: 2 * time.Second,
		sessions:  make(map[string]*app.SessionController),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SessionStore) GetOrCreate(patientID string, create func() *app.SessionController) *app.SessionController {
	s.mu.Lock()
	if ctrl, ok := s.sessions[patientID]; ok {
		s.mu.Unlock()
		return ctrl
	}
	ctrl := create()
	s.sessions[patientID] = ctrl
	s.mu.Unlock()

	// best-effort liveness marker, written outside the lock
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()
	_ = s.client.Set(ctx, s.sessionKey(patientID), "1", s.ttl).Err()
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
	delete(s.sessions, patientID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()
	_ = s.client.Del(ctx, s.sessionKey(patientID), s.answersKey(patientID)).Err()
}

// RecordAnswer implements app.AnswerRecorder.
//
//	HSET assessment:answers:{patientID} {questionID} {answer}
func (s *SessionStore) RecordAnswer(ctx context.Context, patientID, questionID, answer string) error {
	key := s.answersKey(patientID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, questionID, answer)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
		pipe.Expire(ctx, s.sessionKey(patientID), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// ClearAnswers implements app.AnswerRecorder.
func (s *SessionStore) ClearAnswers(ctx context.Context, patientID string) error {
	return s.client.Del(ctx, s.answersKey(patientID)).Err()
}

// Answers returns the mirrored answers for a patient.
func (s *SessionStore) Answers(ctx context.Context, patientID string) (map[string]string, error) {
	return s.client.HGetAll(ctx, s.answersKey(patientID)).Result()
}

func (s *SessionStore) sessionKey(patientID string) string {
	return "assessment:session:" + patientID
}

func (s *SessionStore) answersKey(patientID string) string {
	return "assessment:answers:" + patientID
}
