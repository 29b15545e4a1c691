package app_test

import (
	"context"
	"errors"
	"sync"

	"risk-assessment-service/internal/domain"
)

var errBackendDown = errors.New("dial tcp: connection refused")

type staticSource struct {
	questions []domain.Question
	err       error
	calls     int
}

func (s *staticSource) LoadQuestions(_ context.Context, _ string) ([]domain.Question, error) {
	s.calls++
	return s.questions, s.err
}

// fakeRemote records backend calls. A non-nil gate blocks StartSession,
// SubmitResponse or CompleteSession until it is closed.
type fakeRemote struct {
	mu sync.Mutex

	sessionID      string
	startErr       error
	submitErr      error
	completeErr    error
	classification *domain.Classification

	startGate    chan struct{}
	submitGate   chan struct{}
	completeGate chan struct{}
	entered      chan struct{}

	starts    int
	submits   []string
	completes int
}

func (f *fakeRemote) StartSession(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	f.starts++
	gate := f.startGate
	f.mu.Unlock()
	if gate != nil {
		f.signal()
		<-gate
	}
	return f.sessionID, f.startErr
}

func (f *fakeRemote) SubmitResponse(_ context.Context, _, _, questionID, _ string) error {
	f.mu.Lock()
	f.submits = append(f.submits, questionID)
	gate := f.submitGate
	f.mu.Unlock()
	if gate != nil {
		f.signal()
		<-gate
	}
	return f.submitErr
}

func (f *fakeRemote) CompleteSession(_ context.Context, _, _ string) (*domain.Classification, error) {
	f.mu.Lock()
	f.completes++
	gate := f.completeGate
	result, err := f.classification, f.completeErr
	f.mu.Unlock()
	if gate != nil {
		f.signal()
		<-gate
	}
	return result, err
}

func (f *fakeRemote) signal() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
}

func (f *fakeRemote) completeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completes
}

func failingRemote() *fakeRemote {
	return &fakeRemote{startErr: errBackendDown, submitErr: errBackendDown, completeErr: errBackendDown}
}

func (r *recordingSync) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.persist)
}

type recordingSync struct {
	mu      sync.Mutex
	err     error
	persist []domain.Classification
	ids     []string
}

func (r *recordingSync) Persist(_ context.Context, sessionID, patientID string, c domain.Classification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persist = append(r.persist, c)
	r.ids = append(r.ids, sessionID+"/"+patientID)
	return r.err
}
