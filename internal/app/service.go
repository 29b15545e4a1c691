package app

import (
	"context"
	"log/slog"
	"time"

	"risk-assessment-service/internal/domain"
)

// SessionRepository abstracts where per-patient controllers live (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(patientID string, create func() *SessionController) *SessionController
	Get(patientID string) (*SessionController, bool)
	Delete(patientID string)
}

// ProfileStatusChecker reports whether a patient already completed the classification profile.
type ProfileStatusChecker interface {
	ProfileCompleted(ctx context.Context, patientID string) (bool, error)
}

// AssessmentService holds one questionnaire session per patient.
type AssessmentService struct {
	sessions SessionRepository
	deps     ControllerDeps
	status   ProfileStatusChecker
	logger   *slog.Logger
}

func NewAssessmentService(sessions SessionRepository, deps ControllerDeps, status ProfileStatusChecker) *AssessmentService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.RemoteTimeout <= 0 {
		deps.RemoteTimeout = 10 * time.Second
	}
	return &AssessmentService{sessions: sessions, deps: deps, status: status, logger: logger}
}

func (s *AssessmentService) controller(patientID string) *SessionController {
	return s.sessions.GetOrCreate(normalizePatient(patientID), func() *SessionController {
		return NewSessionController(normalizePatient(patientID), s.deps)
	})
}

// Begin starts (or restarts) the patient's questionnaire.
func (s *AssessmentService) Begin(ctx context.Context, patientID string) (domain.Snapshot, error) {
	return s.controller(patientID).Start(ctx)
}

// Answer submits one answer to the patient's running session.
func (s *AssessmentService) Answer(ctx context.Context, patientID, questionID, answer string) (domain.Snapshot, error) {
	ctrl, ok := s.sessions.Get(normalizePatient(patientID))
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return ctrl.SubmitAnswer(ctx, questionID, answer)
}

// Finish completes the session early or returns the stored result.
func (s *AssessmentService) Finish(ctx context.Context, patientID string) (domain.Snapshot, error) {
	ctrl, ok := s.sessions.Get(normalizePatient(patientID))
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return ctrl.Complete(ctx)
}

// Status returns the patient's session snapshot.
func (s *AssessmentService) Status(_ context.Context, patientID string) (domain.Snapshot, error) {
	ctrl, ok := s.sessions.Get(normalizePatient(patientID))
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return ctrl.Snapshot(), nil
}

// Abandon resets the session and drops it.
func (s *AssessmentService) Abandon(ctx context.Context, patientID string) {
	patientID = normalizePatient(patientID)
	ctrl, ok := s.sessions.Get(patientID)
	if !ok {
		return
	}
	ctrl.Reset(ctx)
	s.sessions.Delete(patientID)
}

// ProfileCompleted reports whether the patient still needs to take the
// classification test. Backend failures count as not completed.
func (s *AssessmentService) ProfileCompleted(ctx context.Context, patientID string) bool {
	if s.status == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, s.deps.RemoteTimeout)
	defer cancel()
	done, err := s.status.ProfileCompleted(ctx, normalizePatient(patientID))
	if err != nil {
		s.logger.Warn("profile status check failed", "patient_id", patientID, "error", err)
		return false
	}
	return done
}

func normalizePatient(patientID string) string {
	if patientID == "" {
		return AnonymousPatient
	}
	return patientID
}
