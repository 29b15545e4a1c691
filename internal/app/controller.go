package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"risk-assessment-service/internal/classify"
	"risk-assessment-service/internal/domain"
)

// AnonymousPatient is used when a session starts without a patient ID.
const AnonymousPatient = "anonymous"

// LocalSessionPrefix marks session IDs that were never issued by the backend.
const LocalSessionPrefix = "local_session_"

// QuestionProvider supplies the ordered questionnaire.
type QuestionProvider interface {
	FetchQuestions(ctx context.Context) ([]domain.Question, error)
}

// RemoteSessions is the backend session lifecycle. CompleteSession may return
// a nil classification, which triggers the local fallback.
type RemoteSessions interface {
	StartSession(ctx context.Context, patientID string) (string, error)
	SubmitResponse(ctx context.Context, sessionID, patientID, questionID, answer string) error
	CompleteSession(ctx context.Context, sessionID, patientID string) (*domain.Classification, error)
}

// ProfileSync persists a final classification to the patient's profile.
type ProfileSync interface {
	Persist(ctx context.Context, sessionID, patientID string, classification domain.Classification) error
}

// AnswerRecorder mirrors answers outside the process. Failures are logged only.
type AnswerRecorder interface {
	RecordAnswer(ctx context.Context, patientID, questionID, answer string) error
	ClearAnswers(ctx context.Context, patientID string) error
}

// ControllerDeps are the collaborators shared by every controller.
type ControllerDeps struct {
	Questions     QuestionProvider
	Remote        RemoteSessions // nil runs fully offline
	Profiles      ProfileSync    // nil skips persistence
	Recorder      AnswerRecorder // optional
	RemoteTimeout time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
	NewLocalID    func(now time.Time) string
}

// LocalSessionID builds an offline session ID from the clock and a random suffix.
func LocalSessionID(now time.Time) string {
	return fmt.Sprintf("%s%d_%s", LocalSessionPrefix, now.UnixMilli(), uuid.NewString()[:8])
}

// IsLocalSession reports whether id was generated offline.
func IsLocalSession(id string) bool {
	return strings.HasPrefix(id, LocalSessionPrefix)
}

// SessionController runs one patient's questionnaire:
// Idle → Loading → InProgress → Completing → Done, with Error reachable from
// Loading and Completing. Remote failures degrade to local fallbacks. Results
// of calls that return after Reset or a new Start are discarded.
type SessionController struct {
	patientID string
	deps      ControllerDeps

	mu             sync.Mutex
	generation     uint64
	state          domain.SessionState
	questions      []domain.Question
	answers        domain.AnswerSet
	position       int
	sessionID      string
	submitting     bool
	completing     bool
	classification *domain.Classification
	source         domain.ClassificationSource
	syncErr        error
	lastErr        error
	updatedAt      time.Time
}

func NewSessionController(patientID string, deps ControllerDeps) *SessionController {
	if patientID == "" {
		patientID = AnonymousPatient
	}
	if deps.RemoteTimeout <= 0 {
		deps.RemoteTimeout = 10 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewLocalID == nil {
		deps.NewLocalID = LocalSessionID
	}
	if deps.Questions == nil {
		deps.Questions = NewQuestionRepository(nil)
	}
	c := &SessionController{
		patientID: patientID,
		deps:      deps,
		state:     domain.StateIdle,
		answers:   domain.AnswerSet{},
	}
	c.updatedAt = deps.Now()
	return c
}

// PatientID returns the patient this controller belongs to.
func (c *SessionController) PatientID() string { return c.patientID }

// Start begins a new session, discarding any previous one. Every session
// fetches its own question set.
func (c *SessionController) Start(ctx context.Context) (domain.Snapshot, error) {
	c.mu.Lock()
	c.resetLocked()
	c.state = domain.StateLoading
	gen := c.generation
	c.mu.Unlock()

	logger := c.deps.Logger.With("patient_id", c.patientID)

	loadCtx, cancel := context.WithTimeout(ctx, c.deps.RemoteTimeout)
	questions, err := c.deps.Questions.FetchQuestions(loadCtx)
	cancel()
	if err == nil && len(questions) == 0 {
		err = domain.ErrNoQuestions
	}
	if err != nil {
		logger.Error("could not load questions", "error", err)
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.generation {
			return c.snapshotLocked(), domain.ErrSessionReset
		}
		c.state = domain.StateError
		c.lastErr = err
		c.touchLocked()
		return c.snapshotLocked(), err
	}

	sessionID := c.startRemote(ctx, logger)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return c.snapshotLocked(), domain.ErrSessionReset
	}
	c.questions = questions
	c.sessionID = sessionID
	c.position = 0
	c.state = domain.StateInProgress
	c.touchLocked()
	logger.Info("assessment started", "session_id", sessionID, "questions", len(questions))
	return c.snapshotLocked(), nil
}

func (c *SessionController) startRemote(ctx context.Context, logger *slog.Logger) string {
	if c.deps.Remote != nil {
		callCtx, cancel := context.WithTimeout(ctx, c.deps.RemoteTimeout)
		id, err := c.deps.Remote.StartSession(callCtx, c.patientID)
		cancel()
		if err == nil && id != "" {
			return id
		}
		if err == nil {
			err = errors.New("empty session id")
		}
		logger.Warn("remote session start failed, using local session", "error", err)
	}
	return c.deps.NewLocalID(c.deps.Now())
}

// SubmitAnswer records answer for questionID and advances to the next
// question. The ID is not checked against the current question. Submitting
// the last answer completes the session. Rejections return an ErrInvalidInput
// failure and leave the session untouched.
func (c *SessionController) SubmitAnswer(ctx context.Context, questionID, answer string) (domain.Snapshot, error) {
	c.mu.Lock()
	switch {
	case c.submitting || c.completing:
		defer c.mu.Unlock()
		return c.snapshotLocked(), domain.ErrSubmissionInFlight
	case c.state != domain.StateInProgress:
		defer c.mu.Unlock()
		return c.snapshotLocked(), domain.ErrNotInProgress
	case questionID == "" || answer == "":
		defer c.mu.Unlock()
		c.deps.Logger.Warn("invalid answer submission", "patient_id", c.patientID, "question_id", questionID)
		return c.snapshotLocked(), domain.ErrInvalidAnswer
	}
	c.answers[questionID] = answer
	c.submitting = true
	gen := c.generation
	sessionID := c.sessionID
	position := c.position
	c.touchLocked()
	c.mu.Unlock()

	logger := c.deps.Logger.With("patient_id", c.patientID, "session_id", sessionID)
	logger.Debug("answer recorded", "position", position+1, "question_id", questionID)

	c.forward(ctx, logger, sessionID, questionID, answer)

	c.mu.Lock()
	if gen != c.generation {
		defer c.mu.Unlock()
		return c.snapshotLocked(), domain.ErrSessionReset
	}
	c.submitting = false
	c.position++
	if c.position < len(c.questions) {
		defer c.mu.Unlock()
		c.touchLocked()
		return c.snapshotLocked(), nil
	}
	c.state = domain.StateCompleting
	c.completing = true
	questions := c.questions
	answers := c.answers.Clone()
	c.touchLocked()
	c.mu.Unlock()

	return c.finish(ctx, gen, sessionID, questions, answers)
}

func (c *SessionController) forward(ctx context.Context, logger *slog.Logger, sessionID, questionID, answer string) {
	if c.deps.Recorder != nil {
		if err := c.deps.Recorder.RecordAnswer(ctx, c.patientID, questionID, answer); err != nil {
			logger.Warn("answer mirror failed", "error", err)
		}
	}
	if c.deps.Remote == nil || IsLocalSession(sessionID) {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, c.deps.RemoteTimeout)
	defer cancel()
	if err := c.deps.Remote.SubmitResponse(callCtx, sessionID, c.patientID, questionID, answer); err != nil {
		logger.Warn("forwarding answer failed, kept locally", "question_id", questionID, "error", err)
	}
}

// Complete classifies the session, remotely when possible and locally
// otherwise, then hands the result to ProfileSync. Once Done it returns the
// stored classification without further calls.
func (c *SessionController) Complete(ctx context.Context) (domain.Snapshot, error) {
	c.mu.Lock()
	switch {
	case c.state == domain.StateDone:
		defer c.mu.Unlock()
		return c.snapshotLocked(), nil
	case c.state != domain.StateInProgress && c.state != domain.StateCompleting:
		defer c.mu.Unlock()
		return c.snapshotLocked(), domain.ErrNotInProgress
	case c.completing || c.submitting:
		defer c.mu.Unlock()
		return c.snapshotLocked(), domain.ErrSubmissionInFlight
	case len(c.questions) == 0:
		defer c.mu.Unlock()
		c.state = domain.StateError
		c.lastErr = domain.ErrNoQuestions
		c.touchLocked()
		return c.snapshotLocked(), domain.ErrNoQuestions
	}
	c.state = domain.StateCompleting
	c.completing = true
	gen := c.generation
	sessionID := c.sessionID
	questions := c.questions
	answers := c.answers.Clone()
	c.touchLocked()
	c.mu.Unlock()

	return c.finish(ctx, gen, sessionID, questions, answers)
}

func (c *SessionController) finish(ctx context.Context, gen uint64, sessionID string, questions []domain.Question, answers domain.AnswerSet) (domain.Snapshot, error) {
	logger := c.deps.Logger.With("patient_id", c.patientID, "session_id", sessionID)

	result, source := c.completeRemote(ctx, logger, sessionID)
	if result == nil {
		local := classify.Classify(questions, answers)
		result, source = &local, domain.SourceLocal
		logger.Info("classified locally", "risk_level", local.RiskLevel)
	}

	c.mu.Lock()
	if gen != c.generation {
		defer c.mu.Unlock()
		return c.snapshotLocked(), domain.ErrSessionReset
	}
	c.completing = false
	c.state = domain.StateDone
	c.classification = result
	c.source = source
	c.touchLocked()
	c.mu.Unlock()

	c.persist(ctx, logger, gen, sessionID, *result)

	return c.Snapshot(), nil
}

func (c *SessionController) completeRemote(ctx context.Context, logger *slog.Logger, sessionID string) (*domain.Classification, domain.ClassificationSource) {
	if c.deps.Remote == nil || sessionID == "" || IsLocalSession(sessionID) {
		return nil, ""
	}
	callCtx, cancel := context.WithTimeout(ctx, c.deps.RemoteTimeout)
	defer cancel()
	result, err := c.deps.Remote.CompleteSession(callCtx, sessionID, c.patientID)
	switch {
	case err != nil:
		logger.Warn("remote completion failed, classifying locally", "error", err)
		return nil, ""
	case result == nil:
		logger.Warn("remote completion returned no classification, classifying locally")
		return nil, ""
	}
	out := *result
	return &out, domain.SourceRemote
}

func (c *SessionController) persist(ctx context.Context, logger *slog.Logger, gen uint64, sessionID string, result domain.Classification) {
	if c.deps.Profiles == nil {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, c.deps.RemoteTimeout)
	err := c.deps.Profiles.Persist(callCtx, sessionID, c.patientID, result)
	cancel()
	if err != nil {
		logger.Warn("profile sync failed", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.generation {
		c.syncErr = err
	}
}

// Reset abandons the session and returns the controller to Idle. It is safe
// from any state; calls still in flight are discarded when they return.
func (c *SessionController) Reset(ctx context.Context) {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	if c.deps.Recorder != nil {
		if err := c.deps.Recorder.ClearAnswers(ctx, c.patientID); err != nil {
			c.deps.Logger.Warn("clearing answer mirror failed", "patient_id", c.patientID, "error", err)
		}
	}
}

func (c *SessionController) resetLocked() {
	c.generation++
	c.state = domain.StateIdle
	c.questions = nil
	c.answers = domain.AnswerSet{}
	c.position = 0
	c.sessionID = ""
	c.submitting = false
	c.completing = false
	c.classification = nil
	c.source = ""
	c.syncErr = nil
	c.lastErr = nil
	c.touchLocked()
}

// Snapshot returns the current session view.
func (c *SessionController) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *SessionController) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		PatientID:      c.patientID,
		SessionID:      c.sessionID,
		LocalSession:   IsLocalSession(c.sessionID),
		State:          c.state,
		Position:       c.position,
		Answers:        c.answers.Clone(),
		Completed:      c.state == domain.StateDone,
		Classification: c.classification,
		Source:         c.source,
		UpdatedAt:      c.updatedAt,
	}
	if c.state != domain.StateIdle {
		snap.Total = len(c.questions)
	}
	if c.state == domain.StateInProgress && c.position < len(c.questions) {
		q := c.questions[c.position]
		snap.Current = &q
	}
	if c.syncErr != nil {
		snap.SyncError = c.syncErr.Error()
	}
	if c.lastErr != nil {
		snap.Error = c.lastErr.Error()
	}
	return snap
}

func (c *SessionController) touchLocked() {
	c.updatedAt = c.deps.Now()
}
