package app_test

import (
	"context"
	"testing"
	"time"

	"risk-assessment-service/internal/app"
	"risk-assessment-service/internal/domain"
	"risk-assessment-service/internal/infra/memory"
)

func TestAssessmentFlowPerPatient(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	if _, err := service.Begin(ctx, "p1"); err != nil {
		t.Fatalf("begin p1: %v", err)
	}
	if _, err := service.Begin(ctx, "p2"); err != nil {
		t.Fatalf("begin p2: %v", err)
	}

	snap, err := service.Answer(ctx, "p2", "q1", "50-59")
	if err != nil {
		t.Fatalf("answer p2: %v", err)
	}
	if snap.State != domain.StateDone || snap.Classification == nil {
		t.Fatalf("expected p2 done with classification, got %+v", snap)
	}
	if snap.Classification.RiskLevel != domain.RiskLow {
		t.Fatalf("expected Düşük risk for 50-59, got %s", snap.Classification.RiskLevel)
	}

	p1, err := service.Status(ctx, "p1")
	if err != nil {
		t.Fatalf("status p1: %v", err)
	}
	if p1.State != domain.StateInProgress || len(p1.Answers) != 0 {
		t.Fatalf("expected p1 untouched, got %+v", p1)
	}
}

func TestAnswerRequiresSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	if _, err := service.Answer(ctx, "nobody", "q1", "50-59"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
	if _, err := service.Finish(ctx, "nobody"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
}

func TestAbandonDropsSession(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService()

	if _, err := service.Begin(ctx, ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, ok := store.Get(app.AnonymousPatient); !ok {
		t.Fatalf("expected anonymous session")
	}
	service.Abandon(ctx, "")
	if store.Len() != 0 {
		t.Fatalf("expected store empty after abandon")
	}
	if _, err := service.Status(ctx, ""); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
}

type statusChecker struct {
	done bool
	err  error
}

func (s statusChecker) ProfileCompleted(context.Context, string) (bool, error) {
	return s.done, s.err
}

func TestProfileCompletedFallsBackToFalse(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()

	if !app.NewAssessmentService(store, app.ControllerDeps{}, statusChecker{done: true}).ProfileCompleted(ctx, "p1") {
		t.Fatalf("expected completed profile")
	}
	if app.NewAssessmentService(store, app.ControllerDeps{}, statusChecker{done: true, err: errBackendDown}).ProfileCompleted(ctx, "p1") {
		t.Fatalf("expected backend failure to count as not completed")
	}
	if app.NewAssessmentService(store, app.ControllerDeps{}, nil).ProfileCompleted(ctx, "p1") {
		t.Fatalf("expected no checker to count as not completed")
	}
}

func newTestService() (*app.AssessmentService, *memory.SessionStore) {
	store := memory.NewSessionStore()
	source := memory.NewStaticQuestionSource([]domain.Question{
		{
			ID:             "q1",
			Text:           "Kaç yaşındasınız?",
			Type:           domain.QuestionTypeMultipleChoice,
			Options:        []string{"50-59", "60-69", "70-79", "80+"},
			QuestionNumber: "1",
			Category:       domain.CategoryDemographic,
		},
	})
	deps := app.ControllerDeps{
		Questions:     app.NewQuestionRepository(source),
		RemoteTimeout: time.Second,
	}
	return app.NewAssessmentService(store, deps, nil), store
}
