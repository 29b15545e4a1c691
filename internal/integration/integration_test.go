package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"risk-assessment-service/internal/app"
	"risk-assessment-service/internal/cli"
	"risk-assessment-service/internal/domain"
	"risk-assessment-service/internal/infra/postgres"
	infraredis "risk-assessment-service/internal/infra/redis"
)

func TestQuestionnaireEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	if err := cli.RunMigrations(ctx, pgURL, slog.Default()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := postgres.NewQuestionLoader(pool)
	seed := app.BuiltinQuestions()
	// Insert in reverse so ordering has to come from question_number.
	for i, j := 0, len(seed)-1; i < j; i, j = i+1, j-1 {
		seed[i], seed[j] = seed[j], seed[i]
	}
	other := domain.Question{ID: "onboarding_q1", Text: "Bildirim almak ister misiniz?", Type: domain.QuestionTypeMultipleChoice,
		Options: []string{"Evet", "Hayır"}, QuestionNumber: "1", Category: domain.CategorySocialActivity, Tag: "onboarding"}
	if err := loader.SaveQuestions(ctx, append([]domain.Question{other}, seed...)); err != nil {
		t.Fatalf("seed questions: %v", err)
	}
	if err := cli.SeedQuestions(ctx, pgURL, slog.Default()); err != nil {
		t.Fatalf("seed built-in questions: %v", err)
	}

	first, err := loader.QuestionByNumber(ctx, 1)
	if err != nil {
		t.Fatalf("question by number: %v", err)
	}
	if first.ID != "class_q1" {
		t.Fatalf("expected class_q1 for number 1, got %s", first.ID)
	}
	if _, err := loader.QuestionByNumber(ctx, 99); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	profiles := postgres.NewProfileStore(pool)
	service := app.NewAssessmentService(sessions, app.ControllerDeps{
		Questions: app.NewQuestionRepository(loader, app.WithFallback(func() []domain.Question { return nil })),
		Profiles:  profiles,
		Recorder:  sessions,
	}, profiles)

	if service.ProfileCompleted(ctx, "p1") {
		t.Fatalf("fresh patient should not have a completed profile")
	}

	snap, err := service.Begin(ctx, "p1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if snap.Current == nil || snap.Current.ID != "class_q1" {
		t.Fatalf("expected class_q1 first, got %+v", snap.Current)
	}

	answers := map[string]string{
		"class_q1": "80+",
		"class_q3": "Üniversite ve üstü",
		"class_q5": "Bazen",
	}
	for snap.State == domain.StateInProgress {
		q := snap.Current
		answer, ok := answers[q.ID]
		if !ok {
			answer = q.Options[len(q.Options)-1]
		}
		snap, err = service.Answer(ctx, "p1", q.ID, answer)
		if err != nil {
			t.Fatalf("answer %s: %v", q.ID, err)
		}
	}

	if snap.State != domain.StateDone || snap.Classification == nil {
		t.Fatalf("expected done session, got %+v", snap)
	}
	want := domain.Classification{
		AgeGroup:        "80+",
		CognitiveStatus: domain.CognitiveMCI,
		EducationLevel:  domain.EducationUniversity,
		RiskLevel:       domain.RiskHigh,
	}
	if *snap.Classification != want {
		t.Fatalf("classification = %+v, want %+v", *snap.Classification, want)
	}
	if snap.SyncError != "" {
		t.Fatalf("profile sync failed: %s", snap.SyncError)
	}

	mirrored, err := sessions.Answers(ctx, "p1")
	if err != nil {
		t.Fatalf("read answer mirror: %v", err)
	}
	if len(mirrored) != len(seed) {
		t.Fatalf("expected %d mirrored answers, got %d", len(seed), len(mirrored))
	}

	stored, ok, err := profiles.Latest(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("latest profile: ok=%v err=%v", ok, err)
	}
	if stored != want {
		t.Fatalf("stored classification = %+v, want %+v", stored, want)
	}
	if !service.ProfileCompleted(ctx, "p1") {
		t.Fatalf("expected completed profile after sync")
	}

	service.Abandon(ctx, "p1")
	mirrored, err = sessions.Answers(ctx, "p1")
	if err != nil {
		t.Fatalf("read answer mirror: %v", err)
	}
	if len(mirrored) != 0 {
		t.Fatalf("expected answer mirror cleared, got %v", mirrored)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "risk", "POSTGRES_PASSWORD": "riskpass", "POSTGRES_DB": "riskdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://risk:riskpass@%s:%s/riskdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
