package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"risk-assessment-service/internal/app"
	"risk-assessment-service/internal/config"
	"risk-assessment-service/internal/infra/memory"
	"risk-assessment-service/internal/infra/postgres"
	redisstore "risk-assessment-service/internal/infra/redis"
	"risk-assessment-service/internal/infra/remote"
	transport "risk-assessment-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := RunMigrations(ctx, cfg.Postgres.URL, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	remoteTimeout := config.Duration(cfg.Backend.Timeout, 10*time.Second)

	var (
		client *remote.Client
		conn   *app.ConnectivityService
	)
	if cfg.Backend.URL != "" {
		// The prober bypasses the connectivity gate, so it can be built first.
		prober := remote.NewClient(cfg.Backend.URL, remote.WithLogger(logger))
		conn = app.NewConnectivityService(prober, app.ConnectivityConfig{
			RecheckInterval:    config.Duration(cfg.Backend.RecheckInterval, 30*time.Second),
			MaxRecheckInterval: config.Duration(cfg.Backend.MaxRecheck, 5*time.Minute),
			Logger:             logger,
		})
		client = remote.NewClient(cfg.Backend.URL,
			remote.WithToken(cfg.Backend.Token),
			remote.WithConnectivity(conn),
			remote.WithHTTPClient(&http.Client{Timeout: remoteTimeout}),
			remote.WithLogger(logger),
		)
		logger.Info("backend connectivity", "state", conn.CheckNow(ctx).String())
		go func() {
			if err := conn.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("connectivity monitor stopped", "error", err)
			}
		}()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,

			ContextTimeoutEnabled: true,
		})
		defer redisClient.Close()
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var source app.QuestionSource
	switch cfg.QuestionSource() {
	case "remote":
		if client != nil {
			source = client
		}
	case "postgres":
		if pool != nil {
			source = postgres.NewQuestionLoader(pool)
		}
	}
	if source == nil {
		logger.Info("serving built-in questions")
	}
	questions := app.NewQuestionRepository(source, app.WithRepositoryLogger(logger))

	deps := app.ControllerDeps{
		Questions:     questions,
		RemoteTimeout: remoteTimeout,
		Logger:        logger,
	}
	if client != nil {
		deps.Remote = client
	}

	var (
		store   app.SessionRepository
		status  app.ProfileStatusChecker
		results transport.ResultLookup
	)
	switch {
	case redisClient != nil:
		sessions := redisstore.NewSessionStore(redisClient, redisTTL)
		store = sessions
		deps.Recorder = sessions
	default:
		store = memory.NewSessionStore()
	}
	switch {
	case pool != nil:
		profiles := postgres.NewProfileStore(pool)
		deps.Profiles, status, results = profiles, profiles, profiles
	case redisClient != nil:
		profiles := redisstore.NewResultStore(redisClient, 0)
		deps.Profiles, status, results = profiles, profiles, profiles
	case client != nil:
		deps.Profiles, status = client, client
	}

	service := app.NewAssessmentService(store, deps, status)

	var profileSource transport.ProfileSource
	if client != nil {
		profileSource = client
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", transport.Healthz)
	mux.Handle("/readyz", transport.Readyz(conn))
	mux.HandleFunc("/ws", transport.NewWSHandler(service, logger).ServeWS)
	mux.Handle("/profile", transport.NewProfileHandler(profileSource, results, logger))
	mux.Handle("GET /questions/{number}", transport.QuestionHandler(questions))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting assessment service", "port", finalPort, "questions", cfg.QuestionSource())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
