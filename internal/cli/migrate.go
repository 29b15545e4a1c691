package cli

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"risk-assessment-service/internal/app"
	"risk-assessment-service/internal/config"
	"risk-assessment-service/internal/infra/postgres"
	pgmigrations "risk-assessment-service/internal/infra/postgres/migrations"
)

var errNoPostgres = errors.New("postgres url not configured")

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the questions and patient_profiles tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := cfg.NewLogger()
			if err := RunMigrations(cmd.Context(), cfg.Postgres.URL, logger); err != nil {
				return err
			}
			if !seed {
				return nil
			}
			return SeedQuestions(cmd.Context(), cfg.Postgres.URL, logger)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "upsert the built-in classification questions")
	return cmd
}

// SeedQuestions upserts the built-in question set into the questions table.
func SeedQuestions(ctx context.Context, dsn string, logger *slog.Logger) error {
	if dsn == "" {
		return errNoPostgres
	}
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	questions := app.BuiltinQuestions()
	if err := postgres.NewQuestionLoader(pool).SaveQuestions(ctx, questions); err != nil {
		return err
	}
	logger.Info("questions seeded", "count", len(questions))
	return nil
}

// RunMigrations applies every pending migration against dsn.
func RunMigrations(ctx context.Context, dsn string, logger *slog.Logger) error {
	if dsn == "" {
		return errNoPostgres
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		logger.Info("database schema up to date")
		return nil
	}
	logger.Info("migrations applied", "group", group.String())
	return nil
}
