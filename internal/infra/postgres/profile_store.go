package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"risk-assessment-service/internal/domain"
)

// ProfileStore keeps the latest classification per patient. It implements
// app.ProfileSync and app.ProfileStatusChecker.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) Persist(ctx context.Context, sessionID, patientID string, c domain.Classification) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO patient_profiles
		(patient_id, session_id, age_group, cognitive_status, education_level, risk_level, profile_completed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, now())
		ON CONFLICT (patient_id) DO UPDATE SET session_id=EXCLUDED.session_id, age_group=EXCLUDED.age_group,
		cognitive_status=EXCLUDED.cognitive_status, education_level=EXCLUDED.education_level,
		risk_level=EXCLUDED.risk_level, profile_completed=TRUE, updated_at=now()`,
		patientID, sessionID, c.AgeGroup, c.CognitiveStatus, c.EducationLevel, c.RiskLevel)
	if err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}

// Latest returns the stored classification, or ok=false when none exists.
func (s *ProfileStore) Latest(ctx context.Context, patientID string) (domain.Classification, bool, error) {
	var c domain.Classification
	err := s.pool.QueryRow(ctx, `SELECT age_group, cognitive_status, education_level, risk_level
		FROM patient_profiles WHERE patient_id=$1`, patientID).
		Scan(&c.AgeGroup, &c.CognitiveStatus, &c.EducationLevel, &c.RiskLevel)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Classification{}, false, nil
	}
	if err != nil {
		return domain.Classification{}, false, fmt.Errorf("load profile: %w", err)
	}
	return c, true, nil
}

func (s *ProfileStore) ProfileCompleted(ctx context.Context, patientID string) (bool, error) {
	var done bool
	err := s.pool.QueryRow(ctx, `SELECT profile_completed FROM patient_profiles WHERE patient_id=$1`, patientID).Scan(&done)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("profile status: %w", err)
	}
	return done, nil
}
