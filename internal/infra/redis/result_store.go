package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"risk-assessment-service/internal/domain"
)

// ResultStore keeps the latest classification per patient in a hash. It
// implements app.ProfileSync for deployments without Postgres.
//
//	HSET assessment:result:{patientID} session_id .. age_group .. cognitive_status .. education_level .. risk_level ..
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{client: client, ttl: ttl, now: time.Now}
}

func (r *ResultStore) Persist(ctx context.Context, sessionID, patientID string, c domain.Classification) error {
	key := r.key(patientID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"session_id":       sessionID,
		"age_group":        c.AgeGroup,
		"cognitive_status": c.CognitiveStatus,
		"education_level":  c.EducationLevel,
		"risk_level":       c.RiskLevel,
		"updated_at":       r.now().UTC().Format(time.RFC3339),
	})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	return nil
}

// Latest returns the stored classification, or ok=false when none exists.
func (r *ResultStore) Latest(ctx context.Context, patientID string) (domain.Classification, bool, error) {
	fields, err := r.client.HGetAll(ctx, r.key(patientID)).Result()
	if err != nil {
		return domain.Classification{}, false, err
	}
	if len(fields) == 0 {
		return domain.Classification{}, false, nil
	}
	return domain.Classification{
		AgeGroup:        fields["age_group"],
		CognitiveStatus: fields["cognitive_status"],
		EducationLevel:  fields["education_level"],
		RiskLevel:       fields["risk_level"],
	}, true, nil
}

// ProfileCompleted implements app.ProfileStatusChecker.
func (r *ResultStore) ProfileCompleted(ctx context.Context, patientID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(patientID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ResultStore) key(patientID string) string {
	return "assessment:result:" + patientID
}
