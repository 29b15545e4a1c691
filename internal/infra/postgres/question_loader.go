package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"risk-assessment-service/internal/domain"
)

// QuestionLoader reads the question bank from Postgres. Options are stored as JSONB.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

const questionColumns = `id, question_tag, question_number, question_text, question_type, category, options`

// LoadQuestions implements app.QuestionSource. Rows come back in insertion
// order; the repository sorts them.
func (l *QuestionLoader) LoadQuestions(ctx context.Context, tag string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions WHERE question_tag=$1 ORDER BY created_at`, tag)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

// QuestionByNumber implements app.QuestionLookup for the classification questionnaire.
func (l *QuestionLoader) QuestionByNumber(ctx context.Context, number int) (domain.Question, error) {
	row := l.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE question_number=$1 AND question_tag=$2 LIMIT 1`,
		strconv.Itoa(number), domain.ClassificationTag)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, err
}

// SaveQuestions upserts questions, used to seed the bank.
func (l *QuestionLoader) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	batch := &pgx.Batch{}
	for _, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		tag := q.Tag
		if tag == "" {
			tag = domain.ClassificationTag
		}
		batch.Queue(`INSERT INTO questions (`+questionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
			ON CONFLICT (id) DO UPDATE SET question_tag=EXCLUDED.question_tag, question_number=EXCLUDED.question_number,
			question_text=EXCLUDED.question_text, question_type=EXCLUDED.question_type, category=EXCLUDED.category, options=EXCLUDED.options`,
			q.ID, tag, q.QuestionNumber, q.Text, string(q.Type), string(q.Category), string(options))
	}
	results := l.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range questions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save question: %w", err)
		}
	}
	return nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q        domain.Question
		qType    string
		category string
		options  []byte
	)
	if err := row.Scan(&q.ID, &q.Tag, &q.QuestionNumber, &q.Text, &qType, &category, &options); err != nil {
		return domain.Question{}, fmt.Errorf("scan question: %w", err)
	}
	q.Type = domain.QuestionType(qType)
	q.Category = domain.Category(category)
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options: %w", err)
	}
	return q, nil
}
