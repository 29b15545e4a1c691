package app

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"risk-assessment-service/internal/domain"
)

// QuestionSource loads questionnaire items in whatever order the backing store returns them.
type QuestionSource interface {
	LoadQuestions(ctx context.Context, tag string) ([]domain.Question, error)
}

// QuestionLookup is implemented by sources that can fetch a single question by number.
type QuestionLookup interface {
	QuestionByNumber(ctx context.Context, number int) (domain.Question, error)
}

// QuestionRepository serves the ordered classification questionnaire, falling
// back to the built-in set when the source fails or returns nothing.
// Results are not cached; concurrent loads share one source call.
type QuestionRepository struct {
	source   QuestionSource
	fallback func() []domain.Question
	logger   *slog.Logger
	sf       singleflight.Group
}

// RepositoryOption customizes a QuestionRepository.
type RepositoryOption func(*QuestionRepository)

// WithFallback replaces the built-in fallback set.
func WithFallback(fallback func() []domain.Question) RepositoryOption {
	return func(r *QuestionRepository) { r.fallback = fallback }
}

// WithRepositoryLogger sets the repository logger.
func WithRepositoryLogger(logger *slog.Logger) RepositoryOption {
	return func(r *QuestionRepository) { r.logger = logger }
}

// NewQuestionRepository builds a repository over source. A nil source always serves the fallback.
func NewQuestionRepository(source QuestionSource, opts ...RepositoryOption) *QuestionRepository {
	r := &QuestionRepository{
		source:   source,
		fallback: BuiltinQuestions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchQuestions returns the classification questions sorted by numeric
// question number. The only error is ErrNoQuestions, when even the fallback
// set is empty.
func (r *QuestionRepository) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	if r.source != nil {
		result, err, _ := r.sf.Do(domain.ClassificationTag, func() (interface{}, error) {
			return r.source.LoadQuestions(ctx, domain.ClassificationTag)
		})
		loaded, _ := result.([]domain.Question)
		switch {
		case err != nil:
			r.logger.Warn("question source failed, using built-in questions", "error", err)
		case len(loaded) == 0:
			r.logger.Warn("question source returned no questions, using built-in questions")
		default:
			questions := SortQuestions(loaded)
			r.logger.Debug("questions loaded", "count", len(questions), "order", questionNumbers(questions))
			return questions, nil
		}
	}

	questions := SortQuestions(r.fallback())
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	return questions, nil
}

// QuestionByNumber looks up one question, trying the source first and the
// fallback set second.
func (r *QuestionRepository) QuestionByNumber(ctx context.Context, number int) (domain.Question, error) {
	if lookup, ok := r.source.(QuestionLookup); ok {
		q, err := lookup.QuestionByNumber(ctx, number)
		if err == nil {
			return q, nil
		}
		r.logger.Warn("question lookup failed, searching built-in questions", "number", number, "error", err)
	}
	for _, q := range r.fallback() {
		if n, ok := parseQuestionNumber(q.QuestionNumber); ok && n == number {
			return q, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// SortQuestions returns a copy of questions stable-sorted by the numeric value
// of QuestionNumber. Numbers that do not parse sort as 0.
func SortQuestions(questions []domain.Question) []domain.Question {
	sorted := make([]domain.Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return questionOrder(sorted[i]) < questionOrder(sorted[j])
	})
	return sorted
}

func questionOrder(q domain.Question) int {
	n, _ := parseQuestionNumber(q.QuestionNumber)
	return n
}

func parseQuestionNumber(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

func questionNumbers(questions []domain.Question) string {
	nums := make([]string, len(questions))
	for i, q := range questions {
		nums[i] = q.QuestionNumber
	}
	return strings.Join(nums, ",")
}
