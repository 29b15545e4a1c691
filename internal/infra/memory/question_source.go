package memory

import (
	"context"
	"strconv"

	"risk-assessment-service/internal/domain"
)

// StaticQuestionSource serves questions from memory, grouped by question tag
// (useful for tests/demos).
type StaticQuestionSource struct {
	byTag map[string][]domain.Question
}

func NewStaticQuestionSource(questions []domain.Question) *StaticQuestionSource {
	byTag := make(map[string][]domain.Question)
	for _, q := range questions {
		tag := q.Tag
		if tag == "" {
			tag = domain.ClassificationTag
		}
		byTag[tag] = append(byTag[tag], q)
	}
	return &StaticQuestionSource{byTag: byTag}
}

func (s *StaticQuestionSource) LoadQuestions(_ context.Context, tag string) ([]domain.Question, error) {
	questions, ok := s.byTag[tag]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	return out, nil
}

func (s *StaticQuestionSource) QuestionByNumber(_ context.Context, number int) (domain.Question, error) {
	want := strconv.Itoa(number)
	for _, questions := range s.byTag {
		for _, q := range questions {
			if q.QuestionNumber == want {
				return q, nil
			}
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}
