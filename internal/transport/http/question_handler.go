package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"risk-assessment-service/internal/domain"
)

// QuestionFinder looks up a single question by its display number.
type QuestionFinder interface {
	QuestionByNumber(ctx context.Context, number int) (domain.Question, error)
}

// QuestionHandler serves GET /questions/{number}.
func QuestionHandler(finder QuestionFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, err := strconv.Atoi(r.PathValue("number"))
		if err != nil || number <= 0 {
			http.Error(w, "question number must be a positive integer", http.StatusBadRequest)
			return
		}
		q, err := finder.QuestionByNumber(r.Context(), number)
		switch {
		case errors.Is(err, domain.ErrQuestionNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(q)
	}
}
