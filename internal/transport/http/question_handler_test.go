package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk-assessment-service/internal/app"
	"risk-assessment-service/internal/domain"
)

func TestQuestionHandler(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /questions/{number}", QuestionHandler(app.NewQuestionRepository(nil)))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/questions/3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var q domain.Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, "class_q3", q.ID)
	assert.Equal(t, domain.CategoryEducation, q.Category)

	for path, code := range map[string]int{
		"/questions/42":  http.StatusNotFound,
		"/questions/abc": http.StatusBadRequest,
		"/questions/0":   http.StatusBadRequest,
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, code, rec.Code, path)
	}
}
