package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"risk-assessment-service/internal/domain"
	"risk-assessment-service/internal/profile"
)

// ProfileSource returns the backend view of the caller's profile.
type ProfileSource interface {
	Profile(ctx context.Context) (profile.Profile, error)
}

// ResultLookup returns the last persisted classification for a patient.
type ResultLookup interface {
	Latest(ctx context.Context, patientID string) (domain.Classification, bool, error)
}

// ProfileHandler serves the merged patient profile next to its risk summary.
type ProfileHandler struct {
	source  ProfileSource
	results ResultLookup
	now     func() time.Time
	logger  *slog.Logger
}

func NewProfileHandler(source ProfileSource, results ResultLookup, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{source: source, results: results, now: time.Now, logger: logger}
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if token == "" || profile.Expired(token, h.now()) {
		http.Error(w, "token missing or expired", http.StatusUnauthorized)
		return
	}
	fromToken, err := profile.FromToken(token)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	var fromBackend profile.Profile
	if h.source != nil {
		if p, err := h.source.Profile(ctx); err != nil {
			h.logger.Warn("backend profile unavailable", "error", err)
		} else {
			fromBackend = p
		}
	}
	merged := profile.Merge(fromBackend, fromToken)

	patientID := r.URL.Query().Get("patientId")
	if patientID == "" {
		patientID = merged.UserID
	}
	if h.results != nil && patientID != "" {
		c, ok, err := h.results.Latest(ctx, patientID)
		switch {
		case err != nil:
			h.logger.Warn("latest classification lookup failed", "patient_id", patientID, "error", err)
		case ok:
			merged = profile.ApplyClassification(merged, c)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(merged)
}
