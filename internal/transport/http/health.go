package http

import (
	"encoding/json"
	"net/http"

	"risk-assessment-service/internal/app"
)

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// Readyz reports backend connectivity. The service stays ready while the
// backend is down since every flow has a local fallback.
func Readyz(conn *app.ConnectivityService) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		state := "offline"
		if conn != nil {
			state = conn.State().String()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "backend": state})
	}
}
