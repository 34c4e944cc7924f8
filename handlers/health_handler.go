package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

type HealthStatus struct {
	Status string `json:"status"`
}

// Health reports every dependency; any failure turns the response into 503.
func Health(logger *slog.Logger, checks map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		result := make(map[string]HealthStatus, len(checks))
		status := http.StatusOK
		for name, check := range checks {
			result[name] = HealthStatus{Status: "ok"}
			if err := check(ctx); err != nil {
				logger.Error("health check failed", slog.String("name", name), slog.Any("error", err))
				result[name] = HealthStatus{Status: "error"}
				status = http.StatusServiceUnavailable
			}
		}

		_ = writeJSON(w, status, result, nil)
	}
}
