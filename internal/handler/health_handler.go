package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// Pinger is a dependency that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names one dependency for /healthz.
type HealthCheck struct {
	Name     string
	Pinger   Pinger
	Critical bool
}

// healthHandler is the liveness probe: GET /health → {"ok": true}.
func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// healthzHandler pings every dependency. A failing critical dependency
// makes the service unhealthy; any other failure only degrades it.
func healthzHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)
		services := []domain.ServiceHealth{
			{Name: "bfa-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		overallStatus := "healthy"
		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			start := time.Now()
			err := c.Pinger.Ping(ctx)
			cancel()

			status := "healthy"
			if err != nil {
				status = "degraded"
				if c.Critical {
					status = "unhealthy"
				}
			}
			services = append(services, domain.ServiceHealth{
				Name:        c.Name,
				Status:      status,
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			})

			if status == "unhealthy" {
				overallStatus = "unhealthy"
			} else if status == "degraded" && overallStatus == "healthy" {
				overallStatus = "degraded"
			}
		}

		code := http.StatusOK
		if overallStatus == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
