package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const allowedDelay = 30 * time.Second

type HealthStatus struct {
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	LastCycleTime string `json:"last_cycle_time,omitempty"`
	LastTrack     string `json:"last_track,omitempty"`
	LastRule      string `json:"last_rule,omitempty"`
	LastFailure   string `json:"last_failure,omitempty"`
}

// NewHealthRouter serves /health and /metrics. The service is reported unhealthy when no
// cycle succeeded within expectedInterval plus a grace period.
func NewHealthRouter(metrics *Metrics, expectedInterval time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", healthCheckHandler(metrics, expectedInterval))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

func healthCheckHandler(metrics *Metrics, expectedInterval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		Logger.Debug("Health check request received")
		snap := metrics.snapshot()
		status := HealthStatus{
			Status:        "healthy",
			Message:       "Service is running",
			LastCycleTime: snap.lastCycle.UTC().Format(time.RFC3339),
			LastTrack:     snap.lastTrack,
			LastRule:      snap.lastRule,
			LastFailure:   snap.lastFailure,
		}

		code := http.StatusOK
		if ok, message := checkInterval("monitor", snap.lastCycle, expectedInterval); !ok {
			Logger.Warnf("Monitor is delayed: %s", message)
			status.Status = "unhealthy"
			status.Message = message
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	}
}

// StartHealthCheckServer serves handler on port until ctx is cancelled.
func StartHealthCheckServer(ctx context.Context, port int, handler http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	Logger.Infof("Starting health check server on port %d", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health check server: %w", err)
	}
	return nil
}

// checkInterval reports whether the last update happened within the expected interval
func checkInterval(name string, lastUpdateTime time.Time, expectedInterval time.Duration) (bool, string) {
	if expectedInterval == 0 {
		return true, fmt.Sprintf("%s is not expected to run", name)
	}
	delayDuration := time.Since(lastUpdateTime) - expectedInterval
	if delayDuration.Round(time.Second) > allowedDelay {
		return false, fmt.Sprintf("%s is delayed by %s", name, delayDuration.Round(time.Second))
	}
	return true, fmt.Sprintf("%s is running as expected", name)
}
