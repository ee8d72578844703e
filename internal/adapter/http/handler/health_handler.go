package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"settlement-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
)

type dependencyStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HealthCheck handles GET /health. Dependencies are probed in parallel; any
// failure reports "degraded" with 503.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses := probe(c.Request.Context(), checkers)

		status, code := "healthy", http.StatusOK
		for _, s := range statuses {
			if s.Status != "healthy" {
				status, code = "degraded", http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(code, gin.H{
			"status":       status,
			"dependencies": statuses,
		})
	}
}

func probe(ctx context.Context, checkers []ports.HealthChecker) map[string]dependencyStatus {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]dependencyStatus, len(checkers))
	)
	for _, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := checker.Ping(ctx)

			s := dependencyStatus{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				s.Status, s.Error = "unhealthy", err.Error()
			}

			mu.Lock()
			out[checker.Name()] = s
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}
