package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"saldo/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports 503 until the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{"store": "ok"}
	status, code := "ready", http.StatusOK
	if s.store == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", "check", "store", log.FieldError, err)
		checks["store"] = "unreachable"
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, code, envelope{Success: code == http.StatusOK, Data: map[string]any{
		"status": status,
		"checks": checks,
	}})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.rateLimiter.GetMetrics()
	ipMetrics := s.ipLimiter.GetMetrics()
	detectMetrics := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_response_time_avg_ms", "gauge", "Average response time in milliseconds",
		float64(traceMetrics.AverageResponseTime.Microseconds())/1000)
	metric("rate_limit_allowed_total", "counter", "Requests admitted by the rate limiter", limitMetrics.Allowed)
	metric("rate_limit_rejected_total", "counter", "Requests rejected by the rate limiter", limitMetrics.Rejected)
	metric("rate_limit_active_clients", "gauge", "Keys tracked by the rate limiter", limitMetrics.ClientCount)
	metric("rate_limit_ip_rejected_total", "counter", "Requests rejected by the per-address limiter", ipMetrics.Rejected)
	metric("security_blocked_requests_total", "counter", "Requests blocked as probes", detectMetrics.BlockedRequests)
	metric("uptime_seconds", "gauge", "Seconds since the server started", int64(time.Since(s.started).Seconds()))
}
