// cmd/worker-manager/server.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"counsel-workers/internal/common/logger"
)

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// readiness reports ready only when the broker and both stores answer.
type readiness struct {
	zeebe healthChecker
	pg    pinger
	redis pinger
}

func (r *readiness) check(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := map[string]string{}
	record := func(name string, err error) {
		if err != nil {
			status[name] = err.Error()
			return
		}
		status[name] = "ok"
	}
	record("zeebe", r.zeebe.HealthCheck(ctx))
	record("postgres", r.pg.Ping(ctx))
	record("redis", r.redis.Ping(ctx))
	return status
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newHealthMux(ready *readiness) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := ready.check(r.Context())
		code, status := http.StatusOK, "ready"
		for _, v := range checks {
			if v != "ok" {
				code, status = http.StatusServiceUnavailable, "not_ready"
				break
			}
		}
		writeJSON(w, code, map[string]interface{}{"status": status, "checks": checks})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func newHealthServer(addr string, ready *readiness, log logger.Logger) *http.Server {
	log.Info("health/metrics server listening", map[string]interface{}{"addr": addr})
	return &http.Server{
		Addr:              addr,
		Handler:           newHealthMux(ready),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
