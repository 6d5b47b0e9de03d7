// cmd/worker-manager/server_test.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"counsel-workers/internal/common/config"
	"counsel-workers/pkg/registry"
)

type fakeCheck struct{ err error }

func (f fakeCheck) HealthCheck(context.Context) error { return f.err }
func (f fakeCheck) Ping(context.Context) error        { return f.err }

func TestHealthMux(t *testing.T) {
	tests := []struct {
		name       string
		ready      *readiness
		path       string
		wantCode   int
		wantStatus string
	}{
		{
			name:       "liveness ignores dependencies",
			ready:      &readiness{zeebe: fakeCheck{errors.New("down")}, pg: fakeCheck{}, redis: fakeCheck{}},
			path:       "/health",
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
		},
		{
			name:       "ready",
			ready:      &readiness{zeebe: fakeCheck{}, pg: fakeCheck{}, redis: fakeCheck{}},
			path:       "/ready",
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:       "redis down",
			ready:      &readiness{zeebe: fakeCheck{}, pg: fakeCheck{}, redis: fakeCheck{errors.New("dial tcp: refused")}},
			path:       "/ready",
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHealthMux(tt.ready).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func TestReadiness_ReportsEachCheck(t *testing.T) {
	r := &readiness{zeebe: fakeCheck{}, pg: fakeCheck{errors.New("too many clients")}, redis: fakeCheck{}}

	checks := r.check(context.Background())

	assert.Equal(t, map[string]string{"zeebe": "ok", "postgres": "too many clients", "redis": "ok"}, checks)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	mux := newHealthMux(&readiness{zeebe: fakeCheck{}, pg: fakeCheck{}, redis: fakeCheck{}})
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestTimeoutOr(t *testing.T) {
	assert.Equal(t, 5*time.Second, timeoutOr(config.WorkerConfig{}, 5*time.Second))
	assert.Equal(t, 1500*time.Millisecond, timeoutOr(config.WorkerConfig{Timeout: 1500}, 5*time.Second))
}

func TestWorkerTimeout(t *testing.T) {
	reg, err := registry.Parse([]byte(`{"activities":[{"taskType":"score-lead","timeout":"3s"}]}`))
	require.NoError(t, err)
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{"route-case": {Timeout: 2000}}}

	assert.Equal(t, 3*time.Second, workerTimeout(cfg, reg, "score-lead", 5*time.Second))
	assert.Equal(t, 2*time.Second, workerTimeout(cfg, reg, "route-case", 5*time.Second))
	assert.Equal(t, 5*time.Second, workerTimeout(cfg, nil, "score-lead", 5*time.Second))
}

func TestTaskTypes_AllRegistered(t *testing.T) {
	reg, err := registry.LoadRegistry("../../" + registry.DefaultPath)
	require.NoError(t, err)
	assert.Empty(t, reg.Missing(taskTypes()))
	assert.Len(t, taskTypes(), len(reg.Activities))
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, zapNop(), "flaky op")

	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	err = retryWithBackoff(func() error { return errors.New("always") }, 2, time.Millisecond, zapNop(), "broken op")
	assert.ErrorContains(t, err, "broken op failed after 2 attempts")
}

func zapNop() *zap.Logger { return zap.NewNop() }
