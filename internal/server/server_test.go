package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mv77/estimagic/internal/config"
	"github.com/Mv77/estimagic/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Environment = "test"
	// Keep test jobs small and fast.
	cfg.Multistart.NSamples = 20
	cfg.Multistart.ShareOptimizations = 0.1
	return cfg
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.NewLogger(&logging.Config{
		Level:  "debug",
		Format: "console",
		Output: "stdout",
	})
	require.NoError(t, err)
	return logger
}

func testServer(t *testing.T) (*Server, *chi.Mux) {
	t.Helper()
	srv := NewServer(testConfig(t), testLogger(t))
	t.Cleanup(func() { srv.Close() })
	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	return srv, r
}

func postOptimize(t *testing.T, r http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func getStatus(t *testing.T, r http.Handler, id string) map[string]interface{} {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status/"+id, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// waitForStatus polls the status endpoint until the job leaves the
// pending/running states.
func waitForStatus(t *testing.T, r http.Handler, id string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		body := getStatus(t, r, id)
		status := body["status"].(string)
		if status != "pending" && status != "running" {
			return body
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("optimization did not finish in time")
	return nil
}

func TestNewServer(t *testing.T) {
	srv, _ := testServer(t)
	assert.NotNil(t, srv)
}

func TestOptimizeLifecycle(t *testing.T) {
	_, r := testServer(t)

	rec := postOptimize(t, r, `{"criterion": "sphere", "bounds": [[-5, 5], [-5, 5]]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	id := accepted["optimization_id"]
	require.NotEmpty(t, id)
	assert.Equal(t, "pending", accepted["status"])

	body := waitForStatus(t, r, id)
	require.Equal(t, "completed", body["status"])
	assert.Contains(t, []string{"converged", "exhausted"}, body["stopping_reason"])
	assert.NotEmpty(t, body["end_time"])
	assert.NotContains(t, body, "error")

	best, ok := body["best"].(map[string]interface{})
	require.True(t, ok, "completed job must report a best optimum")
	assert.InDelta(t, 0, best["value"].(float64), 1e-3)

	optima, ok := body["local_optima"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, optima)
	first := optima[0].(map[string]interface{})
	assert.Contains(t, first, "start_point")
	assert.Contains(t, first, "success")
}

func TestOptimizeWithOptionsOverride(t *testing.T) {
	_, r := testServer(t)

	body := fmt.Sprintf(`{
		"criterion": "rosenbrock",
		"bounds": [[-2, 2], [-2, 2]],
		"options": %s
	}`, `{
		"n_samples": 30,
		"share_optimizations": 0.1,
		"sampling_method": "latin_hypercube",
		"sampling_distribution": "uniform",
		"mixing_weight_method": "tiktak",
		"mixing_weight_min": 0.1,
		"mixing_weight_max": 0.995,
		"max_discoveries": 2,
		"relative_params_tolerance": 0.01,
		"relative_criterion_tolerance": 1e-8,
		"n_cores": 2,
		"batch_evaluator": "parallel",
		"batch_size": 10,
		"seed": 7,
		"exploration_error_handling": "continue",
		"optimization_error_handling": "continue"
	}`)

	rec := postOptimize(t, r, body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	status := waitForStatus(t, r, accepted["optimization_id"])
	assert.Equal(t, "completed", status["status"])
}

func TestOptimizeRejectsBadRequests(t *testing.T) {
	_, r := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing bounds", `{"criterion": "sphere"}`},
		{"unknown criterion", `{"criterion": "himmelblau", "bounds": [[-1, 1]]}`},
		{"unknown sampling method", `{"criterion": "sphere", "bounds": [[-1, 1]],
			"options": {"sampling_method": "dragons", "sampling_distribution": "uniform",
			"mixing_weight_method": "tiktak", "share_optimizations": 0.1, "max_discoveries": 1,
			"batch_evaluator": "sequential", "n_cores": 1, "batch_size": 1,
			"exploration_error_handling": "continue", "optimization_error_handling": "continue"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postOptimize(t, r, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestStatusUnknownID(t *testing.T) {
	_, r := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status/opt_unknown", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelUnknownID(t *testing.T) {
	_, r := testServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/optimization/opt_unknown", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelFinishedJobConflicts(t *testing.T) {
	_, r := testServer(t)

	rec := postOptimize(t, r, `{"criterion": "sphere", "bounds": [[-1, 1]]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var accepted map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	id := accepted["optimization_id"]
	waitForStatus(t, r, id)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/optimization/"+id, nil)
	cancelRec := httptest.NewRecorder()
	r.ServeHTTP(cancelRec, req)
	assert.Equal(t, http.StatusConflict, cancelRec.Code)
}
