// Package server exposes the multistart engine as an asynchronous job API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Mv77/estimagic/internal/config"
	"github.com/Mv77/estimagic/internal/logging"
	"github.com/Mv77/estimagic/internal/optimization"
	"github.com/Mv77/estimagic/internal/optimization/benchmarks"
	"github.com/Mv77/estimagic/internal/optimization/localopt"
	"github.com/Mv77/estimagic/internal/optimization/multistart"
)

// Logger defines the logging interface used by the server.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Job tracks one multistart run through its lifecycle. The struct is guarded
// by the server's mutex; result and times are written exactly once.
type Job struct {
	ID          string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time
	Result      *multistart.Result
	Err         error
	cancel      context.CancelFunc
}

// Server manages multistart jobs and serves their state over REST.
type Server struct {
	cfg    *config.Config
	logger Logger

	jobs   map[string]*Job
	jobsMu sync.RWMutex
}

// NewServer creates a server instance with the given config and logger.
func NewServer(cfg *config.Config, logger Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		jobs:   make(map[string]*Job),
	}
}

// RegisterRoutes mounts the job API under /api/v1.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
	})
}

// optimizeRequest is the body of POST /api/v1/optimize. The criterion is
// looked up in the benchmark registry by name; bounds define the admissible
// domain; options keys overlay the configured multistart defaults.
type optimizeRequest struct {
	Criterion string          `json:"criterion"`
	Bounds    [][2]float64    `json:"bounds"`
	Options   json.RawMessage `json:"options,omitempty"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Bounds) == 0 {
		s.respondError(w, http.StatusBadRequest, "bounds are required")
		return
	}

	criterion, err := benchmarks.Lookup(req.Criterion)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msConfig := s.cfg.Multistart
	if len(req.Options) > 0 {
		if err := json.Unmarshal(req.Options, &msConfig); err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid options: %v", err))
			return
		}
		if msConfig.BatchSize == 0 {
			msConfig.BatchSize = msConfig.NCores
		}
	}
	opts, err := msConfig.Options()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	evaluator, err := msConfig.Evaluator()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	engine, err := multistart.New(opts, evaluator, localopt.NewNelderMead())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if concrete, ok := s.logger.(*logging.Logger); ok {
		engine.WithLogger(logging.NewZapLogger(concrete))
	}

	id := fmt.Sprintf("opt_%d", time.Now().UnixNano())
	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:          id,
		Status:      "pending",
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
		cancel:      cancel,
	}

	s.jobsMu.Lock()
	s.jobs[id] = job
	s.jobsMu.Unlock()

	jobsStarted.Inc()
	go s.runJob(ctx, job, engine, criterion, optimization.Bounds(req.Bounds))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"optimization_id": id,
		"status":          "pending",
	})
}

// runJob executes one multistart run and records its terminal state.
func (s *Server) runJob(ctx context.Context, job *Job, engine *multistart.Optimizer,
	criterion optimization.CriterionFunction, bounds optimization.Bounds) {

	s.jobsMu.Lock()
	job.Status = "running"
	job.LastUpdated = time.Now()
	s.jobsMu.Unlock()

	counted := func(x []float64) (float64, error) {
		evaluations.Inc()
		return criterion(x)
	}
	result, err := engine.Minimize(ctx, counted, bounds)

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if job.Status == "cancelled" {
		return
	}
	now := time.Now()
	job.EndTime = &now
	job.LastUpdated = now
	if err != nil {
		s.logger.Error("Optimization failed", map[string]interface{}{
			"optimization_id": job.ID,
			"error":           err.Error(),
		})
		job.Status = "failed"
		job.Err = err
		jobsFailed.Inc()
		return
	}
	job.Status = "completed"
	job.Result = result
	jobsCompleted.Inc()
	s.logger.Info("Optimization completed", map[string]interface{}{
		"optimization_id": job.ID,
		"state":           result.State.String(),
		"n_local_optima":  len(result.LocalOptima),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.RLock()
	job, exists := s.jobs[id]
	if !exists {
		s.jobsMu.RUnlock()
		s.respondError(w, http.StatusNotFound, "optimization not found")
		return
	}

	response := map[string]interface{}{
		"optimization_id": job.ID,
		"status":          job.Status,
		"start_time":      job.StartTime.Format(time.RFC3339),
		"last_update":     job.LastUpdated.Format(time.RFC3339),
	}
	if job.EndTime != nil {
		response["end_time"] = job.EndTime.Format(time.RFC3339)
	}
	if job.Err != nil {
		response["error"] = job.Err.Error()
	}
	if res := job.Result; res != nil {
		response["stopping_reason"] = res.State.String()
		response["n_local_optimizations"] = len(res.LocalOptima)
		response["n_exploration_failures"] = res.Exploration.NFailed()
		if res.Best != nil {
			response["best"] = map[string]interface{}{
				"params": res.Best.Params,
				"value":  res.Best.Value,
			}
		}
		optima := make([]map[string]interface{}, len(res.LocalOptima))
		for i, opt := range res.LocalOptima {
			optima[i] = map[string]interface{}{
				"params":      opt.Params,
				"value":       opt.Value,
				"start_point": opt.StartPoint,
				"success":     opt.Success,
				"message":     opt.Message,
			}
		}
		response["local_optima"] = optima
	}
	s.jobsMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		s.respondError(w, http.StatusNotFound, "optimization not found")
		return
	}
	switch job.Status {
	case "completed", "failed", "cancelled":
		s.respondError(w, http.StatusConflict, fmt.Sprintf("cannot cancel optimization with status %q", job.Status))
		return
	}

	job.cancel()
	job.Status = "cancelled"
	now := time.Now()
	job.EndTime = &now
	job.LastUpdated = now

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": id,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
}

func (s *Server) respondError(w http.ResponseWriter, code int, message string) {
	s.logger.Error("Request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Close cancels all running jobs.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	for _, job := range s.jobs {
		if job.cancel != nil {
			job.cancel()
		}
	}
	return nil
}
