// Package httpapi is the thin HTTP translation layer in front of
// internal/bgpcore: decode a request, validate it, run the core, encode
// the result. Built the way the teacher's internal/http.Server is built
// (http.ServeMux, net.Listen + srv.Serve in a goroutine, Shutdown(ctx)
// for graceful drain).
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/route-beacon/bgpsim/internal/bgpcore"
	"github.com/route-beacon/bgpsim/internal/examples"
	"github.com/route-beacon/bgpsim/internal/metrics"
	"github.com/route-beacon/bgpsim/internal/validate"
)

const serviceVersion = "1.0.0"

// RunPersister is the subset of store.Writer the adapter depends on.
type RunPersister interface {
	SaveRun(ctx context.Context, cfg bgpcore.Config, results bgpcore.Results) (bool, error)
}

// TimelinePublisher is the subset of eventbus.Publisher the adapter
// depends on.
type TimelinePublisher interface {
	PublishTimeline(ctx context.Context, scenario string, events []bgpcore.Event)
}

type Server struct {
	srv       *http.Server
	limits    validate.Limits
	store     RunPersister
	publisher TimelinePublisher
	logger    *zap.Logger
}

// NewServer wires the handlers. store and publisher are both optional —
// a nil store skips persistence, a nil publisher skips timeline
// publishing, mirroring spec.md §9's "optional subsystems" stance.
func NewServer(addr string, limits validate.Limits, store RunPersister, publisher TimelinePublisher, logger *zap.Logger) *Server {
	s := &Server{
		limits:    limits,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/examples", s.handleExamples)
	mux.HandleFunc("/validate", s.handleValidate)
	mux.HandleFunc("/simulate", s.handleSimulate)
	mux.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("HTTP server listening", zap.String("addr", s.srv.Addr))
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "bgpsim",
		"version": serviceVersion,
	})
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, examples.Catalog())
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req validate.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	cfg, err := validate.Config(req, s.limits)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "config": cfg})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req validate.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	cfg, err := validate.Config(req, s.limits)
	if err != nil {
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}

	start := time.Now()
	results, err := bgpcore.RunSimulation(cfg)
	metrics.SimulationDuration.WithLabelValues(cfg.Scenario).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SimulationsTotal.WithLabelValues(cfg.Scenario, "error").Inc()
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}

	metrics.SimulationsTotal.WithLabelValues(cfg.Scenario, "ok").Inc()
	metrics.ConvergenceSteps.Observe(float64(results.Metrics.ConvergenceSteps))
	metrics.BestRouteChangesTotal.Add(float64(results.Metrics.BestRouteChangesTotal))

	if s.store != nil {
		if _, err := s.store.SaveRun(r.Context(), cfg, results); err != nil {
			s.logger.Error("httpapi: persisting run", zap.Error(err))
		}
	}
	if s.publisher != nil {
		s.publisher.PublishTimeline(r.Context(), cfg.Scenario, results.Timeline)
	}

	writeJSON(w, http.StatusOK, results)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
