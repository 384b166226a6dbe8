// Package web serves the latest analysis over HTTP.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ritzau/pom-graph/pkg/analysis"
	"github.com/ritzau/pom-graph/pkg/cycles"
	"github.com/ritzau/pom-graph/pkg/diagram"
	"github.com/ritzau/pom-graph/pkg/graph"
	"github.com/ritzau/pom-graph/pkg/lens"
	"github.com/ritzau/pom-graph/pkg/logging"
	"github.com/ritzau/pom-graph/pkg/pubsub"
)

// shutdownTimeout bounds graceful shutdown once the serving context ends
const shutdownTimeout = 5 * time.Second

// ReportResponse is the body of /api/report
type ReportResponse struct {
	pubsub.RunSummary
	POMPath      string          `json:"pomPath"`
	OutputPath   string          `json:"outputPath"`
	CycleDetails []cycles.Cycle  `json:"cycleDetails"`
	IssueCounts  analysis.Issues `json:"issueCounts"`
}

// ArtifactResponse is the body of /api/artifacts/{key}
type ArtifactResponse struct {
	Key          string   `json:"key"`
	Expanded     bool     `json:"expanded"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
}

// Server exposes the most recent report. It implements analysis.Publisher.
type Server struct {
	router    *mux.Router
	publisher *pubsub.Broker
	logger    *slog.Logger

	mu        sync.RWMutex
	report    *analysis.Report
	artifacts *graph.ArtifactGraph
	diagram   []byte
}

// NewServer creates a new web server
func NewServer() *Server {
	broker := pubsub.NewBroker()

	// Late subscribers only need the current state
	broker.ConfigureTopic(pubsub.TopicAnalysis, pubsub.TopicConfig{
		BufferSize: 1,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: broker,
		logger:    logging.New("web"),
	}
	s.setupRoutes()
	return s
}

// RunStarted announces a new run to event subscribers
func (s *Server) RunStarted(reason string) {
	s.publish(pubsub.EventStarted, pubsub.RunStatus{Reason: reason})
}

// RunFailed announces a failed run; the previous report stays available
func (s *Server) RunFailed(reason string, err error) {
	s.publish(pubsub.EventFailed, pubsub.RunStatus{Reason: reason, Error: err.Error()})
}

// Publish makes report the one served by the API
func (s *Server) Publish(report *analysis.Report) {
	var buf bytes.Buffer
	if err := diagram.Write(&buf, report.Graph); err != nil {
		s.logger.Error("rendering diagram", "error", err)
	}
	artifacts := graph.FromModel(report.Graph)

	s.mu.Lock()
	s.report = report
	s.artifacts = artifacts
	s.diagram = buf.Bytes()
	s.mu.Unlock()

	s.publish(pubsub.EventCompleted, report.Summary())
}

func (s *Server) publish(eventType string, data any) {
	if err := s.publisher.Publish(pubsub.TopicAnalysis, eventType, data); err != nil {
		s.logger.Warn("publishing event", "type", eventType, "error", err)
	}
}

// Handler returns the routed API wrapped in the request logging middleware
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.HandleFunc("/api/events", s.handleEvents).Methods("GET")
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/diagram", s.handleDiagram).Methods("GET")
	s.router.HandleFunc("/api/report", s.handleReport).Methods("GET")
	s.router.HandleFunc("/api/changes", s.handleChanges).Methods("GET")
	s.router.HandleFunc("/api/artifacts/{key}", s.handleArtifact).Methods("GET")
}

// latest returns the current report, or writes 503 and returns nil
func (s *Server) latest(w http.ResponseWriter) (*analysis.Report, *graph.ArtifactGraph, []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.report == nil {
		http.Error(w, "analysis not available yet", http.StatusServiceUnavailable)
		return nil, nil, nil
	}
	return s.report, s.artifacts, s.diagram
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// lensFromQuery reads ?focus=&depth=&direction=&hide_unexpanded=. ok is false
// when no lens parameter is present; focus may repeat or be comma separated.
func lensFromQuery(r *http.Request) (cfg lens.Config, ok bool, err error) {
	q := r.URL.Query()
	cfg.Depth = lens.Unlimited

	for _, v := range q["focus"] {
		for _, key := range strings.Split(v, ",") {
			if key = strings.TrimSpace(key); key != "" {
				cfg.Focus = append(cfg.Focus, key)
			}
		}
	}
	if v := q.Get("depth"); v != "" {
		depth, err := strconv.Atoi(v)
		if err != nil || depth < 0 {
			return cfg, false, fmt.Errorf("invalid depth %q", v)
		}
		cfg.Depth = depth
	}
	if cfg.Direction, err = lens.ParseDirection(q.Get("direction")); err != nil {
		return cfg, false, err
	}
	if v := q.Get("hide_unexpanded"); v != "" {
		if cfg.HideUnexpanded, err = strconv.ParseBool(v); err != nil {
			return cfg, false, fmt.Errorf("invalid hide_unexpanded %q", v)
		}
	}

	ok = len(cfg.Focus) > 0 || cfg.HideUnexpanded
	return cfg, ok, nil
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	report, _, _ := s.latest(w)
	if report == nil {
		return
	}

	cfg, ok, err := lensFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !ok {
		s.writeJSON(w, r, report.Graph)
		return
	}
	s.writeJSON(w, r, lens.Apply(report.Graph, cfg))
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	report, _, puml := s.latest(w)
	if report == nil {
		return
	}

	cfg, ok, err := lensFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if ok {
		var buf bytes.Buffer
		if err := diagram.Write(&buf, lens.Apply(report.Graph, cfg)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		puml = buf.Bytes()
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(puml)
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	report, _, _ := s.latest(w)
	if report == nil {
		return
	}
	changes := report.Changes
	if changes == nil {
		changes = lens.ComputeDiff(nil, report.Graph)
	}
	s.writeJSON(w, r, changes)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, _, _ := s.latest(w)
	if report == nil {
		return
	}
	s.writeJSON(w, r, ReportResponse{
		RunSummary:   report.Summary(),
		POMPath:      report.POMPath,
		OutputPath:   report.OutputPath,
		CycleDetails: report.Cycles,
		IssueCounts:  report.Issues,
	})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	report, artifacts, _ := s.latest(w)
	if report == nil {
		return
	}

	key := mux.Vars(r)["key"]
	node, ok := artifacts.GetNode(key)
	if !ok {
		http.Error(w, fmt.Sprintf("artifact not found: %s", key), http.StatusNotFound)
		return
	}

	deps := artifacts.GetDependencies(key)
	dependents := artifacts.GetDependents(key)
	sort.Strings(deps)
	sort.Strings(dependents)

	s.writeJSON(w, r, ArtifactResponse{
		Key:          node.Key,
		Expanded:     node.Expanded,
		Dependencies: nonNil(deps),
		Dependents:   nonNil(dependents),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sub, err := s.publisher.Subscribe(r.Context(), pubsub.TopicAnalysis)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	rc := http.NewResponseController(w)

	// Initial comment establishes the stream before the first event
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		s.logger.Warn("streaming not supported", "error", err)
		return
	}

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			s.logger.Debug("event stream closed", "error", err)
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ErrorContext(r.Context(), "encoding response", "path", r.URL.Path, "error", err)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Close ends all event streams
func (s *Server) Close() error {
	return s.publisher.Close()
}

// Start serves on port until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	// Event streams only end when the broker closes
	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("web server stopped")
	return nil
}
