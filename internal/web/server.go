package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/mstanton/mend/internal/analytics"
	"github.com/mstanton/mend/internal/db"
)

// Server is the read-only dashboard API over the audit ledger. It serves
// JSON; the loop never depends on it.
type Server struct {
	db   *db.DB
	port int
}

// NewServer creates a Server over the given ledger.
func NewServer(database *db.DB, port int) *Server {
	return &Server{db: database, port: port}
}

// Handler returns the routed handler, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/passes", s.handlePasses)
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/workflows", s.handleWorkflows)
	mux.HandleFunc("/api/events/stream", s.handleEventStream)
	return mux
}

// Start begins listening and blocks.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("mend dashboard: http://localhost%s/api/status", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// runParam resolves the ?run= query parameter, defaulting to the most
// recent run.
func (s *Server) runParam(r *http.Request) (string, error) {
	if run := r.URL.Query().Get("run"); run != "" {
		return run, nil
	}
	return s.db.LatestRunID()
}

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// StatusResponse is the /api/status payload: where the current (or last)
// run stands.
type StatusResponse struct {
	RunID       string                  `json:"run_id"`
	LastEvent   *db.LoopEvent           `json:"last_event,omitempty"`
	LastMetrics *db.ProbeMetrics        `json:"last_metrics,omitempty"`
	Convergence []analytics.MetricPoint `json:"convergence,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := StatusResponse{RunID: runID}
	if runID == "" {
		writeJSON(w, resp)
		return
	}

	if events, err := s.db.ListEvents(runID, 0); err == nil && len(events) > 0 {
		resp.LastEvent = &events[len(events)-1]
	}
	if metrics, err := s.db.ListMetrics(runID, 0); err == nil && len(metrics) > 0 {
		resp.LastMetrics = &metrics[len(metrics)-1]
	}
	if points, err := analytics.QueryConvergence(s.db, runID); err == nil {
		resp.Convergence = points
	}
	writeJSON(w, resp)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	summaries, err := analytics.QueryRunSummaries(s.db, r.URL.Query().Get("since"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []analytics.RunSummary{}
	}
	writeJSON(w, summaries)
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	passes, err := s.db.ListPasses(runID, limitParam(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if passes == nil {
		passes = []db.PassRecord{}
	}
	writeJSON(w, passes)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics, err := s.db.ListMetrics(runID, limitParam(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if metrics == nil {
		metrics = []db.ProbeMetrics{}
	}
	writeJSON(w, metrics)
}

func (s *Server) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	stats, err := analytics.QueryWorkflowStats(s.db, r.URL.Query().Get("since"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []analytics.WorkflowStats{}
	}
	writeJSON(w, stats)
}
