// Package api exposes the evaluation results over HTTP. All responses are
// plain JSON value objects; the engine itself stays behind the scheduler.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rahulrathod315/apipulse/internal/compare"
	"github.com/rahulrathod315/apipulse/internal/incident"
	"github.com/rahulrathod315/apipulse/internal/scheduler"
	"github.com/rahulrathod315/apipulse/internal/storage"
)

// Server is the HTTP API server
type Server struct {
	scheduler *scheduler.Scheduler
	server    *http.Server
}

// NewServer creates a new API server
func NewServer(sched *scheduler.Scheduler, addr string) *Server {
	s := &Server{
		scheduler: sched,
	}

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	// SLA endpoints
	mux.HandleFunc("/v1/sla", s.handleSLAList)
	mux.HandleFunc("/v1/sla/", s.handleSLAGet)

	// Evaluation trigger
	mux.HandleFunc("/v1/evaluate", s.handleEvaluate)

	// Alert endpoints
	mux.HandleFunc("/v1/alerts", s.handleAlertList)
	mux.HandleFunc("/v1/alerts/", s.handleAlertHealth)

	// Period comparison
	mux.HandleFunc("/v1/compare", s.handleCompare)

	// Audit endpoint
	mux.HandleFunc("/v1/audit", s.handleAudit)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	return s.server.Shutdown(ctx)
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleReady handles GET /readyz
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defs := s.scheduler.GetDefinitions()
	cacheSize := s.scheduler.GetCache().Size()

	slasLoaded := 0
	if defs != nil {
		slasLoaded = len(defs.SLAs)
	}

	ready := slasLoaded > 0
	reasons := []string{}

	if slasLoaded == 0 {
		reasons = append(reasons, "no SLAs loaded")
	}

	if cacheSize == 0 {
		reasons = append(reasons, "no evaluations cached yet")
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, ReadyResponse{
		Ready:      ready,
		SLAsLoaded: slasLoaded,
		Reasons:    reasons,
	})
}

// handleSLAList handles GET /v1/sla
func (s *Server) handleSLAList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defs := s.scheduler.GetDefinitions()

	summaries := []SLASummary{}
	if defs != nil {
		for _, sw := range defs.SLAs {
			summaries = append(summaries, SLASummary{
				ID:               sw.SLA.Metadata.ID,
				Project:          sw.SLA.Metadata.Project,
				UptimeTarget:     sw.SLA.Spec.UptimeTargetPercent,
				EvaluationPeriod: string(sw.SLA.Spec.EvaluationPeriod),
			})
		}
	}

	respondJSON(w, http.StatusOK, SLAListResponse{SLAs: summaries})
}

// handleSLAGet handles GET /v1/sla/{id} and the compliance, budget and
// incidents subresources.
func (s *Server) handleSLAGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/sla/")
	parts := strings.Split(path, "/")
	id := parts[0]
	if id == "" {
		respondError(w, http.StatusBadRequest, "SLA ID required")
		return
	}

	defs := s.scheduler.GetDefinitions()
	if defs == nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("SLA not found: %s", id))
		return
	}

	for _, sw := range defs.SLAs {
		if sw.SLA.Metadata.ID != id {
			continue
		}

		if len(parts) == 1 {
			respondJSON(w, http.StatusOK, sw.SLA)
			return
		}

		switch parts[1] {
		case "compliance":
			s.respondCompliance(w, id)
		case "budget":
			s.respondBudget(w, id)
		case "incidents":
			s.respondIncidents(w, id)
		default:
			respondError(w, http.StatusNotFound, fmt.Sprintf("unknown subresource: %s", parts[1]))
		}
		return
	}

	respondError(w, http.StatusNotFound, fmt.Sprintf("SLA not found: %s", id))
}

func (s *Server) respondCompliance(w http.ResponseWriter, id string) {
	state, ok := s.scheduler.GetCache().Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no evaluation found for SLA: %s", id))
		return
	}

	respondJSON(w, http.StatusOK, ComplianceResponse{
		SLAID:      id,
		Compliance: state.Compliance,
		UpdatedAt:  state.UpdatedAt,
		Stale:      state.IsStale(time.Now()),
	})
}

func (s *Server) respondBudget(w http.ResponseWriter, id string) {
	state, ok := s.scheduler.GetCache().Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no evaluation found for SLA: %s", id))
		return
	}

	respondJSON(w, http.StatusOK, BudgetResponse{
		SLAID:     id,
		Budget:    state.Budget,
		UpdatedAt: state.UpdatedAt,
		Stale:     state.IsStale(time.Now()),
	})
}

func (s *Server) respondIncidents(w http.ResponseWriter, id string) {
	state, ok := s.scheduler.GetCache().Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no evaluation found for SLA: %s", id))
		return
	}

	incidents := state.Incidents
	if incidents == nil {
		incidents = []incident.Incident{}
	}

	respondJSON(w, http.StatusOK, IncidentsResponse{
		SLAID:     id,
		Incidents: incidents,
		UpdatedAt: state.UpdatedAt,
	})
}

// handleEvaluate handles POST /v1/evaluate
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	if req.SLAID == "" {
		respondError(w, http.StatusBadRequest, "slaID required")
		return
	}

	if err := s.scheduler.EvaluateNow(req.SLAID); err != nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("evaluation failed: %v", err))
		return
	}

	s.respondCompliance(w, req.SLAID)
}

// handleAlertList handles GET /v1/alerts
func (s *Server) handleAlertList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defs := s.scheduler.GetDefinitions()

	summaries := []AlertSummary{}
	if defs != nil {
		for _, aw := range defs.Alerts {
			summaries = append(summaries, AlertSummary{
				ID:      aw.Alert.Metadata.ID,
				Project: aw.Alert.Metadata.Project,
				Enabled: aw.Alert.Spec.Enabled,
			})
		}
	}

	respondJSON(w, http.StatusOK, AlertListResponse{Alerts: summaries})
}

// handleAlertHealth handles GET /v1/alerts/{id}/health
func (s *Server) handleAlertHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/alerts/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "health" {
		respondError(w, http.StatusBadRequest, "invalid path format, expected /v1/alerts/{id}/health")
		return
	}

	id := parts[0]
	state, ok := s.scheduler.GetAlertScores().Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no health score for alert: %s", id))
		return
	}

	respondJSON(w, http.StatusOK, AlertHealthResponse{
		AlertID:         id,
		Health:          state.Score,
		TriggersPerWeek: state.TriggersPerWeek,
		UpdatedAt:       state.UpdatedAt,
	})
}

// handleCompare handles POST /v1/compare
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	invert := make(map[string]bool, len(req.InvertKeys))
	for _, key := range req.InvertKeys {
		invert[key] = true
	}

	comparisons, err := compare.Compare(req.Current, req.Previous, invert)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, CompareResponse{Comparisons: comparisons})
}

// handleAudit handles GET /v1/audit
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	store := s.scheduler.GetStore()
	if store == nil {
		respondError(w, http.StatusServiceUnavailable, "persistent storage not configured")
		return
	}

	query := r.URL.Query()
	filter := storage.EvaluationFilter{
		SLAID:   query.Get("slaID"),
		Project: query.Get("project"),
	}

	if meetingStr := query.Get("meetingSLA"); meetingStr != "" {
		if meeting, err := strconv.ParseBool(meetingStr); err == nil {
			filter.MeetingSLA = &meeting
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	if startTimeStr := query.Get("startTime"); startTimeStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			filter.StartTime = &startTime
		}
	}

	if endTimeStr := query.Get("endTime"); endTimeStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			filter.EndTime = &endTime
		}
	}

	records, err := store.QueryEvaluations(filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query audit: %v", err))
		return
	}

	responseRecords := make([]AuditRecordResponse, len(records))
	for i, record := range records {
		responseRecords[i] = AuditRecordResponse{
			ID:              record.ID,
			SLAID:           record.SLAID,
			Project:         record.Project,
			MeetingSLA:      record.MeetingSLA,
			AtRisk:          record.AtRisk,
			Accelerating:    record.Accelerating,
			UptimePercent:   record.UptimePercent,
			DownHours:       record.DownHours,
			ConsumedPercent: record.ConsumedPercent,
			Timestamp:       record.Timestamp,
			CreatedAt:       record.CreatedAt,
		}
	}

	respondJSON(w, http.StatusOK, AuditResponse{
		Records: responseRecords,
		Total:   len(responseRecords),
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
