package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/raaihank/pii-sentinel/internal/cache"
	"github.com/raaihank/pii-sentinel/internal/events"
	"github.com/raaihank/pii-sentinel/internal/metrics"
	"github.com/raaihank/pii-sentinel/internal/privacy"
)

// redactRequest is the body of POST /v1/redact. Data must be a JSON object;
// the server never feeds invalid JSON to the engine.
type redactRequest struct {
	RecordID string          `json:"record_id,omitempty"`
	Data     json.RawMessage `json:"data"`
}

// redactResponse mirrors the pipeline's per-row output.
type redactResponse struct {
	RecordID     string            `json:"record_id,omitempty"`
	RedactedData privacy.Record    `json:"redacted_data"`
	IsPII        bool              `json:"is_pii"`
	Findings     []privacy.Finding `json:"findings,omitempty"`
	Cached       bool              `json:"cached,omitempty"`
}

// handleRedact classifies and redacts a single record.
func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := s.logger.WithRequestID(getRequestID(r.Context()))

	var req redactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, "missing data object")
		return
	}

	var record privacy.Record
	if err := json.Unmarshal(req.Data, &record); err != nil {
		writeError(w, http.StatusBadRequest, "data must be a JSON object")
		return
	}

	metrics.RecordsTotal.Inc()
	s.totalRecords.Add(1)

	resp := redactResponse{RecordID: req.RecordID}

	if cached, ok := s.lookupCache(r, req.Data); ok {
		resp.RedactedData = cached.Redacted
		resp.IsPII = cached.IsPII
		resp.Findings = cached.Findings
		resp.Cached = true
	} else {
		outcome := s.engine.ProcessRecord(record)
		resp.RedactedData = outcome.Redacted
		resp.IsPII = outcome.IsPII
		resp.Findings = outcome.Findings
		s.storeCache(r, req.Data, outcome)
	}

	if resp.IsPII {
		metrics.PIIRecordsTotal.Inc()
		s.totalPII.Add(1)
	}
	if !resp.Cached {
		for _, finding := range resp.Findings {
			metrics.MaskedFieldsTotal.WithLabelValues(string(finding.Kind)).Inc()
		}
	}

	processingMS := float64(time.Since(start).Microseconds()) / 1000.0
	log.Debug("Record redacted",
		zap.String("record_id", req.RecordID),
		zap.Bool("is_pii", resp.IsPII),
		zap.Int("findings", len(resp.Findings)),
		zap.Bool("cached", resp.Cached),
	)

	s.hub.BroadcastEvent(events.Event{
		Type:      events.EventTypeRecordRedacted,
		Timestamp: time.Now(),
		RequestID: getRequestID(r.Context()),
		Data: events.RecordRedactedEvent{
			RecordID:      req.RecordID,
			IsPII:         resp.IsPII,
			Findings:      resp.Findings,
			TotalFindings: len(resp.Findings),
			ProcessingMS:  processingMS,
			Source:        "api",
		},
	})

	writeJSON(w, http.StatusOK, resp)
}

// lookupCache returns a cached verdict for the raw payload, when the cache
// is enabled.
func (s *Server) lookupCache(r *http.Request, payload []byte) (*cache.CachedOutcome, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(r.Context(), payload)
}

// storeCache records the verdict for future identical payloads. Failures are
// logged and otherwise ignored; the response is already computed.
func (s *Server) storeCache(r *http.Request, payload []byte, outcome privacy.ProcessResult) {
	if s.cache == nil {
		return
	}
	err := s.cache.Store(r.Context(), payload, &cache.CachedOutcome{
		Redacted: outcome.Redacted,
		IsPII:    outcome.IsPII,
		Findings: outcome.Findings,
	})
	if err != nil {
		s.logger.Warn("Failed to store outcome in cache", zap.Error(err))
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	kinds := make([]string, 0, len(privacy.StandaloneRules()))
	for _, rule := range privacy.StandaloneRules() {
		kinds = append(kinds, string(rule.Kind))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":               "pii-sentinel",
		"privacy_enabled":    s.config.Privacy.Enabled,
		"strict_field_names": s.config.Privacy.StrictFieldNames,
		"standalone_kinds":   kinds,
		"cache_enabled":      s.cache != nil,
		"total_records":      s.totalRecords.Load(),
		"total_pii_records":  s.totalPII.Load(),
		"uptime":             time.Since(s.startTime).Round(time.Second).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
