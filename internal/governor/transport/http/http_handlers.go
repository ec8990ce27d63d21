// Package httptransport provides HTTP handlers.
package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/core"
)

const defaultMaxBodyBytes = 1 << 20

type httpErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (t *HTTPTransport) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/messages", t.handleSend)
	mux.HandleFunc("/v1/usage", t.handleUsage)
	mux.HandleFunc("/v1/risk", t.handleRisk)
	mux.HandleFunc("/v1/status", t.handleStatus)
	mux.HandleFunc("/v1/pause", t.handlePause)
	mux.HandleFunc("/v1/resume", t.handleResume)
	mux.HandleFunc("/v1/warnings", t.handleWarnings)
	mux.HandleFunc("/v1/warnings/ack", t.handleAcknowledge)
	mux.HandleFunc("/v1/queue", t.handleQueue)
	mux.HandleFunc("/v1/queue/dead", t.handleQueueDead)
	mux.HandleFunc("/v1/limits", t.handleLimits)
	mux.HandleFunc("/healthz", t.handleHealth)
	mux.HandleFunc("/readyz", t.handleReady)
	mux.HandleFunc("/metrics", t.handleMetrics)
}

func (t *HTTPTransport) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	defer func() {
		if t.metrics != nil {
			t.metrics.ObserveLatency("httpSend", time.Since(start))
		}
	}()
	var httpReq HTTPSendRequest
	if err := t.decodeJSON(w, r, &httpReq); err != nil {
		t.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if httpReq.Destination == "" || httpReq.Content == "" {
		t.writeError(w, r, http.StatusBadRequest, core.ErrInvalidInput)
		return
	}
	result, err := t.governor.Send(r.Context(), toSendRequest(httpReq))
	if err != nil {
		switch core.CodeOf(err) {
		case core.CodeInvalidInput:
			t.writeError(w, r, http.StatusBadRequest, err)
		case core.CodeTransportFailure:
			// The message is queued for retry; tell the caller the direct
			// attempt failed.
			writeJSON(w, http.StatusBadGateway, fromSendFailure(result, err))
		default:
			t.writeError(w, r, http.StatusInternalServerError, err)
		}
		return
	}
	status := http.StatusOK
	if result.Outcome == core.OutcomeQueued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, fromSendResult(result))
}

func (t *HTTPTransport) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	usage, err := t.governor.Usage(r.Context())
	if err != nil {
		t.writeGovernorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (t *HTTPTransport) handleRisk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	score, err := t.governor.Score(r.Context())
	if err != nil {
		t.writeGovernorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (t *HTTPTransport) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, t.governor.Status())
}

func (t *HTTPTransport) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !t.authorizeAdmin(w, r) {
		return
	}
	if err := t.governor.Pause(); err != nil {
		t.writeGovernorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t.governor.Status())
}

func (t *HTTPTransport) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !t.authorizeAdmin(w, r) {
		return
	}
	if err := t.governor.Resume(); err != nil {
		t.writeGovernorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t.governor.Status())
}

func (t *HTTPTransport) handleWarnings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	includeAcknowledged := r.URL.Query().Get("includeAcknowledged") == "true"
	warnings := t.governor.Warnings(includeAcknowledged)
	if warnings == nil {
		warnings = []core.BanWarning{}
	}
	writeJSON(w, http.StatusOK, warnings)
}

func (t *HTTPTransport) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !t.authorizeAdmin(w, r) {
		return
	}
	var httpReq HTTPAcknowledgeRequest
	if err := t.decodeJSON(w, r, &httpReq); err != nil {
		t.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if httpReq.ID == "" {
		t.writeError(w, r, http.StatusBadRequest, core.ErrInvalidInput)
		return
	}
	if err := t.governor.Acknowledge(httpReq.ID); err != nil {
		t.writeGovernorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (t *HTTPTransport) handleQueue(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		msgs, err := t.governor.QueuedMessages(r.Context())
		if err != nil {
			t.writeGovernorError(w, r, err)
			return
		}
		if msgs == nil {
			msgs = []core.QueuedMessage{}
		}
		writeJSON(w, http.StatusOK, msgs)
	case http.MethodPost:
		var httpReq HTTPSendRequest
		if err := t.decodeJSON(w, r, &httpReq); err != nil {
			t.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		if httpReq.Destination == "" || httpReq.Content == "" {
			t.writeError(w, r, http.StatusBadRequest, core.ErrInvalidInput)
			return
		}
		id, err := t.governor.Enqueue(r.Context(), toSendRequest(httpReq))
		if err != nil {
			t.writeGovernorError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, HTTPSendResponse{MessageID: id, Outcome: string(core.OutcomeQueued)})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (t *HTTPTransport) handleQueueDead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	msgs, err := t.governor.DeadMessages(r.Context())
	if err != nil {
		t.writeGovernorError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []core.QueuedMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (t *HTTPTransport) handleLimits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !t.authorizeAdmin(w, r) {
		return
	}
	var httpReq HTTPUpdateLimitsRequest
	if err := t.decodeJSON(w, r, &httpReq); err != nil {
		t.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := t.governor.UpdateLimits(httpReq.HourlyLimit, httpReq.DailyLimit); err != nil {
		t.writeGovernorError(w, r, err)
		return
	}
	usage, err := t.governor.Usage(r.Context())
	if err != nil {
		t.writeGovernorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (t *HTTPTransport) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if t.appReady != nil && t.appReady() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}

func (t *HTTPTransport) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if t.metrics == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, t.metrics.Snapshot())
}

func (t *HTTPTransport) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return core.ErrInvalidInput
	}
	maxBytes := t.maxBodyBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return core.ErrInvalidInput
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return core.ErrInvalidInput
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (t *HTTPTransport) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if t != nil {
		t.logRequestError(r, status, err)
	}
	writeJSON(w, status, httpErrorResponse{Error: err.Error(), Code: string(core.CodeOf(err))})
}

func (t *HTTPTransport) writeGovernorError(w http.ResponseWriter, r *http.Request, err error) {
	t.writeError(w, r, statusForCode(core.CodeOf(err)), err)
}

func statusForCode(code core.ErrorCode) int {
	switch code {
	case core.CodeInvalidInput, core.CodeConfigInvalid:
		return http.StatusBadRequest
	case core.CodeNotFound:
		return http.StatusNotFound
	case core.CodeUnauthorized:
		return http.StatusUnauthorized
	case core.CodeClockUnavailable:
		return http.StatusServiceUnavailable
	case core.CodeTransportFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (t *HTTPTransport) authorizeAdmin(w http.ResponseWriter, r *http.Request) bool {
	if t == nil || !t.enableAuth {
		return true
	}
	expected := "Bearer " + t.adminToken
	if r.Header.Get("Authorization") != expected {
		t.writeError(w, r, http.StatusUnauthorized, core.Wrap(core.CodeUnauthorized, "unauthorized", nil))
		return false
	}
	return true
}

func (t *HTTPTransport) logRequestError(r *http.Request, status int, err error) {
	if t == nil || t.logger == nil || r == nil || err == nil {
		return
	}
	fields := map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
		"error":  err.Error(),
	}
	if status >= http.StatusInternalServerError {
		t.logger.Error("http request error", fields)
		return
	}
	t.logger.Info("http request error", fields)
}
