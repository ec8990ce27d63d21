package httptransport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/core"
	httptransport "github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/transport/http"
)

// fakeGovernor is a canned GovernorService for handler tests.
type fakeGovernor struct {
	sendResult *core.SendResult
	sendErr    error
	paused     bool
	warnings   []core.BanWarning
	acked      []string
	limits     [2]int64
}

func (f *fakeGovernor) Send(ctx context.Context, req core.SendRequest) (*core.SendResult, error) {
	return f.sendResult, f.sendErr
}

func (f *fakeGovernor) Enqueue(ctx context.Context, req core.SendRequest) (string, error) {
	return "queued-id", nil
}

func (f *fakeGovernor) Usage(ctx context.Context) (core.UsageSnapshot, error) {
	return core.UsageSnapshot{HourlyCount: 3, HourlyLimit: 100, DailyCount: 30, DailyLimit: 1000}, nil
}

func (f *fakeGovernor) Score(ctx context.Context) (core.RiskScore, error) {
	return core.RiskScore{Overall: 12, Level: core.RiskLow}, nil
}

func (f *fakeGovernor) Status() core.PauseState {
	return core.PauseState{IsPaused: f.paused}
}

func (f *fakeGovernor) Pause() error {
	f.paused = true
	return nil
}

func (f *fakeGovernor) Resume() error {
	f.paused = false
	return nil
}

func (f *fakeGovernor) Warnings(includeAcknowledged bool) []core.BanWarning {
	return f.warnings
}

func (f *fakeGovernor) Acknowledge(id string) error {
	if id == "missing" {
		return core.ErrNotFound
	}
	f.acked = append(f.acked, id)
	return nil
}

func (f *fakeGovernor) QueuedMessages(ctx context.Context) ([]core.QueuedMessage, error) {
	return []core.QueuedMessage{{ID: "m1"}}, nil
}

func (f *fakeGovernor) DeadMessages(ctx context.Context) ([]core.QueuedMessage, error) {
	return nil, nil
}

func (f *fakeGovernor) UpdateLimits(hourlyLimit, dailyLimit int64) error {
	if hourlyLimit <= 0 || dailyLimit <= 0 {
		return core.Wrap(core.CodeConfigInvalid, "limits must be positive", nil)
	}
	f.limits = [2]int64{hourlyLimit, dailyLimit}
	return nil
}

func newTestHandler(t *testing.T, governor core.GovernorService, cfg httptransport.HTTPTransportConfig) http.Handler {
	t.Helper()
	transport := httptransport.NewHTTPTransport(":0", func() bool { return true })
	if err := transport.ServeGovernor(governor); err != nil {
		t.Fatalf("failed to register governor: %v", err)
	}
	transport.Configure(cfg)
	handler, err := transport.Handler()
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	return handler
}

func TestHTTPTransport_SendDelivered(t *testing.T) {
	t.Parallel()

	governor := &fakeGovernor{sendResult: &core.SendResult{Outcome: core.OutcomeDelivered}}
	handler := newTestHandler(t, governor, httptransport.HTTPTransportConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"destination":"lead-1","content":"hello","channel":"email"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["outcome"] != "delivered" {
		t.Fatalf("expected delivered outcome, got %v", resp["outcome"])
	}
}

func TestHTTPTransport_SendQueuedReturnsAccepted(t *testing.T) {
	t.Parallel()

	governor := &fakeGovernor{sendResult: &core.SendResult{
		MessageID: "q1",
		Outcome:   core.OutcomeQueued,
		Reason:    string(core.CodeQuotaExceeded),
	}}
	handler := newTestHandler(t, governor, httptransport.HTTPTransportConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"destination":"lead-1","content":"hello"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for a queued send, got %d", rec.Code)
	}
}

func TestHTTPTransport_SendTransportFailure(t *testing.T) {
	t.Parallel()

	governor := &fakeGovernor{
		sendResult: &core.SendResult{MessageID: "q1", Outcome: core.OutcomeQueued, Reason: string(core.CodeTransportFailure)},
		sendErr:    core.Wrap(core.CodeTransportFailure, "transport send failed", nil),
	}
	handler := newTestHandler(t, governor, httptransport.HTTPTransportConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"destination":"lead-1","content":"hello"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// The queued id is reported so the caller can track the retry.
	if resp["messageId"] != "q1" {
		t.Fatalf("expected queued message id, got %v", resp["messageId"])
	}
	if msg, ok := resp["error"].(string); !ok || msg == "" {
		t.Fatalf("expected surfaced transport error, got %v", resp["error"])
	}
}

func TestHTTPTransport_SendRejectsBadJSON(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeGovernor{}, httptransport.HTTPTransportConfig{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"destination":`},
		{"unknown field", `{"destination":"lead-1","content":"x","bogus":true}`},
		{"missing fields", `{"channel":"email"}`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestHTTPTransport_AdminEndpointsRequireToken(t *testing.T) {
	t.Parallel()

	governor := &fakeGovernor{}
	handler := newTestHandler(t, governor, httptransport.HTTPTransportConfig{
		EnableAuth: true,
		AdminToken: "secret",
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/pause", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if governor.paused {
		t.Fatalf("unauthorized request must not pause")
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/pause", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if !governor.paused {
		t.Fatalf("expected pause applied")
	}
}

func TestHTTPTransport_WarningAcknowledge(t *testing.T) {
	t.Parallel()

	governor := &fakeGovernor{}
	handler := newTestHandler(t, governor, httptransport.HTTPTransportConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/warnings/ack", strings.NewReader(`{"id":"w1"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(governor.acked) != 1 || governor.acked[0] != "w1" {
		t.Fatalf("expected acknowledgment recorded, got %v", governor.acked)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/warnings/ack", strings.NewReader(`{"id":"missing"}`))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown warning, got %d", rec.Code)
	}
}

func TestHTTPTransport_ReadEndpoints(t *testing.T) {
	t.Parallel()

	governor := &fakeGovernor{warnings: []core.BanWarning{{ID: "w1", Type: core.WarningRapidFire}}}
	handler := newTestHandler(t, governor, httptransport.HTTPTransportConfig{})

	for _, path := range []string{"/v1/usage", "/v1/risk", "/v1/status", "/v1/warnings", "/v1/queue", "/v1/queue/dead", "/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("expected JSON content type for %s, got %q", path, ct)
		}
	}
}

func TestHTTPTransport_UpdateLimits(t *testing.T) {
	t.Parallel()

	governor := &fakeGovernor{}
	handler := newTestHandler(t, governor, httptransport.HTTPTransportConfig{})

	req := httptest.NewRequest(http.MethodPut, "/v1/limits", strings.NewReader(`{"hourlyLimit":50,"dailyLimit":500}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if governor.limits != [2]int64{50, 500} {
		t.Fatalf("expected limits applied, got %v", governor.limits)
	}

	req = httptest.NewRequest(http.MethodPut, "/v1/limits", strings.NewReader(`{"hourlyLimit":0,"dailyLimit":500}`))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid limits, got %d", rec.Code)
	}
}

func TestHTTPTransport_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeGovernor{}, httptransport.HTTPTransportConfig{})

	req := httptest.NewRequest(http.MethodDelete, "/v1/usage", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHTTPTransport_EnqueueEndpoint(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, &fakeGovernor{}, httptransport.HTTPTransportConfig{})

	req := httptest.NewRequest(http.MethodPost, "/v1/queue", strings.NewReader(`{"destination":"lead-1","content":"hello"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["messageId"] != "queued-id" {
		t.Fatalf("expected queued id, got %v", resp["messageId"])
	}
}
