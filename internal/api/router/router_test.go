package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadpilot/leadpilot/internal/chat"
	"github.com/leadpilot/leadpilot/internal/convo"
	"github.com/leadpilot/leadpilot/internal/leads"
	"github.com/leadpilot/leadpilot/internal/session"
	"github.com/leadpilot/leadpilot/internal/voice"
	"github.com/leadpilot/leadpilot/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.New("error")
	store := session.NewMemoryStore()
	leadRepo := leads.NewInMemoryRepository()
	qualifier := convo.NewQualifier(leadRepo, nil, nil, nil, logger)
	engine := convo.NewEngine(convo.EngineConfig{
		Store:     store,
		Qualifier: qualifier,
		Logger:    logger,
	})

	reg := prometheus.NewRegistry()

	cfg := &Config{
		Logger:       logger,
		ChatHandler:  chat.NewHandler(engine, store, []byte("// widget"), logger),
		VoiceHandler: chat.NewVoiceHandler(engine, nil, voice.NewQueueManager(store, "v1", logger), voice.NewClipStore(), logger),
		LeadsHandler: leads.NewHandler(leadRepo, logger),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterChatMessageEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"text": "What's your pricing?"})
	req := httptest.NewRequest(http.MethodPost, "/chat/message", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var resp convo.TurnResult
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode turn result: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("expected a session id in the response")
	}
	if resp.Intent != convo.IntentPricing {
		t.Errorf("intent = %s, want pricing_inquiry", resp.Intent)
	}
	if resp.Message == "" {
		t.Error("expected a reply message")
	}
}

func TestRouterLeadsWebEndpoint(t *testing.T) {
	router := newTestRouter(t)

	payload := leads.CreateLeadRequest{
		Name:    "Router Test",
		Email:   "router@example.com",
		Phone:   "+12223334444",
		Message: "Interested in services",
		Source:  "test",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/leads/web", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	var lead leads.Lead
	if err := json.Unmarshal(rr.Body.Bytes(), &lead); err != nil {
		t.Fatalf("failed to decode lead: %v", err)
	}
	if lead.ID == "" {
		t.Error("expected lead id")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/leads/"+lead.ID, nil)
	getRR := httptest.NewRecorder()
	router.ServeHTTP(getRR, getReq)
	if getRR.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, getRR.Code)
	}
}

func TestRouterVoiceStateRequiresSession(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/voice/state", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
