package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leadpilot/leadpilot/pkg/logging"
)

func TestWebhookForwarderPostsLead(t *testing.T) {
	var received Lead
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	f := NewWebhookForwarder(WebhookForwarderConfig{URL: srv.URL, Logger: logging.Default()})
	lead := &Lead{ID: "l1", Name: "Jane", Email: "jane@acme.com", Score: 82}

	if err := f.Forward(context.Background(), lead); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if received.ID != "l1" || received.Score != 82 {
		t.Errorf("unexpected payload %+v", received)
	}
}

func TestWebhookForwarderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewWebhookForwarder(WebhookForwarderConfig{URL: srv.URL, Logger: logging.Default()})
	if err := f.Forward(context.Background(), &Lead{ID: "l2"}); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestWebhookForwarderDisabled(t *testing.T) {
	f := NewWebhookForwarder(WebhookForwarderConfig{URL: "  "})
	if f != nil {
		t.Fatal("expected nil forwarder when URL empty")
	}
	// nil receiver is safe
	if err := f.Forward(context.Background(), &Lead{}); err != nil {
		t.Fatalf("nil forwarder should be a no-op, got %v", err)
	}
}
