package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sentinel-lab/internal/config"
	"sentinel-lab/internal/streaming"
	"sentinel-lab/pkg/logger"
)

func TestEndpointMatches(t *testing.T) {
	tests := []struct {
		name   string
		events []string
		typ    streaming.EventType
		want   bool
	}{
		{"empty filter matches all", nil, streaming.EventScamDetected, true},
		{"wildcard", []string{"*"}, streaming.EventIntelExtracted, true},
		{"exact match", []string{"scam_detected"}, streaming.EventScamDetected, true},
		{"exact mismatch", []string{"scam_detected"}, streaming.EventPhaseAdvanced, false},
		{"prefix wildcard", []string{"scam.*"}, streaming.EventScamDetected, true},
		{"prefix wildcard mismatch", []string{"intel.*"}, streaming.EventScamDetected, false},
		{"one of several", []string{"phase_advanced", "intel_extracted"}, streaming.EventIntelExtracted, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := config.WebhookEndpoint{URL: "http://x.test", Events: tt.events}
			if got := endpointMatches(ep, tt.typ); got != tt.want {
				t.Errorf("endpointMatches(%v, %q) = %v, want %v", tt.events, tt.typ, got, tt.want)
			}
		})
	}
}

func TestWebhookDeliverySignsPayload(t *testing.T) {
	received := make(chan *http.Request, 1)
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		received <- r
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewWebhookService(config.WebhooksConfig{
		Enabled: true,
		Endpoints: []config.WebhookEndpoint{
			{URL: srv.URL, Secret: "topsecret"},
		},
		Workers: 1,
	}, logger.NewDefault())
	defer svc.Stop()

	ev := streaming.NewEvent(streaming.EventScamDetected, "sess_hook")
	svc.Notify(ev)

	select {
	case req := <-received:
		if req.Header.Get("X-Webhook-Event") != "scam_detected" {
			t.Errorf("event header = %q", req.Header.Get("X-Webhook-Event"))
		}
		if req.Header.Get("X-Webhook-Delivery") == "" {
			t.Error("missing delivery id header")
		}
		mac := hmac.New(sha256.New, []byte("topsecret"))
		mac.Write(body)
		want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
		if got := req.Header.Get("X-Webhook-Signature"); got != want {
			t.Errorf("signature = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestWebhookFilteredEndpointSkipped(t *testing.T) {
	hits := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewWebhookService(config.WebhooksConfig{
		Enabled: true,
		Endpoints: []config.WebhookEndpoint{
			{URL: srv.URL, Events: []string{"phase_advanced"}},
		},
		Workers: 1,
	}, logger.NewDefault())
	defer svc.Stop()

	svc.Notify(streaming.NewEvent(streaming.EventScamDetected, "sess_skip"))

	select {
	case <-hits:
		t.Fatal("filtered endpoint received an event")
	case <-time.After(200 * time.Millisecond):
	}
}
