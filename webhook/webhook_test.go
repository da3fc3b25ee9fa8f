package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tradewithedge/tickersnap/models"
)

func TestNewSnapshotEvent(t *testing.T) {
	result := &models.SnapshotResponse{
		Success: false,
		Ticker:  "AAPL",
		Screenshots: []models.StepResult{
			{Name: "finviz", Success: true, Image: "data:image/png;base64,AAAA"},
			{Name: "tradingview", Variant: "intraday", Success: false, Error: "timed out"},
		},
	}

	event := NewSnapshotEvent(result)

	if event.Type != "snapshot.completed" || event.Ticker != "AAPL" || event.Success {
		t.Errorf("unexpected event envelope: %+v", event)
	}
	if len(event.Steps) != 2 {
		t.Fatalf("expected 2 step summaries, got %d", len(event.Steps))
	}
	if event.Steps[1].Variant != "intraday" || event.Steps[1].Error != "timed out" {
		t.Errorf("unexpected step summary: %+v", event.Steps[1])
	}

	// Image payloads never leave the server through the webhook.
	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "base64") {
		t.Error("webhook payload must not carry image data")
	}
}

func TestDeliver_SignsPayload(t *testing.T) {
	const secret = "topsecret"
	var gotSig string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Tickersnap-Signature")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	event := &Event{Type: "snapshot.completed", Ticker: "NVDA", Success: true}
	if err := Deliver(context.Background(), srv.URL, secret, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSig != want {
		t.Errorf("signature = %q, want %q", gotSig, want)
	}
}

func TestDeliver_NoSignatureWithoutSecret(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Tickersnap-Signature")
	}))
	defer srv.Close()

	if err := Deliver(context.Background(), srv.URL, "", &Event{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotSig != "" {
		t.Errorf("signature should be absent without a secret, got %q", gotSig)
	}
}

func TestDeliver_EndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := Deliver(context.Background(), srv.URL, "", &Event{}); err == nil {
		t.Error("expected error for 5xx endpoint response")
	}
}
