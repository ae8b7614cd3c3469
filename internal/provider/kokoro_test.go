package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestKokoroClient_ExtendedPayload tests that the native request carries
// Kokoro's language extension.
func TestKokoroClient_ExtendedPayload(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("Expected path /audio/speech, got %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("Failed to read request body: %v", err)
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	cfg := Config{Kind: KindKokoro, APIKey: "k", Endpoint: srv.URL, Language: "en-us"}.withDefaults()
	res, err := newKokoroClient(srv.Client(), cfg).Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if raw["model"] != "kokoro" {
		t.Errorf("Expected default model kokoro, got %v", raw["model"])
	}
	if raw["voice"] != "af_bella" {
		t.Errorf("Expected default voice af_bella, got %v", raw["voice"])
	}
	if raw["lang_code"] != "en-us" {
		t.Errorf("Extended payload should carry lang_code, got %v", raw["lang_code"])
	}
	if string(res.Audio) != "audio" {
		t.Errorf("Expected audio payload, got %q", res.Audio)
	}
	if res.Format != FormatMP3 {
		t.Errorf("Expected mp3 format, got %q", res.Format)
	}
}

// TestKokoroClient_CompatibilityMode tests that compatibility mode
// confines the payload to the strict field set.
func TestKokoroClient_CompatibilityMode(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &raw)
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	cfg := Config{
		Kind:              KindKokoro,
		APIKey:            "k",
		Endpoint:          srv.URL,
		Language:          "en-us",
		CompatibilityMode: true,
	}.withDefaults()

	if _, err := newKokoroClient(srv.Client(), cfg).Synthesize(context.Background(), "hello"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, hasLang := raw["lang_code"]; hasLang {
		t.Error("Compatibility mode must not send lang_code")
	}
	if raw["model"] != "kokoro" {
		t.Errorf("Expected model kokoro, got %v", raw["model"])
	}
}

// TestKokoroClient_NoKey tests that self-hosted servers work without
// credentials.
func TestKokoroClient_NoKey(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	cfg := Config{Kind: KindKokoro, Endpoint: srv.URL}.withDefaults()
	if _, err := newKokoroClient(srv.Client(), cfg).Synthesize(context.Background(), "hello"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if auth != "" {
		t.Errorf("Expected no auth header, got %q", auth)
	}
}

// TestKokoroClient_ErrorEnvelope tests error reporting from the server.
func TestKokoroClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"unknown voice"}}`))
	}))
	defer srv.Close()

	cfg := Config{Kind: KindKokoro, APIKey: "k", Endpoint: srv.URL, Voice: "zz_nobody"}.withDefaults()
	_, err := newKokoroClient(srv.Client(), cfg).Synthesize(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !strings.Contains(err.Error(), "unknown voice") {
		t.Errorf("Expected server message in error, got %v", err)
	}
}
