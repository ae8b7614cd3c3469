package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestCustomClient_RawBytes tests the form request and a raw audio
// response.
func TestCustomClient_RawBytes(t *testing.T) {
	var form map[string][]string
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}
		form = r.PostForm
		auth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("raw-audio"))
	}))
	defer srv.Close()

	cfg := Config{Kind: KindCustom, APIKey: "tok", Endpoint: srv.URL, Voice: "narrator", Language: "en"}
	res, err := newCustomClient(srv.Client(), cfg).Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if auth != "Bearer tok" {
		t.Errorf("Expected bearer auth, got %q", auth)
	}
	if got := form["text"]; len(got) != 1 || got[0] != "hello" {
		t.Errorf("Expected text field, got %v", got)
	}
	if got := form["voice"]; len(got) != 1 || got[0] != "narrator" {
		t.Errorf("Expected voice field, got %v", got)
	}
	if got := form["language"]; len(got) != 1 || got[0] != "en" {
		t.Errorf("Expected language field, got %v", got)
	}

	if string(res.Audio) != "raw-audio" {
		t.Errorf("Expected audio payload, got %q", res.Audio)
	}
	if res.Format != FormatMP3 {
		t.Errorf("Expected mp3 format from content type, got %q", res.Format)
	}
}

// TestCustomClient_Base64Envelope tests inline base64 audio in a JSON
// response.
func TestCustomClient_Base64Envelope(t *testing.T) {
	audio := []byte("decoded-audio")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"audio":%q}`, base64.StdEncoding.EncodeToString(audio))
	}))
	defer srv.Close()

	cfg := Config{Kind: KindCustom, APIKey: "k", Endpoint: srv.URL}
	res, err := newCustomClient(srv.Client(), cfg).Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(res.Audio) != string(audio) {
		t.Errorf("Expected decoded audio, got %q", res.Audio)
	}
}

// TestCustomClient_URLEnvelope tests the follow-the-link response shape.
func TestCustomClient_URLEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/speak", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"url":%q}`, srv.URL+"/files/out.wav")
	})
	mux.HandleFunc("/files/out.wav", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("fetched-audio"))
	})

	cfg := Config{Kind: KindCustom, APIKey: "k", Endpoint: srv.URL + "/speak"}
	res, err := newCustomClient(srv.Client(), cfg).Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if string(res.Audio) != "fetched-audio" {
		t.Errorf("Expected fetched audio, got %q", res.Audio)
	}
	if res.Format != FormatWAV {
		t.Errorf("Expected wav format, got %q", res.Format)
	}
	if res.SourceURL != srv.URL+"/files/out.wav" {
		t.Errorf("Expected source url of the fetched file, got %q", res.SourceURL)
	}
}

// TestCustomClient_ErrorEnvelope tests a 200 response whose envelope
// reports an error.
func TestCustomClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"voice model not loaded"}`))
	}))
	defer srv.Close()

	cfg := Config{Kind: KindCustom, APIKey: "k", Endpoint: srv.URL}
	_, err := newCustomClient(srv.Client(), cfg).Synthesize(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error but got none")
	}

	var rerr *RequestError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected *RequestError, got %T", err)
	}
	if rerr.Message != "voice model not loaded" {
		t.Errorf("Expected envelope error message, got %q", rerr.Message)
	}
}

// TestCustomClient_EmptyEnvelope tests a JSON response with neither audio
// nor a url.
func TestCustomClient_EmptyEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := Config{Kind: KindCustom, APIKey: "k", Endpoint: srv.URL}
	_, err := newCustomClient(srv.Client(), cfg).Synthesize(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !strings.Contains(err.Error(), "no audio or url") {
		t.Errorf("Expected empty-envelope error, got %v", err)
	}
}

// TestCustomClient_CompatibilityMode tests that compatibility mode
// switches to the JSON wire format.
func TestCustomClient_CompatibilityMode(t *testing.T) {
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if r.URL.Path != "/audio/speech" {
			t.Errorf("Expected path /audio/speech, got %s", r.URL.Path)
		}
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	cfg := Config{Kind: KindCustom, APIKey: "k", Endpoint: srv.URL, Model: "m", Voice: "v", CompatibilityMode: true}
	if _, err := newCustomClient(srv.Client(), cfg).Synthesize(context.Background(), "hello"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("Expected JSON content type in compatibility mode, got %q", contentType)
	}
}

// TestCustomClient_HTTPError tests a non-success status with an error
// envelope body.
func TestCustomClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"warming up"}`))
	}))
	defer srv.Close()

	cfg := Config{Kind: KindCustom, APIKey: "k", Endpoint: srv.URL}
	_, err := newCustomClient(srv.Client(), cfg).Synthesize(context.Background(), "hello")

	var rerr *RequestError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected *RequestError, got %T", err)
	}
	if rerr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rerr.StatusCode)
	}
	if rerr.Message != "warming up" {
		t.Errorf("Expected envelope message, got %q", rerr.Message)
	}
	if !rerr.Retryable {
		t.Error("503 should be retryable")
	}
}
