package elevenlabs_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coachcast/internal/services/elevenlabs"
)

func TestSynthesizeReturnsAudioBytes(t *testing.T) {
	var (
		gotPath   string
		gotAPIKey string
		gotAccept string
		gotBody   map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("xi-api-key")
		gotAccept = r.Header.Get("Accept")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "audio/mpeg")
		io.WriteString(w, "ID3-mp3-bytes")
	}))
	defer server.Close()

	client := elevenlabs.NewClient("speech-key", elevenlabs.WithBaseURL(server.URL))
	audio, err := client.Synthesize(context.Background(), "Great job today!", "voice-nora")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "ID3-mp3-bytes" {
		t.Fatalf("unexpected audio payload: %q", audio)
	}
	if gotPath != "/v1/text-to-speech/voice-nora" {
		t.Fatalf("unexpected request path: %s", gotPath)
	}
	if gotAPIKey != "speech-key" {
		t.Fatalf("unexpected api key header: %s", gotAPIKey)
	}
	if gotAccept != "audio/mpeg" {
		t.Fatalf("unexpected accept header: %s", gotAccept)
	}
	if gotBody["text"] != "Great job today!" || gotBody["model_id"] != "eleven_multilingual_v2" {
		t.Fatalf("unexpected request body: %#v", gotBody)
	}
}

func TestSynthesizeSurfacesProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"invalid api key"}`)
	}))
	defer server.Close()

	client := elevenlabs.NewClient("bad-key", elevenlabs.WithBaseURL(server.URL))
	_, err := client.Synthesize(context.Background(), "hello", "voice-1")
	if err == nil {
		t.Fatal("expected synthesis to fail")
	}
	if !strings.Contains(err.Error(), "http 401") || !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSynthesizeRequiresInputs(t *testing.T) {
	client := elevenlabs.NewClient("key")
	if _, err := client.Synthesize(context.Background(), "  ", "voice-1"); err == nil {
		t.Fatal("expected empty text to fail")
	}
	if _, err := client.Synthesize(context.Background(), "hello", ""); err == nil {
		t.Fatal("expected missing voice id to fail")
	}

	unkeyed := elevenlabs.NewClient("")
	if _, err := unkeyed.Synthesize(context.Background(), "hello", "voice-1"); err == nil {
		t.Fatal("expected missing api key to fail")
	}
}
