package advisory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGeminiClientGenerate(t *testing.T) {
	t.Run("ParsesCandidateText", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Document appears compliant."}]}}]}`))
		}))
		defer ts.Close()

		client := newGeminiClient(ts.URL, "gemini-1.5-flash", "test-key", 5*time.Second)
		got, err := client.generate(context.Background(), "assess this")
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if got != "Document appears compliant." {
			t.Errorf("generate = %q", got)
		}
	})

	t.Run("NonOKStatusFails", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}))
		defer ts.Close()

		client := newGeminiClient(ts.URL, "gemini-1.5-flash", "test-key", 5*time.Second)
		if _, err := client.generate(context.Background(), "assess this"); err == nil {
			t.Error("Expected an error for HTTP 502")
		}
	})

	t.Run("EmptyCandidatesFail", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"candidates":[]}`))
		}))
		defer ts.Close()

		client := newGeminiClient(ts.URL, "gemini-1.5-flash", "test-key", 5*time.Second)
		if _, err := client.generate(context.Background(), "assess this"); err == nil {
			t.Error("Expected an error when no text is returned")
		}
	})
}
