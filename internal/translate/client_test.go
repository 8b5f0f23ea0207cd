package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deskbridge/zoom-relay/internal/config"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	var gotReq translateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(translateResponse{TranslatedMessage: "hola"})
	}))
	defer srv.Close()

	client := NewClient(nil, config.TranslationConfig{BaseURL: srv.URL})
	out, err := client.Translate(context.Background(), "hello", "zoom-1")
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if out != "hola" {
		t.Errorf("translated = %q, want hola", out)
	}
	if gotReq.Message != "hello" || gotReq.UserID != "zoom-1" || gotReq.Source != "agent" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestTranslateNon200IsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(nil, config.TranslationConfig{BaseURL: srv.URL})
	if _, err := client.Translate(context.Background(), "hello", "zoom-1"); err == nil {
		t.Error("non-200 translate response must be an error")
	}
}
