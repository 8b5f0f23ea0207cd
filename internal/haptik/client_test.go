package haptik

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deskbridge/zoom-relay/internal/config"
	"github.com/deskbridge/zoom-relay/internal/store"
)

func TestChatTranscript(t *testing.T) {
	t.Parallel()

	var gotQuery map[string]string
	var gotClientID, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"user_name":       q.Get("user_name"),
			"business_id":     q.Get("business_id"),
			"response_type":   q.Get("response_type"),
			"conversation_no": q.Get("conversation_no"),
		}
		gotClientID = r.Header.Get("client-id")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"chat_text": "user: hi\nbot: hello"}`))
	}))
	defer srv.Close()

	client := NewClient(nil, config.HaptikConfig{BaseURL: srv.URL})
	creds := store.Credentials{BusinessID: "42", APIClientID: "cid", ChatAuth: "Bearer abc"}

	text, err := client.ChatTranscript(context.Background(), creds, "jordan", 7)
	if err != nil {
		t.Fatalf("ChatTranscript() error: %v", err)
	}
	if text != "user: hi\nbot: hello" {
		t.Errorf("transcript = %q", text)
	}

	want := map[string]string{
		"user_name":       "jordan",
		"business_id":     "42",
		"response_type":   "text",
		"conversation_no": "7",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}
	if gotClientID != "cid" || gotAuth != "Bearer abc" {
		t.Errorf("auth headers = %q %q", gotClientID, gotAuth)
	}
}

func TestChatTranscriptNon200IsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(nil, config.HaptikConfig{BaseURL: srv.URL})
	if _, err := client.ChatTranscript(context.Background(), store.Credentials{}, "jordan", 1); err == nil {
		t.Error("non-200 chat history response must be an error")
	}
}
