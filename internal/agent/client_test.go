package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sessions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"sessionId": "sess-abc"}`))
	}))
	defer srv.Close()

	id, err := NewClient(srv.URL).CreateSession(context.Background(), "claude")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if id != "sess-abc" {
		t.Errorf("id = %q", id)
	}
}

func TestCreateSession_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).CreateSession(context.Background(), "claude"); err == nil {
		t.Error("expected an error on 503")
	}
}

func TestCreateSession_EmptyID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).CreateSession(context.Background(), "claude"); err == nil {
		t.Error("empty session id should be rejected")
	}
}

func TestCleanupSession(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).CleanupSession(context.Background(), "sess-abc"); err != nil {
		t.Fatalf("CleanupSession: %v", err)
	}
	if gotPath != "/sessions/sess-abc" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestLocalSessions(t *testing.T) {
	var api LocalSessions
	id, err := api.CreateSession(context.Background(), "claude")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if !strings.HasPrefix(id, "local-") {
		t.Errorf("id = %q, want local- prefix", id)
	}

	other, _ := api.CreateSession(context.Background(), "claude")
	if other == id {
		t.Error("local ids must be unique")
	}
	if err := api.CleanupSession(context.Background(), id); err != nil {
		t.Errorf("cleanup should be a no-op, got %v", err)
	}
}
