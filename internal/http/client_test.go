package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sattelclub/internal/core"
)

func TestClient_PostsForm(t *testing.T) {
	var gotMethod, gotContentType, gotUA string
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotUA = r.Header.Get("User-Agent")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":null}`))
	}))
	defer server.Close()

	client := NewClient(Options{Timeout: 5 * time.Second})
	resp, err := client.PostForm(context.Background(), server.URL, map[string]string{
		"email": "ada@example.com",
		"slug":  "abc123-2024-03-15",
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"error":null}` {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if !strings.HasPrefix(gotContentType, "application/x-www-form-urlencoded") {
		t.Errorf("expected form content type, got %q", gotContentType)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("expected user agent %q, got %q", DefaultUserAgent, gotUA)
	}
	if gotForm["email"] != "ada@example.com" || gotForm["slug"] != "abc123-2024-03-15" {
		t.Errorf("unexpected form: %v", gotForm)
	}
}

func TestClient_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	resp, err := NewClient(Options{}).PostForm(context.Background(), server.URL, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Options{Timeout: 50 * time.Millisecond})
	_, err := client.PostForm(context.Background(), server.URL, nil)

	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "Timeout") {
		t.Errorf("expected timeout detail, got %v", err)
	}
}

func TestClient_ConnectionError(t *testing.T) {
	client := NewClient(Options{Timeout: time.Second})
	_, err := client.PostForm(context.Background(), "http://localhost:99999", nil)

	if err == nil {
		t.Error("expected error")
	}
}

func TestClient_DebugLogging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Groupride is full!"}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	client := NewClient(Options{Debug: NewDebugLogger(&buf)})
	ctx := core.ContextWithParticipant(context.Background(), "ada@example.com")

	if _, err := client.PostForm(ctx, server.URL, map[string]string{"slug": "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "[ada@example.com] >>> REQUEST") {
		t.Errorf("expected request dump, got: %s", output)
	}
	if !strings.Contains(output, "Groupride is full!") {
		t.Errorf("expected response body dump, got: %s", output)
	}
}
