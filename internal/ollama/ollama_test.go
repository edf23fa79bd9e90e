// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{})

	if got := client.config.BaseURL; got != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", got, DefaultBaseURL)
	}
	if got := client.GetDefaultModel(); got != DefaultModel {
		t.Errorf("DefaultModel = %q, want %q", got, DefaultModel)
	}
	if client.httpClient.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", client.httpClient.Timeout)
	}

	client.SetModel("")
	if got := client.GetDefaultModel(); got != DefaultModel {
		t.Errorf("SetModel(\"\") changed model to %q", got)
	}
}

func TestCheckRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	if err := client.CheckRunning(context.Background()); err != nil {
		t.Fatalf("CheckRunning() error = %v", err)
	}
}

func TestCheckRunning_NotRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url})
	err := client.CheckRunning(context.Background())
	if !IsNotRunning(err) {
		t.Fatalf("CheckRunning() error = %v, want not running", err)
	}
	if errors.Unwrap(err) == nil {
		t.Error("not-running error should carry its cause")
	}
}

func TestCheckRunning_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	err := client.CheckRunning(context.Background())
	if !IsConnection(err) {
		t.Fatalf("CheckRunning() error = %v, want connection error", err)
	}
}

func TestChat(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(ChatResponse{
			Model:   got.Model,
			Message: Message{Role: "assistant", Content: "hi there"},
			Done:    true,
		})
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL, DefaultModel: "tiny"})
	resp, err := client.Chat(context.Background(), "", []Message{
		{Role: "system", Content: "be nice"},
		{Role: "user", Content: "hello"},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Message.Content != "hi there" {
		t.Errorf("Content = %q, want 'hi there'", resp.Message.Content)
	}
	if got.Model != "tiny" {
		t.Errorf("Model = %q, want default 'tiny'", got.Model)
	}
	if got.Stream {
		t.Error("Stream should be false")
	}
	if len(got.Messages) != 2 {
		t.Errorf("Messages length = %d, want 2", len(got.Messages))
	}
}

func TestChat_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	_, err := client.Chat(context.Background(), "missing", nil)
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("Chat() error = %v, want model not found", err)
	}
}

func TestChat_ServerErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"out of memory"}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	_, err := client.Chat(context.Background(), "m", nil)

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("Chat() error = %T, want *ClientError", err)
	}
	if clientErr.Type != ErrTypeConnection || clientErr.Message != "out of memory" {
		t.Errorf("got %+v", clientErr)
	}
	if !IsConnection(err) {
		t.Errorf("IsConnection(%v) = false, want true", err)
	}
}

func TestChat_BadRequestIsInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid role"}`))
	}))
	defer server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	_, err := client.Chat(context.Background(), "m", nil)

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("Chat() error = %T, want *ClientError", err)
	}
	if clientErr.Type != ErrTypeInvalidResponse || clientErr.Message != "invalid role" {
		t.Errorf("got %+v", clientErr)
	}
	if IsConnection(err) {
		t.Errorf("IsConnection(%v) = true, want false", err)
	}
}

func TestChat_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
	_, err := client.Chat(ctx, "m", nil)
	if !IsTimeout(err) {
		t.Fatalf("Chat() error = %v, want timeout", err)
	}
	if IsNotRunning(err) {
		t.Error("timeout must not match not running")
	}
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestClientError(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:11434: connect: connection refused")
	err := &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running", Cause: cause}

	if err.Error() != "Ollama is not running: "+cause.Error() {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if !errors.Is(err, ErrNotRunning) {
		t.Error("errors.Is should match the sentinel by type")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("errors.Is should not match a different type")
	}
}
