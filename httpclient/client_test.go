package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/speakline/resilience"
)

func TestClient_Do_GET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/models/base" {
			t.Errorf("expected /models/base, got %s", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "speakline/") {
			t.Errorf("expected speakline user agent, got %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "base"})
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/models/base"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("expected success, got %d", resp.StatusCode)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("expected flattened content type header, got %v", resp.Headers)
	}

	out, err := DecodeJSON[map[string]string](resp)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["name"] != "base" {
		t.Errorf("expected name=base, got %v", out)
	}
}

func TestClient_Do_POST_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["num_speakers"] != float64(2) {
			t.Errorf("expected num_speakers=2, got %v", body["num_speakers"])
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/diarize",
		Body:   map[string]any{"num_speakers": 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}
}

func TestClient_Do_HeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Model"); got != "override" {
			t.Errorf("expected request header to override default, got %q", got)
		}
		if got := r.Header.Get("X-Default"); got != "yes" {
			t.Errorf("expected default header, got %q", got)
		}
		if got := r.URL.Query().Get("language"); got != "en" {
			t.Errorf("expected language=en, got %q", got)
		}
	}))
	defer srv.Close()

	c, _ := New(Config{
		BaseURL: srv.URL,
		Headers: map[string]string{"X-Default": "yes", "X-Model": "default"},
	})
	_, err := c.Do(context.Background(), Request{
		Path:    "/transcribe",
		Headers: map[string]string{"X-Model": "override"},
		Query:   map[string]string{"language": "en"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Do_ErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusNotFound, func(err error) bool { k, _ := KindOf(err); return k == KindNotFound }},
		{http.StatusInternalServerError, func(err error) bool { k, _ := KindOf(err); return k == KindServer }},
		{http.StatusServiceUnavailable, IsRetryable},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model failed", tt.status)
		}))

		c, _ := New(Config{BaseURL: srv.URL})
		resp, err := c.Do(context.Background(), Request{Path: "/x"})
		if err == nil {
			t.Errorf("status %d: expected error", tt.status)
		} else if !tt.check(err) {
			t.Errorf("status %d: unexpected classification %v", tt.status, err)
		}
		if resp == nil || resp.StatusCode != tt.status {
			t.Errorf("status %d: expected response to be returned with the error", tt.status)
		}
		srv.Close()
	}
}

func TestClient_Do_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := New(Config{BaseURL: url})
	_, err := c.Do(context.Background(), Request{Path: "/health"})
	if k, _ := KindOf(err); k != KindConnection {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestClient_Do_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Do(ctx, Request{Path: "/slow"})
	if k, _ := KindOf(err); k != KindTimeout {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestClient_Do_FullURL_IgnoresBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/direct" {
			t.Errorf("expected /direct, got %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: "http://should-not-be-used.invalid"})
	if _, err := c.Do(context.Background(), Request{Path: srv.URL + "/direct"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Do_Retry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		body, _ := json.Marshal(map[string]bool{"ok": true})
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c, _ := New(Config{
		BaseURL: srv.URL,
		Retry: &resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		},
	})

	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body:   &MultipartBody{Fields: map[string]string{"model": "base"}},
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("expected 2xx, got %d", resp.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestClient_Do_NoRetryOnValidation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c, _ := New(Config{
		BaseURL: srv.URL,
		Retry:   &resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	})
	if _, err := c.Do(context.Background(), Request{Path: "/x"}); err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single call, got %d", got)
	}
}

func TestClient_Do_StringAndByteBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		n, _ := r.Body.Read(buf)
		w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
		_, _ = w.Write(buf[:n])
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})

	resp, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/", Body: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Body) != "hello" || resp.Headers["X-Content-Type"] != "text/plain" {
		t.Errorf("string body: got %q (%v)", resp.Body, resp.Headers)
	}

	resp, err = c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/", Body: []byte("raw")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Body) != "raw" {
		t.Errorf("byte body: got %q", resp.Body)
	}
}

func TestClient_Healthy(t *testing.T) {
	healthy := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("expected /health, got %s", r.URL.Path)
		}
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	if c.Healthy(context.Background()) {
		t.Error("expected unhealthy before the sidecar is ready")
	}
	healthy.Store(true)
	if !c.Healthy(context.Background()) {
		t.Error("expected healthy after the sidecar is ready")
	}
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Timeout != defaultTimeout || cfg.HealthPath != defaultHealthPath {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	if _, err := New(Config{BaseURL: "not a url"}); err == nil {
		t.Error("expected invalid base_url to be rejected")
	}
	if err := (&Config{}).Validate(); err == nil {
		t.Error("expected zero timeout to be rejected")
	}
}

func TestClient_Timeout(t *testing.T) {
	c, _ := New(Config{Timeout: 5 * time.Second})
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("expected timeout to be carried to the http client")
	}
}

func TestDecodeJSON_Invalid(t *testing.T) {
	if _, err := DecodeJSON[map[string]any](&Response{Body: []byte("{")}); err == nil {
		t.Error("expected decode error")
	}
	if _, err := DecodeJSON[map[string]any](nil); err == nil {
		t.Error("expected nil response error")
	}
}
