package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseEndpoint_DefaultsAndValidates(t *testing.T) {
	u, err := parseEndpoint("")
	if err != nil {
		t.Fatalf("parseEndpoint returned error: %v", err)
	}
	if u.String() != defaultEndpoint {
		t.Fatalf("endpoint = %q, want %q", u.String(), defaultEndpoint)
	}

	if _, err := parseEndpoint("ftp://example.com/pkg"); err == nil {
		t.Fatalf("parseEndpoint(ftp) returned nil error, want error")
	}

	u, err = parseEndpoint("https://example.com/pypi/x/json#frag")
	if err != nil {
		t.Fatalf("parseEndpoint returned error: %v", err)
	}
	if u.Fragment != "" {
		t.Fatalf("fragment not stripped: %q", u.String())
	}
}

func TestClient_LatestVersion(t *testing.T) {
	t.Parallel()

	var gotUserAgent, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"info":{"name":"pikaraoke","version":" 1.3.0 "},"releases":{}}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL + "/pypi/pikaraoke/json")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	v, err := c.LatestVersion(ctx)
	if err != nil {
		t.Fatalf("LatestVersion returned error: %v", err)
	}
	if v != "1.3.0" {
		t.Fatalf("LatestVersion = %q, want 1.3.0", v)
	}
	if gotPath != "/pypi/pikaraoke/json" {
		t.Fatalf("path = %q, want /pypi/pikaraoke/json", gotPath)
	}
	if !strings.HasPrefix(gotUserAgent, "karaokepi/") {
		t.Fatalf("User-Agent = %q, want karaokepi/*", gotUserAgent)
	}
}

func TestClient_HTTPErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.LatestVersion(context.Background())
	if err == nil || !strings.Contains(err.Error(), "returned status 404") {
		t.Fatalf("LatestVersion error = %v, want status 404 error", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("server hit %d times, want 1", hits.Load())
	}
}

func TestClient_DecodeAndEmptyVersionErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/broken":
			_, _ = w.Write([]byte("{not-json"))
		default:
			_, _ = w.Write([]byte(`{"info":{}}`))
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL + "/broken")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.LatestVersion(context.Background()); err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("LatestVersion error = %v, want decode response error", err)
	}

	c, err = NewClient(server.URL + "/empty")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.LatestVersion(context.Background()); err == nil || !strings.Contains(err.Error(), "info.version") {
		t.Fatalf("LatestVersion error = %v, want missing info.version error", err)
	}
}

func TestClient_TransportErrorsAreRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, err := NewClient(url)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.retryDelay = time.Millisecond

	if _, err := c.LatestVersion(context.Background()); err == nil || !strings.Contains(err.Error(), "execute request") {
		t.Fatalf("LatestVersion error = %v, want execute request error", err)
	}
}
