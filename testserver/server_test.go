package testserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealth(t *testing.T) {
	server := httptest.NewServer(NewServer().Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStatus(t *testing.T) {
	server := httptest.NewServer(NewServer().Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/status/418")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("expected 418, got %d", resp.StatusCode)
	}

	resp2, err := http.Get(server.URL + "/status/nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid code, got %d", resp2.StatusCode)
	}
}

func TestEcho(t *testing.T) {
	server := httptest.NewServer(NewServer().Handler())
	defer server.Close()

	resp, err := http.Post(server.URL+"/echo", "application/json", strings.NewReader(`{"x":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestFailRate(t *testing.T) {
	server := httptest.NewServer(NewServer().Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/fail-rate?percent=0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("percent=0 must never fail, got %d", resp.StatusCode)
	}

	resp2, err := http.Get(server.URL + "/fail-rate?percent=100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusInternalServerError {
		t.Errorf("percent=100 must always fail, got %d", resp2.StatusCode)
	}
}
