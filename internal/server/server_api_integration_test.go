package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/yok-tottii/EzKeymap/internal/api"
	"github.com/yok-tottii/EzKeymap/internal/config"
	"github.com/yok-tottii/EzKeymap/internal/metrics"
	"github.com/yok-tottii/EzKeymap/internal/storage"
	"github.com/yok-tottii/EzKeymap/internal/store"
)

// startWithAPI starts a server on a random port with the API and metrics
// registered the same way main does.
func startWithAPI(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	backend := storage.NewMemory()
	m := metrics.New()
	s, err := store.New(context.Background(), backend, store.WithMetrics(m))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	serverConfig := DefaultConfig()
	serverConfig.Port = 0
	server := New(serverConfig)

	apiHandler := api.New(api.Deps{
		Store:   s,
		Backend: backend,
		Config:  config.DefaultConfig(),
	})

	// Register routes BEFORE starting the server
	apiHandler.RegisterRoutes(server.Router())
	server.Router().Mount("/metrics", m.Handler())

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { server.Stop() })

	// Give server time to start
	time.Sleep(100 * time.Millisecond)
	return server, s
}

func TestServerAPIIntegration(t *testing.T) {
	server, s := startWithAPI(t)

	body, _ := json.Marshal(map[string]interface{}{
		"key_combination": "⌘+⇧+K",
		"application":     "VS Code",
		"description":     "Delete line",
	})
	resp, err := http.Post(server.URL()+"/api/shortcuts", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to make request to API: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}

	if s.Len() != 1 {
		t.Errorf("Expected 1 shortcut in store, got %d", s.Len())
	}

	resp, err = http.Get(server.URL() + "/api/shortcuts")
	if err != nil {
		t.Fatalf("Failed to list shortcuts: %v", err)
	}
	defer resp.Body.Close()

	var list struct {
		Shortcuts []struct {
			KeyCombination string `json:"key_combination"`
		} `json:"shortcuts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode list response: %v", err)
	}

	if len(list.Shortcuts) != 1 || list.Shortcuts[0].KeyCombination != "⌘+⇧+K" {
		t.Errorf("Unexpected list: %+v", list.Shortcuts)
	}
}

func TestServerSettingsRoundTrip(t *testing.T) {
	server, _ := startWithAPI(t)
	url := server.URL() + "/api/settings"

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("Failed to make request to API: %v", err)
	}
	defer resp.Body.Close()

	var response config.Config
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		t.Errorf("Failed to decode settings response: %v", err)
	}

	updates := map[string]interface{}{
		"ui_language": "en",
	}
	bodyBytes, _ := json.Marshal(updates)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(bodyBytes))
	if err != nil {
		t.Fatalf("Failed to create PUT request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to execute PUT request: %v", err)
	}
	defer resp2.Body.Close()

	if resp2.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp2.StatusCode)
	}
}

func TestServerMetricsEndpoint(t *testing.T) {
	server, _ := startWithAPI(t)

	body, _ := json.Marshal(map[string]interface{}{
		"key_combination": "⌘+C",
		"application":     "Global",
		"description":     "Copy",
	})
	resp, err := http.Post(server.URL()+"/api/shortcuts", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to add shortcut: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(server.URL() + "/metrics")
	if err != nil {
		t.Fatalf("Failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), "ezkeymap_") {
		t.Errorf("Expected ezkeymap metrics, got:\n%s", data)
	}
}

func TestServerFrontendFallback(t *testing.T) {
	server, _ := startWithAPI(t)

	resp, err := http.Get(server.URL() + "/")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	resp2, err := http.Get(server.URL() + "/api/shortcuts/missing")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp2.Body.Close()

	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 from API, got %d", resp2.StatusCode)
	}
}
