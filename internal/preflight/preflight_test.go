package preflight

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"stocksmith/internal/config"
	"stocksmith/internal/testsupport"
)

func healthyAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckMetadataAPI_OK(t *testing.T) {
	srv := healthyAPIServer(t)

	result := CheckMetadataAPI(context.Background(), config.OpenRouterConfig{
		APIKey:  "good-key",
		BaseURL: srv.URL,
		Model:   "test-model",
	})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckMetadataAPI_MissingKey(t *testing.T) {
	result := CheckMetadataAPI(context.Background(), config.OpenRouterConfig{})
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
	if result.Detail != "API key missing" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckMetadataAPI_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	result := CheckMetadataAPI(context.Background(), config.OpenRouterConfig{
		APIKey:  "bad-key",
		BaseURL: srv.URL,
		Model:   "test-model",
	})
	if result.Passed {
		t.Fatal("expected failure for rejected key")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDatabase_OK(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	result := CheckDatabase(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckNotifications(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckNotifications(cfg)
	if !result.Passed || result.Detail == "" {
		t.Fatalf("expected pass with detail for unconfigured topic, got %+v", result)
	}

	cfg.Notifications.NtfyTopic = "https://ntfy.sh/stock-runs"
	result = CheckNotifications(cfg)
	if !result.Passed {
		t.Fatalf("expected pass for configured topic, got: %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ReportsAllChecks(t *testing.T) {
	srv := healthyAPIServer(t)

	cfg := testsupport.NewConfig(t)
	cfg.OpenRouter.BaseURL = srv.URL
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	for _, result := range results {
		if !result.Passed {
			t.Errorf("check %q failed: %s", result.Name, result.Detail)
		}
	}
	if failed := Failures(results); len(failed) != 0 {
		t.Fatalf("expected no failures, got %v", failed)
	}
}

func TestFailuresFiltersFailedChecks(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Passed: false, Detail: "broken"},
		{Name: "c", Passed: true},
	}
	failed := Failures(results)
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Fatalf("unexpected failures: %v", failed)
	}
}
