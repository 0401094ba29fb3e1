package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"stocksmith/internal/config"
	"stocksmith/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("OPENROUTER_API_KEY", "")

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// newMetadataStub serves the chat completions endpoint. Health probes get
// {"ok":true}; generation requests are answered item by item with fixed
// metadata derived from the requested id.
func newMetadataStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var userContent string
		for _, msg := range req.Messages {
			if msg.Role == "user" {
				userContent = msg.Content
			}
		}

		content := `{"ok":true}`
		var requested []struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(userContent), &requested); err == nil && len(requested) > 0 {
			entries := make([]map[string]any, 0, len(requested))
			for _, item := range requested {
				entries = append(entries, map[string]any{
					"id":       item.ID,
					"title":    "Stub Title " + item.ID,
					"keywords": []string{"stock", "photo"},
					"category": "Landscapes",
				})
			}
			payload, err := json.Marshal(map[string]any{"items": entries})
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			content = string(payload)
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Logf("encode stub response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeInputFiles(t *testing.T, env *cliTestEnv, count int) (string, string) {
	t.Helper()
	filenames := make([]string, count)
	prompts := make([]string, count)
	for i := range filenames {
		filenames[i] = fmt.Sprintf("photo-%02d.jpg", i+1)
		prompts[i] = fmt.Sprintf("Stock photo prompt number %d", i+1)
	}
	filesPath := testsupport.WriteLines(t, filepath.Join(env.baseDir, "filenames.txt"), filenames...)
	promptsPath := testsupport.WriteLines(t, filepath.Join(env.baseDir, "prompts.txt"), prompts...)
	return filesPath, promptsPath
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q to not contain %q", output, substr)
	}
}
