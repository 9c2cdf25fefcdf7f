// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return configPath
}

const validConfig = `
telegram:
  token: "123456:test-token"

openai:
  api_key: "sk-test"

assistants:
  - key: "market"
    assistant_id: "asst_market"
    display_name: "📊 Market Analysis"
    description: "Market sizing and competitor research"
  - key: "founder"
    assistant_id: "asst_founder"
    display_name: "💡 Founder Ideas"

runs:
  poll_interval: "500ms"
  max_attempts: 10

transport:
  max_chunk_len: 2000

database:
  path: "./test.db"

server:
  http_addr: "0.0.0.0:9090"

logging:
  level: "debug"
  format: "json"
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Telegram.Token != "123456:test-token" {
		t.Errorf("unexpected telegram token: %q", cfg.Telegram.Token)
	}
	if len(cfg.Assistants) != 2 {
		t.Fatalf("expected 2 assistants, got %d", len(cfg.Assistants))
	}
	if cfg.Assistants[0].Key != "market" || cfg.Assistants[0].AssistantID != "asst_market" {
		t.Errorf("unexpected first assistant: %+v", cfg.Assistants[0])
	}
	if cfg.Runs.PollInterval != 500*time.Millisecond {
		t.Errorf("expected poll_interval 500ms, got %v", cfg.Runs.PollInterval)
	}
	if cfg.Runs.MaxAttempts != 10 {
		t.Errorf("expected max_attempts 10, got %d", cfg.Runs.MaxAttempts)
	}
	if cfg.Transport.MaxChunkLen != 2000 {
		t.Errorf("expected max_chunk_len 2000, got %d", cfg.Transport.MaxChunkLen)
	}
	if cfg.Server.HTTPAddr != "0.0.0.0:9090" {
		t.Errorf("unexpected http_addr: %q", cfg.Server.HTTPAddr)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
telegram:
  token: "123456:test-token"
openai:
  api_key: "sk-test"
assistants:
  - key: "market"
    assistant_id: "asst_market"
database:
  path: "./test.db"
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Runs.PollInterval != DefaultPollInterval {
		t.Errorf("expected default poll interval, got %v", cfg.Runs.PollInterval)
	}
	if cfg.Runs.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("expected default max attempts, got %d", cfg.Runs.MaxAttempts)
	}
	if cfg.Transport.MaxChunkLen != DefaultMaxChunkLen {
		t.Errorf("expected default chunk length, got %d", cfg.Transport.MaxChunkLen)
	}
	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("expected default http addr, got %q", cfg.Server.HTTPAddr)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("ADVISOR_TEST_TOKEN", "env-token")
	t.Setenv("ADVISOR_TEST_ASSISTANT", "asst_from_env")

	cfg, err := Load(writeConfig(t, `
telegram:
  token: "${ADVISOR_TEST_TOKEN}"
openai:
  api_key: "sk-test"
assistants:
  - key: "market"
    assistant_id: "${ADVISOR_TEST_ASSISTANT}"
database:
  path: "./test.db"
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Telegram.Token != "env-token" {
		t.Errorf("expected env-expanded token, got %q", cfg.Telegram.Token)
	}
	if cfg.Assistants[0].AssistantID != "asst_from_env" {
		t.Errorf("expected env-expanded assistant id, got %q", cfg.Assistants[0].AssistantID)
	}
}

func TestLoad_MissingAssistantID(t *testing.T) {
	// An unset env var expands to empty - this must fail at startup,
	// never surface as a runtime error
	_, err := Load(writeConfig(t, `
telegram:
  token: "123456:test-token"
openai:
  api_key: "sk-test"
assistants:
  - key: "market"
    assistant_id: "${ADVISOR_TEST_UNSET_VAR_XYZ}"
database:
  path: "./test.db"
`))
	if err == nil {
		t.Fatal("expected error for missing assistant_id")
	}
	if !strings.Contains(err.Error(), "assistant_id is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_DuplicateVariantKey(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123456:test-token"
openai:
  api_key: "sk-test"
assistants:
  - key: "market"
    assistant_id: "asst_a"
  - key: "market"
    assistant_id: "asst_b"
database:
  path: "./test.db"
`))
	if err == nil {
		t.Fatal("expected error for duplicate variant key")
	}
	if !strings.Contains(err.Error(), "duplicate assistant variant key") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123456:test-token"
openai:
  api_key: "sk-test"
assistants:
  - key: "market"
    assistant_id: "asst_market"
runs:
  poll_interval: "not-a-duration"
database:
  path: "./test.db"
`))
	if err == nil {
		t.Fatal("expected error for invalid poll_interval")
	}
	if !strings.Contains(err.Error(), "poll_interval") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_MissingDatabasePath(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123456:test-token"
openai:
  api_key: "sk-test"
assistants:
  - key: "market"
    assistant_id: "asst_market"
`))
	if err == nil {
		t.Fatal("expected error for missing database path")
	}
	if !strings.Contains(err.Error(), "database.path") {
		t.Errorf("unexpected error: %v", err)
	}
}
