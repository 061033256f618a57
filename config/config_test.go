package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voice-chat/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AZURE_SPEECH_SUBSCRIPTION", "AZURE_SPEECH_REGION", "REPLICATE_API_TOKEN",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"GOOGLE_APPLICATION_CREDENTIALS", "REDIS_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Speech.Provider != "azure" || cfg.Speech.Language != "en-US" {
		t.Errorf("speech defaults: got %+v", cfg.Speech)
	}
	if cfg.Completion.Model != "meta/llama-2-70b-chat" {
		t.Errorf("model: got %q", cfg.Completion.Model)
	}
	if cfg.Synthesis.Voice != "en-US-AvaMultilingualNeural" {
		t.Errorf("voice: got %q", cfg.Synthesis.Voice)
	}
	if cfg.Pipeline.RunTimeout() != 2*time.Minute {
		t.Errorf("timeout: got %s", cfg.Pipeline.RunTimeout())
	}
	if cfg.SecretsFile != "secrets.yaml" {
		t.Errorf("secrets file: got %q", cfg.SecretsFile)
	}
}

func TestLoad_ExpandsEnvAndOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AZURE_SPEECH_SUBSCRIPTION", "sub-from-env")
	t.Setenv("AZURE_SPEECH_REGION", "westeurope")
	t.Setenv("MY_TOKEN", "r8_expanded")

	path := writeFile(t, "config.yaml", `
server:
  addr: ":9000"
  rate_window: 30s
replicate:
  api_token: ${MY_TOKEN}
completion:
  system_prompt: "Answer in one sentence."
pipeline:
  timeout: 45s
log:
  level: debug
  format: json
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Addr != ":9000" || cfg.Server.RateWindow != 30*time.Second {
		t.Errorf("server: got %+v", cfg.Server)
	}
	if cfg.Replicate.APIToken != "r8_expanded" {
		t.Errorf("api token: got %q", cfg.Replicate.APIToken)
	}
	if cfg.Speech.Subscription != "sub-from-env" || cfg.Speech.Region != "westeurope" {
		t.Errorf("speech: got %+v", cfg.Speech)
	}
	if cfg.Pipeline.RunTimeout() != 45*time.Second {
		t.Errorf("timeout: got %s", cfg.Pipeline.RunTimeout())
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log: got %+v", cfg.Log)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_ZeroTimeoutDisablesLimit(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "pipeline:\n  timeout: 0s\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Pipeline.Timeout == nil {
		t.Fatal("explicit timeout was dropped")
	}
	if got := cfg.Pipeline.RunTimeout(); got != 0 {
		t.Errorf("timeout: got %s, want 0", got)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "server: [unclosed")
	if _, err := config.Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate_ReportsMissingCredentials(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{"AZURE_SPEECH_SUBSCRIPTION", "AZURE_SPEECH_REGION", "REPLICATE_API_TOKEN"} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %s in %q", want, msg)
		}
	}
	if strings.Count(msg, "AZURE_SPEECH_REGION") != 1 {
		t.Errorf("duplicate errors in %q", msg)
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "completion:\n  provider: mystery\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), `unknown completion provider "mystery"`) {
		t.Errorf("got %v", err)
	}
}

func TestLoadSecrets(t *testing.T) {
	path := writeFile(t, "secrets.yaml", "password: hunter2\n")

	s, err := config.LoadSecrets(path)
	if err != nil {
		t.Fatalf("LoadSecrets error: %v", err)
	}
	if s.Password != "hunter2" {
		t.Errorf("password: got %q", s.Password)
	}

	empty := writeFile(t, "empty.yaml", "password: \"\"\n")
	if _, err := config.LoadSecrets(empty); err == nil {
		t.Error("expected error for empty password")
	}

	if _, err := config.LoadSecrets(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("VOICECHAT_TEST_PRESET", "kept")
	path := writeFile(t, ".env", "VOICECHAT_TEST_NEW=loaded\nVOICECHAT_TEST_PRESET=overwritten\n")
	t.Cleanup(func() { os.Unsetenv("VOICECHAT_TEST_NEW") })

	if err := config.LoadEnv(path, filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}

	if got := os.Getenv("VOICECHAT_TEST_NEW"); got != "loaded" {
		t.Errorf("new var: got %q", got)
	}
	if got := os.Getenv("VOICECHAT_TEST_PRESET"); got != "kept" {
		t.Errorf("preset var: got %q", got)
	}
}
