package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig     `yaml:"server"`
	Session     SessionConfig    `yaml:"session"`
	Redis       RedisConfig      `yaml:"redis"`
	Speech      SpeechConfig     `yaml:"speech"`
	Completion  CompletionConfig `yaml:"completion"`
	Synthesis   SynthesisConfig  `yaml:"synthesis"`
	Replicate   ReplicateConfig  `yaml:"replicate"`
	OpenAI      OpenAIConfig     `yaml:"openai"`
	Anthropic   AnthropicConfig  `yaml:"anthropic"`
	Gemini      GeminiConfig     `yaml:"gemini"`
	Google      GoogleConfig     `yaml:"google"`
	Pipeline    PipelineConfig   `yaml:"pipeline"`
	Playback    PlaybackConfig   `yaml:"playback"`
	SecretsFile string           `yaml:"secrets_file"`
	Log         LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	SecureCookies bool          `yaml:"secure_cookies"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	RateLimit     int           `yaml:"rate_limit"`
	RateWindow    time.Duration `yaml:"rate_window"`
}

type SessionConfig struct {
	Store         string        `yaml:"store"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	OutputDir     string        `yaml:"output_dir"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SpeechConfig struct {
	Provider     string `yaml:"provider"`
	Subscription string `yaml:"subscription"`
	Region       string `yaml:"region"`
	Language     string `yaml:"language"`
}

type CompletionConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
}

type SynthesisConfig struct {
	Provider string `yaml:"provider"`
	Voice    string `yaml:"voice"`
}

type ReplicateConfig struct {
	APIToken string `yaml:"api_token"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

// PipelineConfig bounds a run. A nil Timeout takes the default, zero disables it.
type PipelineConfig struct {
	Timeout *time.Duration `yaml:"timeout"`
}

func (p PipelineConfig) RunTimeout() time.Duration {
	if p.Timeout == nil {
		return 0
	}
	return *p.Timeout
}

type PlaybackConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadEnv reads KEY=value files into the environment without overriding
// variables that are already set. Missing files are skipped.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML file at path, expanding ${VAR} references. A missing
// file is not an error: defaults and the environment are used instead.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	envDefault(&c.Speech.Subscription, "AZURE_SPEECH_SUBSCRIPTION")
	envDefault(&c.Speech.Region, "AZURE_SPEECH_REGION")
	envDefault(&c.Replicate.APIToken, "REPLICATE_API_TOKEN")
	envDefault(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	envDefault(&c.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	envDefault(&c.Gemini.APIKey, "GEMINI_API_KEY")
	envDefault(&c.Google.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	envDefault(&c.Redis.Addr, "REDIS_ADDR")
}

func envDefault(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8501"
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 3 * time.Minute
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 30
	}
	if c.Server.RateWindow == 0 {
		c.Server.RateWindow = time.Minute
	}
	if c.Session.Store == "" {
		c.Session.Store = "memory"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 12 * time.Hour
	}
	if c.Session.SweepInterval == 0 {
		c.Session.SweepInterval = 10 * time.Minute
	}
	if c.Session.OutputDir == "" {
		c.Session.OutputDir = "./sessions"
	}
	if c.Speech.Provider == "" {
		c.Speech.Provider = "azure"
	}
	if c.Speech.Language == "" {
		c.Speech.Language = "en-US"
	}
	if c.Completion.Provider == "" {
		c.Completion.Provider = "replicate"
	}
	if c.Completion.Model == "" && c.Completion.Provider == "replicate" {
		c.Completion.Model = "meta/llama-2-70b-chat"
	}
	if c.Synthesis.Provider == "" {
		c.Synthesis.Provider = "azure"
	}
	if c.Synthesis.Voice == "" && c.Synthesis.Provider == "azure" {
		c.Synthesis.Voice = "en-US-AvaMultilingualNeural"
	}
	if c.Pipeline.Timeout == nil {
		d := 2 * time.Minute
		c.Pipeline.Timeout = &d
	}
	if c.SecretsFile == "" {
		c.SecretsFile = "secrets.yaml"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports every missing credential for the selected providers.
func (c *Config) Validate() error {
	var errs []error

	switch c.Speech.Provider {
	case "azure":
		errs = append(errs, required("speech.subscription (AZURE_SPEECH_SUBSCRIPTION)", c.Speech.Subscription))
		errs = append(errs, required("speech.region (AZURE_SPEECH_REGION)", c.Speech.Region))
	case "openai":
		errs = append(errs, required("openai.api_key (OPENAI_API_KEY)", c.OpenAI.APIKey))
	case "google":
	default:
		errs = append(errs, fmt.Errorf("unknown speech provider %q", c.Speech.Provider))
	}

	switch c.Completion.Provider {
	case "replicate":
		errs = append(errs, required("replicate.api_token (REPLICATE_API_TOKEN)", c.Replicate.APIToken))
	case "openai":
		errs = append(errs, required("openai.api_key (OPENAI_API_KEY)", c.OpenAI.APIKey))
	case "anthropic":
		errs = append(errs, required("anthropic.api_key (ANTHROPIC_API_KEY)", c.Anthropic.APIKey))
	case "gemini":
		errs = append(errs, required("gemini.api_key (GEMINI_API_KEY)", c.Gemini.APIKey))
	default:
		errs = append(errs, fmt.Errorf("unknown completion provider %q", c.Completion.Provider))
	}

	switch c.Synthesis.Provider {
	case "azure":
		errs = append(errs, required("speech.subscription (AZURE_SPEECH_SUBSCRIPTION)", c.Speech.Subscription))
		errs = append(errs, required("speech.region (AZURE_SPEECH_REGION)", c.Speech.Region))
	case "openai":
		errs = append(errs, required("openai.api_key (OPENAI_API_KEY)", c.OpenAI.APIKey))
	default:
		errs = append(errs, fmt.Errorf("unknown synthesis provider %q", c.Synthesis.Provider))
	}

	switch c.Session.Store {
	case "memory":
	case "redis":
		errs = append(errs, required("redis.addr (REDIS_ADDR)", c.Redis.Addr))
	default:
		errs = append(errs, fmt.Errorf("unknown session store %q", c.Session.Store))
	}

	return errors.Join(dedupe(errs)...)
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is not set", name)
	}
	return nil
}

func dedupe(errs []error) []error {
	seen := make(map[string]bool)
	out := errs[:0]
	for _, err := range errs {
		if err == nil || seen[err.Error()] {
			continue
		}
		seen[err.Error()] = true
		out = append(out, err)
	}
	return out
}

type Secrets struct {
	Password string `yaml:"password"`
}

// LoadSecrets reads the gate password. Unlike the main config, the file
// must exist and must set a password.
func LoadSecrets(path string) (*Secrets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}

	var s Secrets
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing secrets: %w", err)
	}

	if s.Password == "" {
		return nil, fmt.Errorf("secrets file %s has no password", path)
	}

	return &s, nil
}
