package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes YAML scalars like "45s" or
// "2m" as well as integer nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	Cache    CacheConfig    `yaml:"cache"`
	Summary  SummaryConfig  `yaml:"summary"`
	Archive  ArchiveConfig  `yaml:"archive"`

	// Workers bounds concurrent blocking operations (summaries,
	// generation) across all sessions.
	Workers int  `yaml:"workers"`
	Verbose bool `yaml:"verbose"`
}

// ServerConfig holds the HTTP/websocket listener settings.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	DefaultRoom string `yaml:"default_room"`
}

// ProviderConfig selects and configures the LLM backends.
type ProviderConfig struct {
	Default string       `yaml:"default"`
	OpenAI  OpenAIConfig `yaml:"openai"`
	Ollama  OllamaConfig `yaml:"ollama"`
}

// OpenAIConfig configures the synchronous backend.
type OpenAIConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

// OllamaConfig configures the channeled backend.
type OllamaConfig struct {
	BaseURL string   `yaml:"base_url"`
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

// CacheConfig configures the answer cache and cached-answer replay.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // "memory" or "redis"
	RedisAddr        string   `yaml:"redis_addr"`
	SeedPath         string   `yaml:"seed_path"`
	ReplayBatchWords int      `yaml:"replay_batch_words"`
	ReplayDelay      Duration `yaml:"replay_delay"`
}

// SummaryConfig configures the summary cache and its sources.
type SummaryConfig struct {
	ResumeDir string   `yaml:"resume_dir"`
	JobDir    string   `yaml:"job_dir"`
	TTL       Duration `yaml:"ttl"`
	Model     string   `yaml:"model"`
}

// ArchiveConfig configures the transcript archive.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8000",
			DefaultRoom: "default",
		},
		Provider: ProviderConfig{
			Default: "ollama",
			OpenAI: OpenAIConfig{
				BaseURL: "https://api.openai.com",
				Model:   "gpt-4o-mini",
				Timeout: Duration(120 * time.Second),
			},
			Ollama: OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "llama3.1:8b",
				Timeout: Duration(120 * time.Second),
			},
		},
		Cache: CacheConfig{
			Driver:           "memory",
			RedisAddr:        "localhost:6379",
			SeedPath:         "faq.json",
			ReplayBatchWords: 4,
			ReplayDelay:      Duration(50 * time.Millisecond),
		},
		Summary: SummaryConfig{
			ResumeDir: "documents/resume",
			JobDir:    "documents/job_description",
			TTL:       Duration(time.Hour),
		},
		Archive: ArchiveConfig{
			Enabled: true,
			Path:    "interview.db",
		},
		Workers: 8,
	}
}

// Load builds a configuration from defaults, an optional YAML file and
// environment overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from the environment.
func (c *Config) applyEnv() {
	if v := GetEnv("COPILOT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := GetEnv("OPENAI_API_KEY"); v != "" {
		c.Provider.OpenAI.APIKey = v
	}
	if v := GetEnv("OLLAMA_BASE_URL"); v != "" {
		c.Provider.Ollama.BaseURL = v
	}
	if v := GetEnv("COPILOT_PROVIDER"); v != "" {
		c.Provider.Default = v
	}
	if v := GetEnv("COPILOT_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.Server.DefaultRoom == "" {
		return fmt.Errorf("default room cannot be empty")
	}
	if c.Provider.Default != "openai" && c.Provider.Default != "ollama" {
		return fmt.Errorf("default provider must be openai or ollama, got %q", c.Provider.Default)
	}
	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("cache driver must be memory or redis, got %q", c.Cache.Driver)
	}
	if c.Cache.ReplayBatchWords < 1 {
		return fmt.Errorf("replay batch words must be at least 1")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = os.Getenv
