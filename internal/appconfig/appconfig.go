// Package appconfig defines the NewsPulse configuration file and its
// defaults.
package appconfig

import (
	"fmt"
	"time"

	"github.com/RobinCoderZhao/newspulse/pkg/config"
	"github.com/RobinCoderZhao/newspulse/pkg/llm"
	"github.com/RobinCoderZhao/newspulse/pkg/notify"
	"github.com/RobinCoderZhao/newspulse/pkg/storage"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "newspulse.yaml"

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Sources SourcesConfig  `yaml:"sources"`
	LLM     LLMConfig      `yaml:"llm"`
	Storage storage.Config `yaml:"storage"`
	Auth    AuthConfig     `yaml:"auth"`
	Digest  DigestConfig   `yaml:"digest"`
	Log     LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            string        `yaml:"port" env:"API_PORT"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"CORS_ORIGINS"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SourcesConfig configures the news adapters and the headlines cache.
type SourcesConfig struct {
	GNewsAPIKey   string        `yaml:"gnews_api_key" env:"GNEWS_API_KEY"`
	SourceTimeout time.Duration `yaml:"source_timeout"`
	HeadlinesTTL  time.Duration `yaml:"headlines_ttl"`
}

// LLMConfig configures the generative backend.
type LLMConfig struct {
	Provider string        `yaml:"provider" env:"LLM_PROVIDER"`
	Model    string        `yaml:"model" env:"LLM_MODEL"`
	APIKey   string        `yaml:"api_key" env:"GROQ_API_KEY,LLM_API_KEY"`
	BaseURL  string        `yaml:"base_url" env:"LLM_BASE_URL"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AuthConfig configures API tokens.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// DigestConfig configures weekly digest generation and delivery.
type DigestConfig struct {
	Interval time.Duration        `yaml:"interval"`
	Email    notify.EmailConfig   `yaml:"email"`
	Webhook  notify.WebhookConfig `yaml:"webhook"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	llmDefaults := llm.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			AllowedOrigins:  []string{"http://localhost:3000"},
			ShutdownTimeout: 5 * time.Second,
		},
		Sources: SourcesConfig{
			SourceTimeout: 10 * time.Second,
			HeadlinesTTL:  30 * time.Minute,
		},
		LLM: LLMConfig{
			Provider: string(llmDefaults.Provider),
			Model:    llmDefaults.Model,
			Timeout:  llmDefaults.Timeout,
		},
		Storage: storage.Config{DSN: "data/newspulse.db"},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Digest: DigestConfig{
			Interval: 7 * 24 * time.Hour,
			Email:    notify.EmailConfig{SMTPPort: "587"},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults
// with environment overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	if err := config.LoadOrDefault(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	if c.Sources.SourceTimeout <= 0 {
		return fmt.Errorf("sources.source_timeout must be positive")
	}
	if c.Sources.HeadlinesTTL <= 0 {
		return fmt.Errorf("sources.headlines_ttl must be positive")
	}
	if c.Digest.Interval < 0 {
		return fmt.Errorf("digest.interval must not be negative")
	}
	switch llm.Provider(c.LLM.Provider) {
	case llm.Groq, llm.OpenAI, llm.Ollama:
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	return nil
}

// LLMClientConfig converts the llm section into a client config.
func (c Config) LLMClientConfig() llm.Config {
	out := llm.DefaultConfig()
	out.Provider = llm.Provider(c.LLM.Provider)
	if c.LLM.Model != "" {
		out.Model = c.LLM.Model
	}
	out.APIKey = c.LLM.APIKey
	out.BaseURL = c.LLM.BaseURL
	if c.LLM.Timeout > 0 {
		out.Timeout = c.LLM.Timeout
	}
	return out
}

// LLMEnabled reports whether a backend client can be built.
func (c Config) LLMEnabled() bool {
	return c.LLM.APIKey != "" || llm.Provider(c.LLM.Provider) == llm.Ollama
}
