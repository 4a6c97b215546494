// Package llm is a thin client for OpenAI-compatible chat-completion
// endpoints (Groq, OpenAI, Ollama's /v1 API).
//
// Calls are single-shot: there is no retry layer, and every transport or
// upstream failure is returned to the caller, which decides how to recover.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	Groq   Provider = "groq"
	OpenAI Provider = "openai"
	Ollama Provider = "ollama"
)

var defaultBaseURLs = map[Provider]string{
	Groq:   "https://api.groq.com/openai/v1",
	OpenAI: "https://api.openai.com/v1",
	Ollama: "http://localhost:11434/v1",
}

// Config holds configuration for an LLM client.
type Config struct {
	Provider    Provider      `yaml:"provider" json:"provider" env:"LLM_PROVIDER"`
	Model       string        `yaml:"model" json:"model" env:"LLM_MODEL"`
	APIKey      string        `yaml:"api_key" json:"api_key" env:"LLM_API_KEY"`
	BaseURL     string        `yaml:"base_url" json:"base_url" env:"LLM_BASE_URL"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" env:"LLM_TIMEOUT"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Temperature float64       `yaml:"temperature" json:"temperature"`
}

// DefaultConfig returns a Config pointing at Groq.
func DefaultConfig() Config {
	return Config{
		Provider:    Groq,
		Model:       "llama3-8b-8192",
		Timeout:     60 * time.Second,
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// Client is the interface for chat-completion backends.
type Client interface {
	// Generate sends a request and returns the first choice.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Provider returns the name of the provider.
	Provider() Provider

	// Close releases any resources held by the client.
	Close() error
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Request holds the parameters for a generation request. Zero values fall
// back to the client's Config.
type Request struct {
	Model       string    `json:"model,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response holds the result of a generation.
type Response struct {
	Content      string  `json:"content"`
	FinishReason string  `json:"finish_reason,omitempty"`
	TokensIn     int     `json:"tokens_in"`
	TokensOut    int     `json:"tokens_out"`
	Cost         float64 `json:"cost"`
	Model        string  `json:"model"`
	LatencyMs    int64   `json:"latency_ms"`
}

// NewClient creates a client for cfg.Provider.
func NewClient(cfg Config) (Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Provider == "" {
		cfg.Provider = Groq
	}

	base, ok := defaultBaseURLs[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = base
	}
	if cfg.APIKey == "" && cfg.Provider != Ollama {
		return nil, fmt.Errorf("%s API key is required", cfg.Provider)
	}
	return newChatClient(cfg), nil
}

// Options are the per-call knobs of Complete.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Complete sends a system and a user prompt and returns the reply text.
func Complete(ctx context.Context, c Client, system, user string, opts Options) (string, error) {
	resp, err := c.Generate(ctx, &Request{
		Model:       opts.Model,
		System:      system,
		Messages:    []Message{{Role: "user", Content: user}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
