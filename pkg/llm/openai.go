package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// chatClient implements Client for OpenAI-compatible APIs.
type chatClient struct {
	cfg  Config
	http *http.Client
}

func newChatClient(cfg Config) *chatClient {
	return &chatClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *chatClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	cReq := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	if req.Model != "" {
		cReq.Model = req.Model
	}
	if req.MaxTokens > 0 {
		cReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		cReq.Temperature = req.Temperature
	}

	body, err := json.Marshal(cReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		var errResp chatErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("%s API error (%d): %s", c.cfg.Provider, httpResp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("%s API error (%d): %s", c.cfg.Provider, httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var cResp chatResponse
	if err := json.Unmarshal(respBody, &cResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(cResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := cResp.Choices[0]
	model := cResp.Model
	if model == "" {
		model = cReq.Model
	}
	return &Response{
		Content:      stripThinkTags(choice.Message.Content),
		FinishReason: choice.FinishReason,
		TokensIn:     cResp.Usage.PromptTokens,
		TokensOut:    cResp.Usage.CompletionTokens,
		Cost:         EstimateCost(model, cResp.Usage.PromptTokens, cResp.Usage.CompletionTokens),
		Model:        model,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

func (c *chatClient) Provider() Provider {
	return c.cfg.Provider
}

func (c *chatClient) Close() error {
	return nil
}

// thinkTagRe matches <think>...</think> blocks (including multiline).
var thinkTagRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripThinkTags removes reasoning blocks that some hosted models prepend
// to their answer.
func stripThinkTags(content string) string {
	stripped := thinkTagRe.ReplaceAllString(content, "")
	return strings.TrimSpace(stripped)
}
