// Package ai is the client for the external inference collaborator. Both
// entry points are best-effort: any transport or parse failure surfaces as
// ErrUnavailable and callers degrade to local fallbacks.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/khrees2412/jobpilot/internal/config"
)

// ErrUnavailable means the inference collaborator could not produce a usable
// answer. Never fatal to a run.
var ErrUnavailable = errors.New("inference unavailable")

// Client talks to the configured AI provider.
type Client struct {
	provider   string
	model      string
	openAIKey  string
	anthKey    string
	ollamaURL  string
	httpClient *http.Client
}

// NewClient builds a Client from the app config.
func NewClient(cfg *config.Config) *Client {
	model := cfg.DefaultModel
	if model == "" {
		model = "llama3.2"
	}
	ollamaURL := cfg.OllamaURL
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	return &Client{
		provider:   cfg.AIProvider,
		model:      model,
		openAIKey:  cfg.OpenAIKey,
		anthKey:    cfg.AnthropicKey,
		ollamaURL:  ollamaURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Generate returns free text for a prompt, e.g. an answer to an open-ended
// application question.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return strings.TrimSpace(text), nil
}

// complete dispatches one completion request to the configured provider.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	switch c.provider {
	case "openai":
		return c.completeOpenAI(ctx, prompt)
	case "anthropic":
		return c.completeAnthropic(ctx, prompt)
	case "ollama":
		return c.completeOllama(ctx, prompt)
	default:
		return "", fmt.Errorf("unsupported AI provider: %s", c.provider)
	}
}

func (c *Client) completeOpenAI(ctx context.Context, prompt string) (string, error) {
	if c.openAIKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}
	model := c.model
	if model == "llama3.2" {
		model = "gpt-4o-mini"
	}

	body, err := c.post(ctx, "https://api.openai.com/v1/chat/completions",
		map[string]interface{}{
			"model": model,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
			"temperature": 0.3,
			"max_tokens":  1000,
		},
		map[string]string{"Authorization": "Bearer " + c.openAIKey},
	)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("unexpected response format from OpenAI")
	}
	return result.Choices[0].Message.Content, nil
}

func (c *Client) completeAnthropic(ctx context.Context, prompt string) (string, error) {
	if c.anthKey == "" {
		return "", fmt.Errorf("Anthropic API key not configured")
	}

	body, err := c.post(ctx, "https://api.anthropic.com/v1/messages",
		map[string]interface{}{
			"model":      "claude-3-5-sonnet-20241022",
			"max_tokens": 1024,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
		},
		map[string]string{
			"x-api-key":         c.anthKey,
			"anthropic-version": "2023-06-01",
		},
	)
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("unexpected response format from Anthropic")
	}
	return result.Content[0].Text, nil
}

func (c *Client) completeOllama(ctx context.Context, prompt string) (string, error) {
	body, err := c.post(ctx, c.ollamaURL+"/api/generate",
		map[string]interface{}{
			"model":  c.model,
			"prompt": prompt,
			"stream": false,
		},
		nil,
	)
	if err != nil {
		return "", err
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Response == "" {
		return "", fmt.Errorf("unexpected response format from Ollama")
	}
	return result.Response, nil
}

func (c *Client) post(ctx context.Context, url string, reqBody map[string]interface{}, headers map[string]string) ([]byte, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
