package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Usage is the token accounting reported for one completion call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the raw result of one model call.
type Completion struct {
	Text  string
	Usage Usage
}

// Completer is the single capability the oracle is layered on: complete text
// given a prompt, with deterministic (temperature-zero) sampling.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// NewClient creates a Client for the given endpoint and model.
func NewClient(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Complete sends the prompt as a single user message at temperature zero.
func (c *Client) Complete(ctx context.Context, prompt string) (Completion, error) {
	if c.apiKey == "" {
		return Completion{}, errors.New("missing OPENAI_API_KEY")
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return Completion{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Completion{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Completion{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return Completion{}, fmt.Errorf("model endpoint status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Completion{}, err
	}
	if len(out.Choices) == 0 {
		return Completion{}, errors.New("no choices returned")
	}

	return Completion{
		Text:  strings.TrimSpace(out.Choices[0].Message.Content),
		Usage: out.Usage,
	}, nil
}

// UsageRecorder accumulates token usage across all oracle calls within one
// game. Safe for concurrent use, though turns are serialized by the caller.
type UsageRecorder struct {
	mu       sync.Mutex
	prompt   int
	compl    int
	total    int
	requests int
}

// NewUsageRecorder returns an empty recorder.
func NewUsageRecorder() *UsageRecorder {
	return &UsageRecorder{}
}

// Record adds one completion's usage to the running totals.
func (r *UsageRecorder) Record(u Usage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompt += u.PromptTokens
	r.compl += u.CompletionTokens
	r.total += u.TotalTokens
	r.requests++
}

// Snapshot returns the aggregated usage as a JSON-shaped map, suitable for
// storing on a finished game session.
func (r *UsageRecorder) Snapshot() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]any{
		"prompt_tokens":       r.prompt,
		"completion_tokens":   r.compl,
		"total_tokens":        r.total,
		"successful_requests": r.requests,
	}
}
