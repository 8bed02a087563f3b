package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient speaks the OpenAI-compatible chat-completions protocol.
// Local gateways (llama.cpp, Ollama, vLLM) expose the same shape, so one
// backend covers both cloud and local models.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewOpenAIClient creates a backend for the given endpoint and model.
// baseURL is the API root, e.g. "https://api.openai.com/v1".
func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate implements Client.
//
// The reply content must be a single JSON document matching out. Fenced
// code blocks around the JSON are tolerated; some models emit them even
// in JSON mode.
func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
		Temperature:    0.2,
	})
	if err != nil {
		return &ProviderError{Provider: "openai", Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return &ProviderError{Provider: "openai", Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Network errors are worth one more try.
		return &ProviderError{Provider: "openai", Transient: true, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return &ProviderError{Provider: "openai", Transient: true, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &ProviderError{
			Provider:  "openai",
			Transient: transientStatus(resp.StatusCode),
			Err:       fmt.Errorf("status %d: %s", resp.StatusCode, clipBody(raw)),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ProviderError{Provider: "openai", Err: fmt.Errorf("decode response: %w", err)}
	}
	if parsed.Error != nil {
		return &ProviderError{Provider: "openai", Err: fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return &ProviderError{Provider: "openai", Err: fmt.Errorf("empty choices")}
	}

	content := stripFences(parsed.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return &ProviderError{Provider: "openai", Err: fmt.Errorf("decode structured output: %w", err)}
	}
	return nil
}

// transientStatus classifies HTTP statuses worth retrying: rate limits
// and upstream overload/outage.
func transientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// stripFences removes a surrounding ```json ... ``` fence if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clipBody(b []byte) string {
	const max = 512
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
