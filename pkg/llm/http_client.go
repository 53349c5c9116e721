package llm

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
)

const defaultModel = "gpt-4o-mini"

// Config configures the HTTP completion client. The API surface is the
// OpenAI chat-completions shape, which most providers expose.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HTTPClient implements Client against a chat-completions endpoint.
type HTTPClient struct {
	config Config
	client *http.Client
}

func NewHTTPClient(config Config) *HTTPClient {
	if config.Model == "" {
		config.Model = defaultModel
	}

	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	return &HTTPClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *HTTPClient) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}

	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}

	messages = append(messages, chatMessage{Role: "user", Content: req.UserPrompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.config.BaseURL, "/")+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)

		return nil, fmt.Errorf("completion API returned %d: %s", resp.StatusCode, respBody)
	}

	var completion chatResponse

	err = json.NewDecoder(resp.Body).Decode(&completion)
	if err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, errors.New("completion response has no choices")
	}

	return parseReply(completion.Choices[0].Message.Content, completion.Model), nil
}

// parseReply accepts either plain text or the structured JSON the reply
// prompt asks for ({"reply": ..., "confidence": ...}).
func parseReply(content, model string) *Response {
	response := Response{Reply: content, Confidence: 1.0, Model: model}

	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return &response
	}

	var structured Response
	if err := json.Unmarshal([]byte(trimmed), &structured); err != nil {
		return &response
	}

	if structured.Reply == "" {
		return &response
	}

	if structured.Confidence <= 0 || structured.Confidence > 1 {
		structured.Confidence = 1.0
	}

	if structured.Model == "" {
		structured.Model = model
	}

	return &structured
}
