package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ollama is the channeled backend: answers arrive as newline-delimited
// JSON chunks over a streaming HTTP response, delivered through a
// channel so each receive may block on network I/O.
type Ollama struct {
	baseURL         string
	httpClient      *http.Client
	streamingClient *http.Client
	defaultModel    string
}

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResponse struct {
	Model     string  `json:"model"`
	CreatedAt string  `json:"created_at"`
	Message   Message `json:"message"`
	Done      bool    `json:"done"`
}

// NewOllama creates an Ollama backend.
func NewOllama(baseURL, defaultModel string, timeout time.Duration) *Ollama {
	return &Ollama{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		// No client timeout while streaming; cancellation comes from ctx.
		streamingClient: &http.Client{},
		defaultModel:    defaultModel,
	}
}

// Name implements Backend.
func (o *Ollama) Name() string {
	return "ollama"
}

// Generate implements Backend. Setup failures (marshal, connect, bad
// status) are returned as errors; mid-stream failures travel through
// the delivery channel.
func (o *Ollama) Generate(ctx context.Context, req Request) (Delivery, error) {
	model := req.Model
	if model == "" {
		model = o.defaultModel
	}

	body := ollamaChatRequest{
		Model:    model,
		Messages: withPersona(req.Context, req.Messages),
		Stream:   true,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return Delivery{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return Delivery{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.streamingClient.Do(httpReq)
	if err != nil {
		return Delivery{}, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return Delivery{}, fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	ch := make(chan Chunk)
	go o.streamResponse(resp.Body, ch)

	return ChanneledFragments(ch), nil
}

// streamResponse reads the streaming response line by line into the
// delivery channel, then closes it.
func (o *Ollama) streamResponse(body io.ReadCloser, ch chan<- Chunk) {
	defer body.Close()
	defer close(ch)

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Skip malformed lines
			continue
		}

		if chunk.Message.Content != "" {
			ch <- Chunk{Text: chunk.Message.Content}
		}
		if chunk.Done {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		ch <- Chunk{Err: fmt.Errorf("scanner error: %w", err)}
	}
}

// HealthCheck verifies that Ollama is accessible.
func (o *Ollama) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/api/tags", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Ollama is unreachable at %s: %w (is Ollama running?)", o.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}

	return nil
}

// ListModels returns the list of available models.
func (o *Ollama) ListModels() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/api/tags", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	models := make([]string, len(result.Models))
	for i, m := range result.Models {
		models[i] = m.Name
	}
	return models, nil
}
