package provider

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

// OpenAI is the synchronous backend: one chat-completions call returns
// the full answer, which is split into a materialized fragment
// sequence.
type OpenAI struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	defaultModel string
}

type openAIChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAI creates an OpenAI-compatible backend.
func NewOpenAI(baseURL, apiKey, defaultModel string, timeout time.Duration) *OpenAI {
	return &OpenAI{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		defaultModel: defaultModel,
	}
}

// Name implements Backend.
func (o *OpenAI) Name() string {
	return "openai"
}

// Generate implements Backend.
func (o *OpenAI) Generate(ctx context.Context, req Request) (Delivery, error) {
	model := req.Model
	if model == "" {
		model = o.defaultModel
	}

	body := openAIChatRequest{
		Model:    model,
		Messages: withPersona(req.Context, req.Messages),
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return Delivery{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return Delivery{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return Delivery{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		respBody, _ := io.ReadAll(resp.Body)
		return Delivery{}, fmt.Errorf("OpenAI returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return Delivery{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil {
		return Delivery{}, fmt.Errorf("OpenAI error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return Delivery{}, fmt.Errorf("OpenAI returned no choices")
	}

	return SyncFragments(splitFragments(chatResp.Choices[0].Message.Content)), nil
}

// fragmentWords is how many words each materialized fragment carries.
const fragmentWords = 6

// splitFragments cuts a full answer into word-group fragments so the
// display still builds up incrementally.
func splitFragments(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var fragments []string
	for i := 0; i < len(words); i += fragmentWords {
		end := i + fragmentWords
		if end > len(words) {
			end = len(words)
		}
		fragment := strings.Join(words[i:end], " ")
		if end < len(words) {
			fragment += " "
		}
		fragments = append(fragments, fragment)
	}
	return fragments
}
