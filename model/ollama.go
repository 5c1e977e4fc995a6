package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OllamaCompleter calls the /api/generate endpoint of an Ollama server.
type OllamaCompleter struct {
	apiURL string
	client *http.Client
}

type OllamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type OllamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func NewOllamaCompleter(apiURL string) *OllamaCompleter {
	return &OllamaCompleter{
		apiURL: apiURL,
		client: http.DefaultClient,
	}
}

func (c *OllamaCompleter) Complete(ctx context.Context, prompt, model string) (string, error) {
	body, err := json.Marshal(OllamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var genResp OllamaGenerateResponse
	if err := json.Unmarshal(respBody, &genResp); err == nil {
		if genResp.Error != "" {
			return "", fmt.Errorf("ollama API error: %s", genResp.Error)
		}
		return strings.TrimSpace(genResp.Response), nil
	}

	// streamed body: one JSON object per line
	var out strings.Builder
	decoder := json.NewDecoder(bytes.NewReader(respBody))
	for decoder.More() {
		var chunk OllamaGenerateResponse
		if err := decoder.Decode(&chunk); err != nil {
			return "", fmt.Errorf("failed to decode stream: %w", err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("ollama API error: %s", chunk.Error)
		}
		out.WriteString(chunk.Response)
	}
	return strings.TrimSpace(out.String()), nil
}
