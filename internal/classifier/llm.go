package classifier

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

const defaultAPIURL = "https://api.anthropic.com/v1/messages"

// LLMClient classifies file batches through an Anthropic-compatible messages
// API. Prompting and response parsing live entirely in here; callers only
// see decorations or an error.
type LLMClient struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

// NewLLMClient creates an LLM-backed classifier client. baseURL may be empty
// for the default endpoint.
func NewLLMClient(apiKey, model, baseURL string) *LLMClient {
	url := defaultAPIURL
	if baseURL != "" {
		url = strings.TrimSuffix(baseURL, "/") + "/v1/messages"
	}
	return &LLMClient{
		apiKey: apiKey,
		model:  model,
		apiURL: url,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Available reports whether the client is configured
func (c *LLMClient) Available() bool {
	return c.apiKey != ""
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// fileLabel is the JSON shape the model is asked to return per file
type fileLabel struct {
	Path        string `json:"path"`
	Role        string `json:"role"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

const systemPrompt = `You are a code architecture analyst. For each file summary you receive, assign:
- role: one of component, utility, service, model, config, test, hook, context, store, middleware, controller, router, schema, unknown
- category: one of frontend, backend, shared, infrastructure, test, config, unknown
- description: one short sentence describing the file's purpose

Respond with a JSON array only, one object per input file, each with keys path, role, category, description. No prose.`

// ClassifyBatch sends one batch and parses the per-file labels. Any
// transport, API or parse failure is returned as-is; the adapter falls back
// to heuristics for the affected files.
func (c *LLMClient) ClassifyBatch(ctx context.Context, directoryName string, files []FileSummary) (map[string]Decoration, error) {
	if !c.Available() {
		return nil, fmt.Errorf("llm classifier not configured")
	}

	payload, err := json.Marshal(struct {
		DirectoryName string        `json:"directory_name"`
		Files         []FileSummary `json:"files"`
	}{DirectoryName: directoryName, Files: files})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	reqBody, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: 4096,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: string(payload)}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var apiResp messagesResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("classifier error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("classifier returned empty content")
	}

	return parseLabels(apiResp.Content[0].Text)
}

// parseLabels extracts the JSON array from the model output. The enum
// parsers coerce anything unrecognized to unknown rather than failing.
func parseLabels(text string) (map[string]Decoration, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in classifier output")
	}

	var labels []fileLabel
	if err := json.Unmarshal([]byte(text[start:end+1]), &labels); err != nil {
		return nil, fmt.Errorf("failed to parse classifier output: %w", err)
	}

	out := make(map[string]Decoration, len(labels))
	for _, l := range labels {
		if l.Path == "" {
			continue
		}
		out[l.Path] = Decoration{
			Role:        ParseRole(strings.ToLower(l.Role)),
			Category:    ParseCategory(strings.ToLower(l.Category)),
			Description: l.Description,
		}
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
