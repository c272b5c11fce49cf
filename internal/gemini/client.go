// Package gemini is a minimal client for the Google Generative Language
// REST API, covering the two capabilities this service consumes: single-turn
// text completion and text embedding.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client communicates with the Generative Language API over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	maxTokens  int
	httpClient *http.Client
}

// Options configures a Client. Zero-value fields fall back to the
// production endpoint and no output-token cap.
type Options struct {
	BaseURL         string
	APIKey          string
	ChatModel       string
	EmbedModel      string
	MaxOutputTokens int
	HTTPClient      *http.Client
}

// New creates a Client. Timeout policy belongs to the injected HTTP client;
// by default requests are bounded only by the caller's context.
func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     opts.APIKey,
		chatModel:  opts.ChatModel,
		embedModel: opts.EmbedModel,
		maxTokens:  opts.MaxOutputTokens,
		httpClient: httpClient,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// generateRequest is the JSON body for models/{model}:generateContent.
type generateRequest struct {
	SystemInstruction *content          `json:"system_instruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Complete sends a single-turn completion request and returns the model's
// response text. The system instruction and user message map directly onto
// the API's system_instruction and contents fields.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	gr := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: user}}}},
	}
	if system != "" {
		gr.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	if c.maxTokens > 0 {
		gr.GenerationConfig = &generationConfig{MaxOutputTokens: c.maxTokens}
	}

	var result generateResponse
	if err := c.post(ctx, c.chatModel, "generateContent", gr, &result); err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}

	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("completion: no candidates in response")
	}
	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// embedRequest is the JSON body for models/{model}:embedContent.
type embedRequest struct {
	Content content `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	er := embedRequest{Content: content{Parts: []part{{Text: text}}}}

	var result embedResponse
	if err := c.post(ctx, c.embedModel, "embedContent", er, &result); err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	if len(result.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding: empty vector in response")
	}
	return result.Embedding.Values, nil
}

func (c *Client) post(ctx context.Context, model, method string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:%s", c.baseURL, model, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// The API reports failures as JSON; surface a short excerpt.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s: unexpected status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	return nil
}
