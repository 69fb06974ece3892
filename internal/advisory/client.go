package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-threshing-market/internal/logger"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	log     *logger.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption { return func(c *Client) { c.http = h } }
func WithLogger(l *logger.Logger) ClientOption { return func(c *Client) { c.log = l } }

func NewClient(apiKey, baseURL, model string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     logger.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) SuggestCrops(ctx context.Context, in CropsInput) (CropsOutput, error) {
	var out CropsOutput
	if err := in.Validate(); err != nil {
		return out, err
	}
	prompt, err := render(cropsPrompt, in)
	if err != nil {
		return out, err
	}
	if err := c.complete(ctx, "suggest_crops", textMessage(prompt), &out); err != nil {
		return CropsOutput{}, err
	}
	if len(out.CropSuggestions) != cropSuggestionCount {
		return CropsOutput{}, fmt.Errorf("%w: got %d crop suggestions, want %d", ErrUpstream, len(out.CropSuggestions), cropSuggestionCount)
	}
	return out, nil
}

func (c *Client) SuggestPesticides(ctx context.Context, in PesticidesInput) (PesticidesOutput, error) {
	var out PesticidesOutput
	if err := in.Validate(); err != nil {
		return out, err
	}
	prompt, err := render(pesticidesPrompt, in)
	if err != nil {
		return out, err
	}
	if err := c.complete(ctx, "suggest_pesticides", textMessage(prompt), &out); err != nil {
		return PesticidesOutput{}, err
	}
	return out, nil
}

func (c *Client) DiagnosePlantHealth(ctx context.Context, in DiagnosisInput) (PesticidesOutput, error) {
	var out PesticidesOutput
	if err := in.Validate(); err != nil {
		return out, err
	}
	prompt, err := render(diagnosisPrompt, in.description())
	if err != nil {
		return out, err
	}
	msg := message{Role: "user", Content: []contentPart{
		{Type: "text", Text: prompt},
		{Type: "image_url", ImageURL: &imageURL{URL: in.PhotoDataURI}},
	}}
	if err := c.complete(ctx, "diagnose_plant_health", msg, &out); err != nil {
		return PesticidesOutput{}, err
	}
	return out, nil
}

func (c *Client) GetCropDetails(ctx context.Context, in CropDetailsInput) (CropDetailsOutput, error) {
	var out CropDetailsOutput
	if err := in.Validate(); err != nil {
		return out, err
	}
	prompt, err := render(cropDetailsPrompt, in)
	if err != nil {
		return out, err
	}
	if err := c.complete(ctx, "crop_details", textMessage(prompt), &out); err != nil {
		return CropDetailsOutput{}, err
	}
	if out.Name == "" {
		out.Name = in.CropName
	}
	return out, nil
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

func textMessage(prompt string) message { return message{Role: "user", Content: prompt} }

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []message      `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete sends one chat turn and decodes the model's JSON answer into out.
func (c *Client) complete(ctx context.Context, flow string, user message, out any) error {
	if c.apiKey == "" {
		return ErrDisabled
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []message{{Role: "system", Content: systemPrompt}, user},
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("advisory request failed", "flow", flow, "error", err)
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		c.log.Error("advisory request rejected", "flow", flow, "status", resp.StatusCode, "message", e.Error.Message)
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, e.Error.Message)
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return fmt.Errorf("%w: parse response: %v", ErrUpstream, err)
	}
	if len(chat.Choices) == 0 {
		return fmt.Errorf("%w: no choices returned", ErrUpstream)
	}
	content := stripFence(chat.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: model answer is not the expected JSON: %v", ErrUpstream, err)
	}
	c.log.Debug("advisory request", "flow", flow, "model", c.model, "took", time.Since(start))
	return nil
}

// stripFence removes a ```json fence some models wrap around their answer.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
