package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/drbn-app/drbn-backend/internal/config"
)

var (
	// ErrRateLimited maps an upstream 429.
	ErrRateLimited = errors.New("ai gateway rate limited")
	// ErrQuotaExhausted maps an upstream 402.
	ErrQuotaExhausted = errors.New("ai gateway quota exhausted")
	// ErrEmptyResponse means the gateway answered but carried no content.
	ErrEmptyResponse = errors.New("empty response from ai model")
	// ErrInvalidFormat means the model output could not be parsed as JSON.
	// The raw text is logged server-side and never surfaced to callers.
	ErrInvalidFormat = errors.New("invalid ai response format")
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content interface{} `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client talks to an OpenAI-compatible chat-completions gateway.
// Exactly one model call per request; no retries, no streaming, no caching.
type Client struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiURL:     cfg.AIGatewayURL,
		apiKey:     cfg.AIAPIKey,
		model:      cfg.AIModel,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) GeneratePlan(ctx context.Context, req PlanRequest) (*Plan, error) {
	system, user := buildPlanPrompts(req)

	var userContent interface{} = user
	if !req.Photos.Empty() {
		parts := []contentPart{{Type: "text", Text: user}}
		for _, url := range []string{req.Photos.Front, req.Photos.Left, req.Photos.Right} {
			if url != "" {
				parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: url}})
			}
		}
		userContent = parts
	}

	content, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: userContent},
	})
	if err != nil {
		return nil, err
	}

	var plan Plan
	clean, err := decodeObject(content, &plan)
	if err != nil {
		slog.Error("unparseable plan response", "action", "generate_plan", "raw", content)
		return nil, ErrInvalidFormat
	}
	plan.Raw = json.RawMessage(clean)
	return &plan, nil
}

func (c *Client) QuickAnalysis(ctx context.Context, req QuickRequest) (map[string]interface{}, error) {
	system, user := buildQuickPrompts(req)

	var userContent interface{} = user
	if req.PhotoData != "" {
		userContent = []contentPart{
			{Type: "text", Text: user},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL(req.PhotoData)}},
		}
	}

	content, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: userContent},
	})
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if _, err := decodeObject(content, &result); err != nil {
		slog.Error("unparseable analysis response", "action", "quick_analysis", "raw", content)
		return nil, ErrInvalidFormat
	}
	return result, nil
}

func (c *Client) AnalyzePhoto(ctx context.Context, req PhotoRequest) (string, error) {
	prompt := buildPhotoPrompt(req)

	content, err := c.complete(ctx, []chatMessage{
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL(req.ImageBase64)}},
		}},
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	payload, err := json.Marshal(chatRequest{Model: c.model, Messages: messages, Temperature: 0.7})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return "", ErrQuotaExhausted
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("ai gateway error: status %d", resp.StatusCode)
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", ErrInvalidFormat
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	var content string
	switch v := completion.Choices[0].Message.Content.(type) {
	case string:
		content = v
	case nil:
		return "", ErrEmptyResponse
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", ErrInvalidFormat
		}
		content = string(b)
	}

	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// dataURL wraps raw base64 as a jpeg data-URL; inputs that already are
// data-URLs pass through unchanged.
func dataURL(s string) string {
	if len(s) > 5 && s[:5] == "data:" {
		return s
	}
	return "data:image/jpeg;base64," + s
}
