package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkghttp "SmartSignal/pkg/http"
)

// DefaultURL is the OpenRouter chat-completions endpoint.
const DefaultURL = "https://openrouter.ai/api/v1/chat/completions"

// ErrEmptyCompletion is returned when the model answered without text.
var ErrEmptyCompletion = errors.New("empty completion")

// OpenRouterConfig configures the chat-completions client.
type OpenRouterConfig struct {
	URL         string
	APIKey      string
	Model       string
	Title       string
	Referer     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Retries     int
}

// OpenRouter is a minimal chat-completions client.
type OpenRouter struct {
	cfg    OpenRouterConfig
	client *pkghttp.Client
}

// NewOpenRouter builds a client; extra options go to the HTTP client.
func NewOpenRouter(cfg OpenRouterConfig, opts ...pkghttp.ClientOption) *OpenRouter {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	base := []pkghttp.ClientOption{
		pkghttp.WithTimeout(cfg.Timeout),
		pkghttp.WithRetries(cfg.Retries, 500*time.Millisecond),
	}
	return &OpenRouter{cfg: cfg, client: pkghttp.NewClient(append(base, opts...)...)}
}

// Enabled reports whether an API key is configured.
func (o *OpenRouter) Enabled() bool { return o != nil && o.cfg.APIKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a single user prompt and returns the trimmed answer.
func (o *OpenRouter) Complete(ctx context.Context, prompt string) (string, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + o.cfg.APIKey,
		"Content-Type":  "application/json",
	}
	if o.cfg.Title != "" {
		headers["X-Title"] = o.cfg.Title
	}
	if o.cfg.Referer != "" {
		headers["HTTP-Referer"] = o.cfg.Referer
	}

	var resp chatResponse
	err := o.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodPost,
		URL:     o.cfg.URL,
		Headers: headers,
		Body: chatRequest{
			Model:       o.cfg.Model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			MaxTokens:   o.cfg.MaxTokens,
			Temperature: o.cfg.Temperature,
		},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("openrouter: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
