package inference

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is the public Gemini API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-flash-latest"

	// DefaultTimeout bounds a single generateContent call.
	DefaultTimeout = 120 * time.Second

	apiKeyHeader = "x-goog-api-key"
)

// Request is a single model invocation.
type Request struct {
	// SystemInstruction steers the model's behavior.
	SystemInstruction string

	// UserContent is the user turn, i.e. the page text and the ask.
	UserContent string
}

// Generator produces model text for a request.
// An empty string with a nil error means the model answered with nothing.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// wire types of the generateContent endpoint.
type (
	part struct {
		Text string `json:"text"`
	}

	content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}

	generateRequest struct {
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
		Contents          []content `json:"contents"`
	}

	generateResponse struct {
		Candidates []struct {
			Content      content `json:"content"`
			FinishReason string  `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}

	errorEnvelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
)

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	client *resty.Client
	model  string
	logger *slog.Logger
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*geminiConfig)

type geminiConfig struct {
	baseURL string
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// WithBaseURL overrides the API endpoint. Tests point it at httptest servers.
func WithBaseURL(baseURL string) GeminiOption {
	return func(c *geminiConfig) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithModel selects the model name.
func WithModel(model string) GeminiOption {
	return func(c *geminiConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithRequestTimeout bounds a single call.
func WithRequestTimeout(d time.Duration) GeminiOption {
	return func(c *geminiConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClientLogger sets the logger of the client.
func WithClientLogger(logger *slog.Logger) GeminiOption {
	return func(c *geminiConfig) {
		c.logger = logger
	}
}

// NewGeminiClient creates a client authenticated with apiKey.
func NewGeminiClient(apiKey string, opts ...GeminiOption) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := geminiConfig{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.baseURL, "/")).
		SetTimeout(cfg.timeout).
		SetHeader(apiKeyHeader, apiKey).
		SetHeader("Content-Type", "application/json")

	return &GeminiClient{
		client: client,
		model:  cfg.model,
		logger: cfg.logger,
	}, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate implements Generator.
// Non-2xx answers become *APIError so that StatusCode can classify them.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	body := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: req.UserContent}},
		}},
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemInstruction}}}
	}

	var (
		result  generateResponse
		failure errorEnvelope
	)
	res, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Post("/v1beta/models/" + url.PathEscape(c.model) + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("generateContent request: %w", err)
	}

	if res.IsError() {
		apiErr := &APIError{
			Code:    failure.Error.Code,
			Status:  failure.Error.Status,
			Message: failure.Error.Message,
		}
		if apiErr.Code == 0 {
			apiErr.Code = res.StatusCode()
		}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(res.String())
		}
		return "", apiErr
	}

	if result.PromptFeedback.BlockReason != "" {
		c.logger.Warn("prompt blocked by model",
			slog.String("model", c.model),
			slog.String("reason", result.PromptFeedback.BlockReason),
		)
	}

	return result.text(), nil
}

// text concatenates the text parts of the first candidate.
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
