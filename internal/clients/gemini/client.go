// Package gemini provides a rotating client for the Google Gemini API
package gemini

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/bobmcallan/sift/internal/common"
	"github.com/bobmcallan/sift/internal/interfaces"
)

const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 8192
)

// Client implements the InferenceClient interface over a model/credential
// matrix. Each call starts at the next round-robin offsets; rate-limited
// combinations go on cooldown and the call moves to the next one.
type Client struct {
	models      []string
	keys        []string
	temperature float64
	maxTokens   int
	logger      *common.Logger

	rot *rotation

	clientsMu sync.Mutex
	clients   map[string]*genai.Client

	// generate performs one attempt against one model/credential pair;
	// swapped out in tests.
	generate func(ctx context.Context, model, key, system, prompt string) (string, error)
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(temperature float64) ClientOption {
	return func(c *Client) {
		c.temperature = temperature
	}
}

// WithMaxTokens sets the output token cap
func WithMaxTokens(maxTokens int) ClientOption {
	return func(c *Client) {
		c.maxTokens = maxTokens
	}
}

// NewClient creates a rotating Gemini client. The underlying API clients
// are created lazily, one per credential, on first use.
func NewClient(keys, models []string, opts ...ClientOption) (*Client, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("gemini: no API keys configured")
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("gemini: no models configured")
	}

	c := &Client{
		models:      models,
		keys:        keys,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		logger:      common.NewSilentLogger(),
		rot:         newRotation(),
		clients:     make(map[string]*genai.Client),
	}
	c.generate = c.generateContent

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Close releases the client. The underlying API clients hold no
// connections that need closing.
func (c *Client) Close() error {
	return nil
}

// Generate produces text for the prompt, rotating through the
// model/credential matrix. Rate-limited combinations are put on cooldown
// and skipped; other errors abandon the current model and move to the
// next. ErrExhausted is returned once nothing remains to try.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	mStart := c.rot.nextModel(len(c.models))
	kStart := c.rot.nextKey(len(c.keys))

	var lastErr error
	for i := 0; i < len(c.models); i++ {
		model := c.models[(mStart+i)%len(c.models)]

		for j := 0; j < len(c.keys); j++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}

			key := c.keys[(kStart+j)%len(c.keys)]
			cb := combo{model: model, credential: key}
			if c.rot.onCooldown(cb) {
				continue
			}

			c.logger.Debug().Str("model", model).Msg("Generating content")

			text, err := c.generate(ctx, model, key, system, prompt)
			if err == nil {
				return text, nil
			}

			if delay, ok := asRateLimit(err); ok {
				c.rot.setCooldown(cb, delay)
				c.logger.Warn().Str("model", model).Dur("cooldown", delay).Msg("Rate limited, rotating credentials")
				continue
			}

			// Non-rate-limit failure: this model is likely broken for
			// every credential, move on.
			lastErr = err
			break
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to generate content: %w", lastErr)
	}
	return "", ErrExhausted
}

// generateContent performs one real API attempt.
func (c *Client) generateContent(ctx context.Context, model, key, system, prompt string) (string, error) {
	gc, err := c.clientFor(ctx, key)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if c.temperature > 0 {
		config.Temperature = genai.Ptr(float32(c.temperature))
	}
	if c.maxTokens > 0 {
		config.MaxOutputTokens = int32(c.maxTokens)
	}

	result, err := gc.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}

	return extractTextFromResponse(result)
}

func (c *Client) clientFor(ctx context.Context, key string) (*genai.Client, error) {
	c.clientsMu.Lock()
	defer c.clientsMu.Unlock()

	if gc, ok := c.clients[key]; ok {
		return gc, nil
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.clients[key] = gc
	return gc, nil
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// Ensure Client implements InferenceClient
var _ interfaces.InferenceClient = (*Client)(nil)
