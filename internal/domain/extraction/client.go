package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

var (
	ErrNotConfigured = errors.New("OPENAI_API_KEY not configured")
	ErrUpstream      = errors.New("extraction provider failed")
)

// Extractor reads a photographed intake form and returns the answers as a
// loose JSON object.
type Extractor interface {
	Extract(ctx context.Context, imageDataURL string) (map[string]any, error)
}

type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// Retries applies to transport errors, 429 and 5xx answers.
	Retries int
}

// OpenAIClient calls the chat completions endpoint with the image attached
// and a system prompt describing the nested Portuguese document.
type OpenAIClient struct {
	http   *resty.Client
	apiKey string
	model  string
	logger zerolog.Logger
}

func NewOpenAIClient(cfg ClientConfig, logger zerolog.Logger) *OpenAIClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil || r == nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &OpenAIClient{
		http:   client,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		logger: logger.With().Str("component", "extraction").Logger(),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
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

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const userPrompt = "Extraia os dados do documento nesta imagem e preencha o objeto no formato especificado."

func (c *OpenAIClient) Extract(ctx context.Context, imageDataURL string) (map[string]any, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: userPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: imageDataURL}},
			}},
		},
		Temperature: 0.1,
	}

	start := time.Now()
	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		c.logger.Error().
			Int("status", resp.StatusCode()).
			Dur("latency", time.Since(start)).
			Str("body", truncate(resp.String(), 512)).
			Msg("extraction provider returned an error")
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}

	var text string
	if len(out.Choices) > 0 {
		text = out.Choices[0].Message.Content
	}
	data := parseAnswer(text)
	c.logger.Info().
		Dur("latency", time.Since(start)).
		Int("fields", len(data)).
		Msg("extraction completed")
	return data, nil
}

var (
	objectSuffix = regexp.MustCompile(`\{[\s\S]*\}$`)
	codeFence    = regexp.MustCompile("^```[a-zA-Z]*\\s*|\\s*```$")
)

// parseAnswer reads the model's reply as a JSON object. Otherwise it retries
// on the text from the first { through a } that ends the reply, so prose may
// precede the object but must not contain braces. Anything else yields an
// empty object.
func parseAnswer(text string) map[string]any {
	text = strings.TrimSpace(codeFence.ReplaceAllString(strings.TrimSpace(text), ""))
	if text == "" {
		return map[string]any{}
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err == nil && data != nil {
		return data
	}
	if m := objectSuffix.FindString(text); m != "" {
		data = nil
		if err := json.Unmarshal([]byte(m), &data); err == nil && data != nil {
			return data
		}
	}
	return map[string]any{}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
