package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/portfolio-backend/internal/config"
	"github.com/tbourn/portfolio-backend/internal/observability"
)

var (
	// ErrUnavailable means no generator is configured.
	ErrUnavailable = errors.New("text generation is not configured")
	// ErrUpstream means the backend failed or answered with an error.
	ErrUpstream = errors.New("text generation backend failed")
	// ErrEmptyResponse means the backend answered without any text, usually
	// because the request was blocked by its safety filters.
	ErrEmptyResponse = errors.New("text generation returned no content")
)

// maxResponseBytes caps how much of a backend response is read.
const maxResponseBytes = 4 << 20

// Result is one generated completion.
type Result struct {
	Content string
	Model   string
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Result, error)
}

// GeminiClient calls the Gemini generateContent REST method.
type GeminiClient struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
	maxTries uint
	backOff  func() backoff.BackOff
}

// NewGemini returns a client for cfg. It returns ErrUnavailable when no API
// key is configured.
func NewGemini(cfg config.LLMConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrUnavailable
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiClient{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		http:     &http.Client{Timeout: timeout},
		maxTries: 3,
		backOff:  func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	ModelVersion string `json:"modelVersion"`
}

// Generate sends prompt as a single user turn. Rate-limit and server errors
// are retried with exponential backoff; other client errors are not.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (*Result, error) {
	tr := otel.Tracer("llm/GeminiClient")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("llm.model", g.model),
			attribute.Int("llm.prompt_bytes", len(prompt)),
		),
	)
	defer span.End()

	var req geminiRequest
	req.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}
	req.GenerationConfig.Temperature = 0.4
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	res, err := backoff.Retry(ctx, func() (*geminiResponse, error) {
		return g.call(ctx, body)
	},
		backoff.WithBackOff(g.backOff()),
		backoff.WithMaxTries(g.maxTries),
	)
	if err != nil {
		observability.Fail(span, err, "generate failed")
		if errors.Is(err, ErrUpstream) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var text strings.Builder
	for _, c := range res.Candidates {
		for _, p := range c.Content.Parts {
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		if res.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("%w: blocked (%s)", ErrEmptyResponse, res.PromptFeedback.BlockReason)
		}
		return nil, ErrEmptyResponse
	}

	model := res.ModelVersion
	if model == "" {
		model = g.model
	}
	return &Result{Content: strings.TrimSpace(text.String()), Model: model}, nil
}

func (g *GeminiClient) call(ctx context.Context, body []byte) (*geminiResponse, error) {
	u := g.endpoint + "/models/" + url.PathEscape(g.model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		upErr := fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 && secs <= 30 {
			return nil, backoff.RetryAfter(secs)
		}
		return nil, upErr
	case resp.StatusCode >= 400:
		return nil, backoff.Permanent(fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, snippet(raw)))
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: decode: %v", ErrUpstream, err))
	}
	return &out, nil
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		s = s[:max]
	}
	return s
}
