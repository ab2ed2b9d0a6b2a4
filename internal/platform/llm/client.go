package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/knowledgemap-backend/internal/observability"
	"github.com/yungbote/knowledgemap-backend/internal/pkg/httpx"
	"github.com/yungbote/knowledgemap-backend/internal/platform/ctxutil"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

type Tier int

const (
	TierSmart Tier = iota
	TierFast
)

func (t Tier) String() string {
	if t == TierFast {
		return "fast"
	}
	return "smart"
}

// ErrCredentialsExhausted is returned when every configured key was rejected
// with a rate-limit or authorization status.
var ErrCredentialsExhausted = errors.New("llm credentials exhausted")

// Client is the single gateway to the completion service.
//
// Call waits for the full completion. Stream forwards deltas to onDelta as
// they arrive and returns the concatenated text; on failure it also emits a
// trailing "\n[Error: ...]" delta. A stream is not restartable: calling again
// issues a new request.
type Client interface {
	Call(ctx context.Context, system, user string, tier Tier) (string, error)
	Stream(ctx context.Context, system, user string, tier Tier, onDelta func(delta string)) (string, error)
}

type client struct {
	log        *logger.Logger
	cfg        Config
	keys       *credentialRing
	httpClient *http.Client
	tracer     trace.Tracer
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg = cfg.normalized()
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing LLM_BASE_URL")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("missing LLM_MODEL")
	}
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("missing LLM_API_KEYS")
	}
	return &client{
		log:        log.With("service", "LLMGateway"),
		cfg:        cfg,
		keys:       newCredentialRing(cfg.APIKeys),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tracer:     observability.Tracer("llm"),
	}, nil
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("llm http %d: %s", e.StatusCode, truncate(e.Body, 300))
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Stream         bool          `json:"stream"`
	EnableThinking *bool         `json:"enable_thinking,omitempty"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error json.RawMessage `json:"error,omitempty"`
}

func (c *client) modelFor(tier Tier) string {
	if tier == TierFast {
		return c.cfg.FastModel
	}
	return c.cfg.Model
}

func (c *client) Call(ctx context.Context, system, user string, tier Tier) (string, error) {
	return c.complete(ctx, system, user, tier, nil)
}

func (c *client) Stream(ctx context.Context, system, user string, tier Tier, onDelta func(delta string)) (string, error) {
	text, err := c.complete(ctx, system, user, tier, onDelta)
	if err != nil && onDelta != nil {
		onDelta("\n[Error: " + err.Error() + "]")
	}
	return text, err
}

// complete issues the request, rotating credentials on 429/401/403 at most
// once per configured key. Every other failure returns immediately.
func (c *client) complete(ctx context.Context, system, user string, tier Tier, onDelta func(string)) (string, error) {
	ctx = ctxutil.Default(ctx)
	model := c.modelFor(tier)
	ctx, span := c.tracer.Start(ctx, "llm.call", trace.WithAttributes(
		attribute.String("llm.model", model),
		attribute.String("llm.tier", tier.String()),
	))
	defer span.End()

	req := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: strings.TrimSpace(system)},
			{Role: "user", Content: user},
		},
		Stream: true,
	}
	if c.cfg.DisableThinking {
		off := false
		req.EnableThinking = &off
	}

	start := time.Now()
	inputTokens := estimateTokens(system) + estimateTokens(user)
	attempts := c.keys.size()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pos, key := c.keys.current()
		text, emitted, err := c.streamOnce(ctx, key, req, onDelta)
		if err == nil {
			c.observe(model, tier, "200", start, inputTokens, estimateTokens(text))
			span.SetAttributes(attribute.Int("llm.attempts", attempt))
			return text, nil
		}
		lastErr = err
		status := httpx.StatusOf(err)
		if emitted || !httpx.IsCredentialStatus(status) {
			c.observe(model, tier, statusLabel(err), start, inputTokens, estimateTokens(text))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return text, err
		}
		c.log.Warn("LLM credential rejected, rotating", append([]interface{}{
			"status", status,
			"attempt", attempt,
			"credentials", attempts,
			"model", model,
		}, ctxutil.LogFields(ctx)...)...)
		c.keys.advance(pos)
		observability.Current().IncCredentialRotation()
	}

	err := fmt.Errorf("%w after %d attempts: %w", ErrCredentialsExhausted, attempts, lastErr)
	c.observe(model, tier, "exhausted", start, inputTokens, 0)
	span.RecordError(err)
	span.SetStatus(codes.Error, "credentials exhausted")
	c.log.Error("LLM credentials exhausted", append([]interface{}{"model", model, "error", lastErr}, ctxutil.LogFields(ctx)...)...)
	return "", err
}

// streamOnce performs one HTTP round trip. emitted reports whether any delta
// reached onDelta, in which case the request must not be replayed.
func (c *client) streamOnce(ctx context.Context, apiKey string, body chatRequest, onDelta func(string)) (string, bool, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", false, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", &buf)
	if err != nil {
		return "", false, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return "", false, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var full strings.Builder
	emitted := false
	err = streamSSE(resp.Body, func(_ string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" {
			return nil
		}
		if data == "[DONE]" {
			return errStreamDone
		}
		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil
		}
		if len(chunk.Error) > 0 && string(chunk.Error) != "null" {
			return fmt.Errorf("llm stream error: %s", string(chunk.Error))
		}
		for _, choice := range chunk.Choices {
			d := choice.Delta.Content
			if d == "" {
				d = choice.Message.Content
			}
			if d == "" {
				continue
			}
			full.WriteString(d)
			if onDelta != nil {
				emitted = true
				onDelta(d)
			}
		}
		return nil
	})
	if err != nil {
		return full.String(), emitted, err
	}
	return full.String(), emitted, nil
}

func (c *client) observe(model string, tier Tier, status string, start time.Time, in, out int) {
	observability.Current().ObserveLLMRequest(model, tier.String(), status, time.Since(start), in, out)
}

func statusLabel(err error) string {
	if code := httpx.StatusOf(err); code != 0 {
		return strconv.Itoa(code)
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case httpx.IsRetryableError(err):
		return "timeout"
	default:
		return "error"
	}
}

func estimateTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	return int(math.Ceil(float64(len([]rune(text))) / 4.0))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
