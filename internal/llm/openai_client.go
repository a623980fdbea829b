package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	openai "github.com/sashabaranov/go-openai"
	"github.com/webcraft-studio/chatbot-platform/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var llmTracer = otel.Tracer("webcraft.internal.llm")

var (
	completionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webcraft",
			Subsystem: "llm",
			Name:      "completion_duration_seconds",
			Help:      "OpenAI completion latency by mode",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
	completionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webcraft",
			Subsystem: "llm",
			Name:      "completion_errors_total",
			Help:      "Failed OpenAI completions by mode",
		},
		[]string{"mode"},
	)
)

func init() {
	prometheus.MustRegister(completionLatency, completionErrors)
}

// chatClient is the slice of the OpenAI SDK the client depends on.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

// deltaStream is the receive side of a chat completion stream.
type deltaStream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// Options tune the completion requests.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// OpenAIClient implements Client on the OpenAI chat completions API.
type OpenAIClient struct {
	client chatClient
	opts   Options
	logger *logging.Logger
}

// NewOpenAIClient wraps an OpenAI SDK client.
func NewOpenAIClient(client *openai.Client, opts Options, logger *logging.Logger) *OpenAIClient {
	if client == nil {
		panic("llm: openai client cannot be nil")
	}
	return newOpenAIClient(client, opts, logger)
}

func newOpenAIClient(client chatClient, opts Options, logger *logging.Logger) *OpenAIClient {
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OpenAIClient{client: client, opts: opts, logger: logger}
}

// GenerateResponse runs a blocking completion and returns the trimmed text.
func (c *OpenAIClient) GenerateResponse(ctx context.Context, messages []ChatMessage) (string, error) {
	ctx, span := llmTracer.Start(ctx, "llm.complete")
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(callCtx, c.buildRequest(messages, false))
	completionLatency.WithLabelValues("blocking").Observe(time.Since(start).Seconds())
	if err != nil {
		completionErrors.WithLabelValues("blocking").Inc()
		span.RecordError(err)
		return "", fmt.Errorf("llm: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := errors.New("llm: completion returned no choices")
		completionErrors.WithLabelValues("blocking").Inc()
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.Int("webcraft.llm.completion_tokens", resp.Usage.CompletionTokens))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateStreamingResponse relays tokens to onChunk as they arrive. Every
// callback carries the full accumulated text so far; the last carries
// Finished=true with the final text.
func (c *OpenAIClient) GenerateStreamingResponse(ctx context.Context, messages []ChatMessage, onChunk ChunkHandler) (string, error) {
	ctx, span := llmTracer.Start(ctx, "llm.stream")
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	start := time.Now()
	stream, err := c.client.CreateChatCompletionStream(callCtx, c.buildRequest(messages, true))
	if err != nil {
		completionErrors.WithLabelValues("streaming").Inc()
		span.RecordError(err)
		err = fmt.Errorf("llm: open stream failed: %w", err)
		emitErrorChunk(onChunk, err)
		return "", err
	}

	full, err := relayStream(stream, onChunk)
	completionLatency.WithLabelValues("streaming").Observe(time.Since(start).Seconds())
	if err != nil {
		completionErrors.WithLabelValues("streaming").Inc()
		span.RecordError(err)
		return "", err
	}
	return full, nil
}

// relayStream drains the delta stream, invoking onChunk with the cumulative
// text after every delta and once more with Finished set. A receive failure
// still delivers a terminal chunk, empty content with Error set, before the
// error is returned.
func relayStream(stream deltaStream, onChunk ChunkHandler) (string, error) {
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			err = fmt.Errorf("llm: stream receive failed: %w", err)
			emitErrorChunk(onChunk, err)
			return "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onChunk != nil {
			onChunk(StreamChunk{Content: full.String()})
		}
	}

	text := strings.TrimSpace(full.String())
	if onChunk != nil {
		onChunk(StreamChunk{Content: text, Finished: true})
	}
	return text, nil
}

// emitErrorChunk delivers the terminal error chunk so stream consumers always
// see exactly one Finished event.
func emitErrorChunk(onChunk ChunkHandler, err error) {
	if onChunk == nil {
		return
	}
	onChunk(StreamChunk{Finished: true, Error: err.Error()})
}

func (c *OpenAIClient) buildRequest(messages []ChatMessage, stream bool) openai.ChatCompletionRequest {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		converted = append(converted, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:            c.opts.Model,
		Messages:         converted,
		MaxTokens:        c.opts.MaxTokens,
		Temperature:      c.opts.Temperature,
		PresencePenalty:  0.6,
		FrequencyPenalty: 0.3,
		Stop:             []string{"\n\n\n"},
		Stream:           stream,
	}
}
