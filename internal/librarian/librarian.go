// Package librarian implements the recommendation protocol: retrieve
// candidate books for a reader's interests, let a tool-calling chat model
// pick exactly one, feed it the full summary through get_summary_by_title,
// and return the model's final answer together with the chosen title.
package librarian

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/54b3r/librarian-go/internal/budget"
	"github.com/54b3r/librarian-go/internal/catalog"
	"github.com/54b3r/librarian-go/internal/logging"
	"github.com/54b3r/librarian-go/internal/rag"
	"github.com/54b3r/librarian-go/internal/tools"
	"github.com/54b3r/librarian-go/internal/tracing"
)

// Sampling temperatures for the two model turns.
const (
	firstTemperature  float32 = 0.3
	secondTemperature float32 = 0.2
)

// ErrChat wraps every chat model failure.
var ErrChat = errors.New("chat model request failed")

// Retriever returns up to k ranked candidates for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]rag.Candidate, error)
}

// Config holds the dependencies required to construct a Librarian.
type Config struct {
	// ChatModel is the backend built by the provider factory. The summary
	// tool is bound to it once in New.
	ChatModel model.ToolCallingChatModel

	// Retriever supplies the ranked candidates.
	Retriever Retriever

	// Catalog backs the summary tool and the fallback lookup.
	Catalog *catalog.Catalog

	// TopK is the number of candidates offered to the model. Defaults to
	// rag.DefaultTopK.
	TopK int

	// MaxContextTokens is the prompt size above which a warning is logged.
	// Defaults to budget.DefaultMaxContextTokens.
	MaxContextTokens int

	// OmitTemperature suppresses the per-turn temperature for models that
	// reject it (OpenAI o-series).
	OmitTemperature bool

	// MetricsRegistry receives the orchestrator's metrics. May be nil.
	MetricsRegistry prometheus.Registerer
}

// Result is the outcome of one recommendation. ChosenTitle and FullSummary
// are nil when neither the tool call nor the fallback identified a title.
type Result struct {
	// Message is the model's final natural-language answer.
	Message string `json:"message"`

	// ChosenTitle is the recommended book's exact catalog title.
	ChosenTitle *string `json:"chosen_title"`

	// FullSummary is the long-form summary looked up for ChosenTitle.
	FullSummary *string `json:"full_summary"`
}

// Librarian runs recommendations. It holds no per-request state and is safe
// for concurrent use.
type Librarian struct {
	chat      model.ToolCallingChatModel
	retriever Retriever
	tools     map[string]tools.LibrarianTool
	summaries *tools.SummaryTool
	topK      int
	maxTokens int
	noTemp    bool
	metrics   *librarianMetrics
}

// New binds the summary tool to the chat model and returns a Librarian.
func New(ctx context.Context, cfg *Config) (*Librarian, error) {
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("librarian: ChatModel must not be nil")
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("librarian: Retriever must not be nil")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("librarian: Catalog must not be nil")
	}

	st := tools.NewSummaryTool(cfg.Catalog)
	registry := map[string]tools.LibrarianTool{}
	infos := make([]*schema.ToolInfo, 0, 1)
	for _, t := range []tools.LibrarianTool{st} {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("librarian: tool info %s: %w", t.Name(), err)
		}
		registry[t.Name()] = t
		infos = append(infos, info)
	}
	bound, err := cfg.ChatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("librarian: bind tools: %w", err)
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	maxTokens := cfg.MaxContextTokens
	if maxTokens <= 0 {
		maxTokens = budget.DefaultMaxContextTokens
	}

	return &Librarian{
		chat:      bound,
		retriever: cfg.Retriever,
		tools:     registry,
		summaries: st,
		topK:      topK,
		maxTokens: maxTokens,
		noTemp:    cfg.OmitTemperature,
		metrics:   newLibrarianMetrics(cfg.MetricsRegistry),
	}, nil
}

// Recommend returns one recommended book for query.
//
// The model sees the candidates and may call get_summary_by_title. If it
// does, every call is answered and a second turn produces the final text;
// the first call with valid arguments determines the chosen title. If no
// call resolved, the first candidate whose title appears in the final text
// (case-insensitive) is chosen instead.
//
// Retrieval errors and chat model errors abort the request. Malformed tool
// arguments do not: that call is answered with an error message and left
// unresolved.
func (l *Librarian) Recommend(ctx context.Context, query string) (res *Result, err error) {
	start := time.Now()
	outcome := outcomeError
	ctx, span := tracing.StartSpan(ctx, "librarian.recommend", attribute.Int("query.length", len(query)))
	defer func() {
		l.metrics.recommendTotal.WithLabelValues(outcome).Inc()
		l.metrics.recommendDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		span.SetAttributes(attribute.String("outcome", outcome))
		tracing.EndSpan(span, err)
	}()

	log := logging.FromContext(ctx)

	cands, err := l.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	conv := initialConversation(query, cands)
	first, err := l.turn(ctx, "first", conv, firstTemperature)
	if err != nil {
		return nil, err
	}

	res = &Result{Message: first.Content}
	if len(first.ToolCalls) > 0 {
		conv = conv.Append(schema.AssistantMessage(first.Content, first.ToolCalls))
		for _, call := range first.ToolCalls {
			msg, title, summary, ok := l.resolveCall(ctx, call)
			conv = conv.Append(msg)
			if ok && res.ChosenTitle == nil {
				res.ChosenTitle, res.FullSummary = &title, &summary
			}
		}

		second, err := l.turn(ctx, "second", conv, secondTemperature)
		if err != nil {
			return nil, err
		}
		res.Message = second.Content
	}

	switch {
	case res.ChosenTitle != nil:
		outcome = outcomeTool
	case l.inferTitle(res, cands):
		outcome = outcomeInferred
	default:
		outcome = outcomeUnresolved
	}

	log.Info("librarian: recommendation complete",
		slog.String("outcome", outcome),
		slog.Int("candidates", len(cands)),
		slog.Int("tool_calls", len(first.ToolCalls)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// retrieve fetches the top-k candidates inside a span.
func (l *Librarian) retrieve(ctx context.Context, query string) (cands []rag.Candidate, err error) {
	ctx, span := tracing.StartSpan(ctx, "librarian.retrieve", attribute.Int("k", l.topK))
	defer func() { tracing.EndSpan(span, err) }()

	cands, err = l.retriever.Retrieve(ctx, query, l.topK)
	if err != nil {
		return nil, fmt.Errorf("librarian: retrieve: %w", err)
	}
	span.SetAttributes(attribute.Int("candidates", len(cands)))
	return cands, nil
}

// turn sends conv to the model at temperature with tool use left to the
// model's discretion.
func (l *Librarian) turn(ctx context.Context, name string, conv Conversation, temperature float32) (msg *schema.Message, err error) {
	ctx, span := tracing.StartSpan(ctx, "librarian.turn."+name)
	defer func() { tracing.EndSpan(span, err) }()

	msgs := conv.Messages()
	tokens := budget.EstimateMessages(msgs)
	l.metrics.promptTokens.WithLabelValues(name).Observe(float64(tokens))
	log := logging.FromContext(ctx)
	log.Debug("librarian: sending turn",
		slog.String("turn", name),
		slog.Int("messages", len(msgs)),
		slog.Int("estimated_tokens", tokens),
	)
	if tokens > l.maxTokens {
		log.Warn("budget: prompt exceeds context budget",
			slog.String("turn", name),
			slog.Int("estimated_tokens", tokens),
			slog.Int("max_tokens", l.maxTokens),
		)
	}

	opts := []model.Option{model.WithToolChoice(schema.ToolChoiceAllowed)}
	if !l.noTemp {
		opts = append(opts, model.WithTemperature(temperature))
	}
	msg, err = l.chat.Generate(ctx, msgs, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s turn: %w", ErrChat, name, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: %s turn: empty response", ErrChat, name)
	}
	span.SetAttributes(attribute.Int("tool_calls", len(msg.ToolCalls)))
	return msg, nil
}

// resolveCall dispatches one tool call by name. ok is true when the call
// resolved to a catalog title; title and summary are then set. The returned
// tool message is always appended so every call id gets a reply.
func (l *Librarian) resolveCall(ctx context.Context, call schema.ToolCall) (msg *schema.Message, title, summary string, ok bool) {
	log := logging.FromContext(ctx)
	name := call.Function.Name

	t, known := l.tools[name]
	if !known {
		l.metrics.toolCallsTotal.WithLabelValues(name, toolUnknown).Inc()
		log.Warn("librarian: model requested unknown tool", slog.String("tool", name), slog.String("call_id", call.ID))
		return schema.ToolMessage(fmt.Sprintf("Unknown tool %q.", name), call.ID, schema.WithToolName(name)), "", "", false
	}

	res, err := t.Resolve(ctx, call.Function.Arguments)
	if err != nil {
		l.metrics.toolCallsTotal.WithLabelValues(name, toolInvalidArgs).Inc()
		log.Warn("librarian: invalid tool arguments",
			slog.String("tool", name),
			slog.String("call_id", call.ID),
			slog.String("arguments", call.Function.Arguments),
			slog.Any("error", err),
		)
		content := "Invalid arguments: a non-empty string 'title' is required."
		return schema.ToolMessage(content, call.ID, schema.WithToolName(name)), "", "", false
	}

	l.metrics.toolCallsTotal.WithLabelValues(name, toolResolved).Inc()
	log.Debug("librarian: tool call resolved", slog.String("call_id", call.ID), slog.String("title", res.Title))
	msg = schema.ToolMessage(res.Content, call.ID, schema.WithToolName(name))
	return msg, res.Title, res.Content, res.Title != ""
}

// inferTitle sets res.ChosenTitle to the first candidate, in rank order,
// whose title occurs in res.Message ignoring case. Reports whether one was
// found.
func (l *Librarian) inferTitle(res *Result, cands []rag.Candidate) bool {
	text := strings.ToLower(res.Message)
	for _, c := range cands {
		title := c.Title()
		if title == "" || !strings.Contains(text, strings.ToLower(title)) {
			continue
		}
		summary := l.summaries.Lookup(title)
		res.ChosenTitle, res.FullSummary = &title, &summary
		return true
	}
	return false
}
