package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/avvvet/chatrag/internal/memory"
	"github.com/avvvet/chatrag/internal/models"
)

// OpenRouterProvider implements Provider against OpenRouter's
// OpenAI-compatible completion API.
type OpenRouterProvider struct {
	llm          *openai.LLM
	defaultModel string
}

// Options configures an OpenRouterProvider.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Referer and Title are forwarded as OpenRouter's attribution headers
	// on every request.
	Referer string
	Title   string

	// EmbeddingModel selects the model used when the provider's client is
	// reused for embeddings.
	EmbeddingModel string
}

// NewOpenRouterProvider creates a provider for OpenRouter (or any
// OpenAI-compatible endpoint).
func NewOpenRouterProvider(opts Options) (*OpenRouterProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	client, err := openai.New(
		openai.WithToken(opts.APIKey),
		openai.WithBaseURL(opts.BaseURL),
		openai.WithModel(opts.Model),
		openai.WithEmbeddingModel(opts.EmbeddingModel),
		openai.WithHTTPClient(&http.Client{
			Timeout: opts.Timeout,
			Transport: &attributionTransport{
				base:    http.DefaultTransport,
				referer: opts.Referer,
				title:   opts.Title,
			},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openrouter client: %w", err)
	}

	return &OpenRouterProvider{
		llm:          client,
		defaultModel: opts.Model,
	}, nil
}

// Client exposes the underlying OpenAI-compatible client so the knowledge
// layer can reuse it for embeddings.
func (p *OpenRouterProvider) Client() *openai.LLM {
	return p.llm
}

// Complete implements Provider.
func (p *OpenRouterProvider) Complete(ctx context.Context, messages []models.ChatMessage, model string) (*Completion, error) {
	resp, err := p.llm.GenerateContent(ctx, toContent(messages), llms.WithModel(p.model(model)))
	if err != nil {
		return nil, fmt.Errorf("openrouter request failed: %w", err)
	}
	return completionFromResponse(resp, "")
}

// Stream implements Provider.
func (p *OpenRouterProvider) Stream(ctx context.Context, messages []models.ChatMessage, model string, onDelta func(chunk string) error) (*Completion, error) {
	var full strings.Builder

	resp, err := p.llm.GenerateContent(ctx, toContent(messages),
		llms.WithModel(p.model(model)),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			full.Write(chunk)
			return onDelta(string(chunk))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("openrouter request failed: %w", err)
	}
	return completionFromResponse(resp, full.String())
}

func (p *OpenRouterProvider) model(model string) string {
	if model == "" {
		return p.defaultModel
	}
	return model
}

func toContent(messages []models.ChatMessage) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var role llms.ChatMessageType
		switch m.Role {
		case memory.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case memory.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}

func completionFromResponse(resp *llms.ContentResponse, streamed string) (*Completion, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openrouter returned no choices")
	}

	choice := resp.Choices[0]
	content := choice.Content
	if content == "" {
		content = streamed
	}

	return &Completion{
		Content: content,
		Usage:   usageFromInfo(choice.GenerationInfo),
	}, nil
}

func usageFromInfo(info map[string]any) *models.Usage {
	if info == nil {
		return nil
	}

	usage := &models.Usage{
		PromptTokens:     intFromInfo(info, "PromptTokens"),
		CompletionTokens: intFromInfo(info, "CompletionTokens"),
		TotalTokens:      intFromInfo(info, "TotalTokens"),
	}
	if usage.PromptTokens == 0 && usage.CompletionTokens == 0 && usage.TotalTokens == 0 {
		return nil
	}
	return usage
}

func intFromInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// attributionTransport injects OpenRouter's attribution headers.
type attributionTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(req)
}

// Compile-time check that OpenRouterProvider implements Provider.
var _ Provider = (*OpenRouterProvider)(nil)
