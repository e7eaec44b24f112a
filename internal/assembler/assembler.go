// Package assembler decides, for each chat turn, what the completion
// provider actually sees: the merged history plus at most one synthetic
// system turn carrying a tool result or knowledge-base context.
package assembler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/avvvet/chatrag/internal/knowledge"
	"github.com/avvvet/chatrag/internal/memory"
	"github.com/avvvet/chatrag/internal/metrics"
	"github.com/avvvet/chatrag/internal/models"
	"github.com/avvvet/chatrag/internal/tools"
)

// Path identifies which augmentation was actually applied to a turn.
type Path string

const (
	PathNone      Path = "none"
	PathTool      Path = "tool"
	PathKnowledge Path = "knowledge"
)

// Descriptor reports the side path of one assembled turn, for telemetry.
type Descriptor struct {
	Path    Path
	Tool    string // set when a tool was attempted, even if it failed
	Results int    // knowledge results injected
}

const (
	defaultHistoryLimit = 10
	defaultTopK         = 3
)

const knowledgePreamble = "You are a helpful AI assistant with access to a knowledge base. " +
	"Use the following relevant information to help answer the user's question. " +
	"If the information is not relevant, you can provide a general response."

// Assembler builds the final message list for the completion provider.
type Assembler struct {
	store    memory.Store
	executor tools.Executor
	searcher knowledge.Searcher // nil disables the knowledge path

	historyLimit int
	topK         int
}

// New creates an Assembler. searcher may be nil, in which case the
// knowledge path silently degrades to plain chat.
func New(store memory.Store, executor tools.Executor, searcher knowledge.Searcher) *Assembler {
	return &Assembler{
		store:        store,
		executor:     executor,
		searcher:     searcher,
		historyLimit: defaultHistoryLimit,
		topK:         defaultTopK,
	}
}

// Assemble merges the incoming turns with the stored history, runs at most
// one side path for the last user turn, and returns the ordered message
// list to send to the completion provider.
//
// Callers may resend the turn they sent last; when the first incoming turn
// equals the last stored turn in both role and content it is dropped before
// merging. Tool and knowledge failures degrade to no augmentation and never
// fail the request.
func (a *Assembler) Assemble(ctx context.Context, userID string, incoming []models.ChatMessage) ([]models.ChatMessage, Descriptor, error) {
	if len(incoming) == 0 {
		return nil, Descriptor{Path: PathNone}, fmt.Errorf("incoming messages must not be empty")
	}

	history, err := a.store.History(ctx, userID, a.historyLimit)
	if err != nil {
		// The store is best-effort context, not a ledger; degrade to the
		// incoming turns alone.
		log.Printf("⚠️ Failed to load history for %s: %v", userID, err)
		history = nil
	}

	merged := make([]models.ChatMessage, 0, len(history)+len(incoming))
	for _, t := range history {
		merged = append(merged, models.ChatMessage{Role: t.Role, Content: t.Content})
	}

	// Idempotent-resend guard.
	if len(history) > 0 {
		last := history[len(history)-1]
		if last.Role == incoming[0].Role && last.Content == incoming[0].Content {
			incoming = incoming[1:]
		}
	}
	merged = append(merged, incoming...)

	anchor, ok := lastUserMessage(merged)
	if !ok {
		return merged, Descriptor{Path: PathNone}, nil
	}

	action := Classify(anchor)
	switch action.Kind {
	case ActionTool:
		return a.runTool(ctx, merged, action)
	case ActionKnowledge:
		return a.runKnowledge(ctx, merged, action.Query)
	default:
		return merged, Descriptor{Path: PathNone}, nil
	}
}

func (a *Assembler) runTool(ctx context.Context, merged []models.ChatMessage, action Action) ([]models.ChatMessage, Descriptor, error) {
	log.Printf("🔧 Executing tool: %s", action.Tool)

	data, err := a.executor.Execute(ctx, action.Tool, action.Args)
	if err != nil {
		// At most one side path runs per turn, so a failed tool call means
		// no augmentation at all, not a knowledge fallback.
		log.Printf("⚠️ Tool %s failed, continuing without augmentation: %v", action.Tool, err)
		metrics.ToolExecutions.WithLabelValues(action.Tool, metrics.StatusFailure).Inc()
		return merged, Descriptor{Path: PathNone, Tool: action.Tool}, nil
	}
	metrics.ToolExecutions.WithLabelValues(action.Tool, metrics.StatusSuccess).Inc()

	sys := models.ChatMessage{Role: memory.RoleSystem, Content: formatToolContext(data)}
	out := append([]models.ChatMessage{sys}, merged...)
	return out, Descriptor{Path: PathTool, Tool: action.Tool}, nil
}

func (a *Assembler) runKnowledge(ctx context.Context, merged []models.ChatMessage, query string) ([]models.ChatMessage, Descriptor, error) {
	if a.searcher == nil {
		return merged, Descriptor{Path: PathNone}, nil
	}

	results, err := a.searcher.Search(ctx, query, a.topK)
	if err != nil {
		log.Printf("⚠️ Knowledge search failed, continuing without context: %v", err)
		metrics.KnowledgeSearches.WithLabelValues(metrics.StatusFailure).Inc()
		return merged, Descriptor{Path: PathNone}, nil
	}
	if len(results) == 0 {
		metrics.KnowledgeSearches.WithLabelValues(metrics.StatusEmpty).Inc()
		return merged, Descriptor{Path: PathNone}, nil
	}
	metrics.KnowledgeSearches.WithLabelValues(metrics.StatusSuccess).Inc()
	log.Printf("📚 RAG: Found %d relevant documents", len(results))

	sys := models.ChatMessage{Role: memory.RoleSystem, Content: formatKnowledgeContext(results)}
	out := append([]models.ChatMessage{sys}, merged...)
	return out, Descriptor{Path: PathKnowledge, Results: len(results)}, nil
}

// lastUserMessage returns the content of the last user-role message.
func lastUserMessage(messages []models.ChatMessage) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == memory.RoleUser {
			return messages[i].Content, true
		}
	}
	return "", false
}

func formatToolContext(data map[string]any) string {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		encoded = []byte(fmt.Sprintf("%v", data))
	}
	return fmt.Sprintf("Tool executed successfully. Result:\n%s\n\nUse this information to answer the user's question.", encoded)
}

func formatKnowledgeContext(results []knowledge.Result) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("[Knowledge %d] (relevance: %.2f)\n%s", i+1, r.Score, r.Text))
	}
	return knowledgePreamble + "\n\n" + strings.Join(parts, "\n\n")
}
