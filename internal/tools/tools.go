// Package tools implements the capability set the chat pipeline can invoke:
// a demo database lookup, an explicit knowledge-base search, and a generic
// HTTP call. Execution failure is an error return, never a panic, and never
// aborts the chat turn that requested it.
package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/avvvet/chatrag/internal/knowledge"
)

// Func executes one tool. A nil error means success and data holds the
// JSON-serializable result.
type Func func(ctx context.Context, args map[string]any) (map[string]any, error)

// Executor runs registered tools by name.
type Executor interface {
	Execute(ctx context.Context, name string, args map[string]any) (map[string]any, error)
}

// Registry stores tools by unique name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{
		tools: map[string]Func{},
	}
}

// Register adds a tool under name, replacing any previous registration.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = fn
}

// Execute implements Executor.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	r.mu.RLock()
	fn, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return fn(ctx, args)
}

// NewDefaultRegistry builds the registry with the three built-in tools.
// searcher may be nil, in which case search_knowledge always fails.
func NewDefaultRegistry(searcher knowledge.Searcher, httpTimeout time.Duration) *Registry {
	r := NewRegistry()
	r.Register("query_database", QueryDatabase)
	r.Register("search_knowledge", SearchKnowledge(searcher))
	r.Register("call_api", CallAPI(httpTimeout))
	return r
}

// QueryDatabase is a demo stub: profile-ish queries return a fixed user
// record, anything else fails. A real deployment would back this with an
// actual database.
func QueryDatabase(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	query = strings.ToLower(query)

	if strings.Contains(query, "profile") || strings.Contains(query, "user") || strings.Contains(query, "me") {
		return map[string]any{
			"sub":        "demo-user-123",
			"email":      "demo@example.com",
			"name":       "Demo User",
			"created_at": time.Now().UTC().Format(time.RFC3339),
			"message":    "Retrieved user profile successfully",
		}, nil
	}
	return nil, fmt.Errorf("could not understand query")
}

// SearchKnowledge returns a tool that performs an explicit knowledge-base
// search (as opposed to the implicit RAG path) and reports results with
// their relevance scores.
func SearchKnowledge(searcher knowledge.Searcher) Func {
	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		if searcher == nil {
			return nil, fmt.Errorf("knowledge search is not configured")
		}

		query, _ := args["query"].(string)
		if strings.TrimSpace(query) == "" {
			return nil, fmt.Errorf("query is required")
		}

		limit := 3
		if n, ok := args["limit"].(int); ok && n > 0 {
			limit = n
		}

		results, err := searcher.Search(ctx, query, limit)
		if err != nil {
			return nil, fmt.Errorf("knowledge search failed: %w", err)
		}

		return map[string]any{
			"results": results,
			"count":   len(results),
			"message": fmt.Sprintf("Found %d results for: %s", len(results), query),
		}, nil
	}
}
