package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avvvet/chatrag/internal/knowledge"
)

type fakeSearcher struct {
	results []knowledge.Result
	err     error
	query   string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]knowledge.Result, error) {
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewDefaultRegistry(nil, time.Second)

	_, err := r.Execute(context.Background(), "no_such_tool", nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !strings.Contains(err.Error(), "unknown tool") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestQueryDatabase(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"profile query", "show my profile please", false},
		{"user query", "what is my user record", false},
		{"unrelated query", "how tall is the eiffel tower", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := QueryDatabase(context.Background(), map[string]any{"query": tt.query})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if data["email"] != "demo@example.com" {
				t.Errorf("unexpected data: %v", data)
			}
		})
	}
}

func TestSearchKnowledge(t *testing.T) {
	searcher := &fakeSearcher{results: []knowledge.Result{{Text: "doc", Score: 0.9}}}
	fn := SearchKnowledge(searcher)

	data, err := fn(context.Background(), map[string]any{"query": "golang"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if data["count"] != 1 {
		t.Errorf("expected count 1, got %v", data["count"])
	}
	if searcher.query != "golang" {
		t.Errorf("searcher got query %q", searcher.query)
	}
}

func TestSearchKnowledgeErrors(t *testing.T) {
	fn := SearchKnowledge(&fakeSearcher{err: fmt.Errorf("qdrant down")})
	if _, err := fn(context.Background(), map[string]any{"query": "x"}); err == nil {
		t.Error("expected search failure to propagate")
	}

	fn = SearchKnowledge(nil)
	if _, err := fn(context.Background(), map[string]any{"query": "x"}); err == nil {
		t.Error("expected failure when searcher is nil")
	}

	fn = SearchKnowledge(&fakeSearcher{})
	if _, err := fn(context.Background(), map[string]any{}); err == nil {
		t.Error("expected failure for empty query")
	}
}

func TestCallAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"temperature": 31.5}`)
	}))
	defer srv.Close()

	fn := CallAPI(time.Second)
	data, err := fn(context.Background(), map[string]any{"url": srv.URL})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if data["status"] != http.StatusOK {
		t.Errorf("expected status 200, got %v", data["status"])
	}
	payload, ok := data["data"].(map[string]any)
	if !ok || payload["temperature"] != 31.5 {
		t.Errorf("unexpected payload: %v", data["data"])
	}
}

func TestCallAPINon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error": "upstream"}`)
	}))
	defer srv.Close()

	fn := CallAPI(time.Second)
	if _, err := fn(context.Background(), map[string]any{"url": srv.URL}); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestCallAPIMissingURL(t *testing.T) {
	fn := CallAPI(time.Second)
	if _, err := fn(context.Background(), map[string]any{}); err == nil {
		t.Error("expected error for missing url")
	}
}
