package llm

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/avvvet/chatrag/internal/memory"
	"github.com/avvvet/chatrag/internal/models"
)

func TestToContentRoleMapping(t *testing.T) {
	content := toContent([]models.ChatMessage{
		{Role: memory.RoleSystem, Content: "rules"},
		{Role: memory.RoleUser, Content: "question"},
		{Role: memory.RoleAssistant, Content: "answer"},
		{Role: "something-else", Content: "fallback"},
	})

	wantRoles := []llms.ChatMessageType{
		llms.ChatMessageTypeSystem,
		llms.ChatMessageTypeHuman,
		llms.ChatMessageTypeAI,
		llms.ChatMessageTypeHuman,
	}
	if len(content) != len(wantRoles) {
		t.Fatalf("got %d messages, want %d", len(content), len(wantRoles))
	}
	for i, want := range wantRoles {
		if content[i].Role != want {
			t.Errorf("content[%d].Role = %v, want %v", i, content[i].Role, want)
		}
	}
}

func TestUsageFromInfo(t *testing.T) {
	usage := usageFromInfo(map[string]any{
		"PromptTokens":     10,
		"CompletionTokens": float64(5),
		"TotalTokens":      int64(15),
	})
	if usage == nil {
		t.Fatal("expected usage")
	}
	if usage.PromptTokens != 10 || usage.CompletionTokens != 5 || usage.TotalTokens != 15 {
		t.Errorf("usage = %+v", usage)
	}

	if got := usageFromInfo(nil); got != nil {
		t.Errorf("nil info should yield nil usage, got %+v", got)
	}
	if got := usageFromInfo(map[string]any{"ReasoningTokens": 3}); got != nil {
		t.Errorf("all-zero usage should yield nil, got %+v", got)
	}
}

func TestCompletionFromResponse(t *testing.T) {
	resp := &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "hello"}}}
	c, err := completionFromResponse(resp, "")
	if err != nil {
		t.Fatalf("completionFromResponse: %v", err)
	}
	if c.Content != "hello" {
		t.Errorf("content = %q", c.Content)
	}

	// Streamed responses may leave Choice.Content empty.
	resp = &llms.ContentResponse{Choices: []*llms.ContentChoice{{}}}
	c, err = completionFromResponse(resp, "streamed text")
	if err != nil {
		t.Fatalf("completionFromResponse: %v", err)
	}
	if c.Content != "streamed text" {
		t.Errorf("content = %q", c.Content)
	}

	if _, err := completionFromResponse(&llms.ContentResponse{}, ""); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestAttributionTransport(t *testing.T) {
	var gotReferer, gotTitle string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
	}))
	defer srv.Close()

	client := &http.Client{Transport: &attributionTransport{
		base:    http.DefaultTransport,
		referer: "http://localhost:3001",
		title:   "chatrag",
	}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if gotReferer != "http://localhost:3001" || gotTitle != "chatrag" {
		t.Errorf("attribution headers not set: referer=%q title=%q", gotReferer, gotTitle)
	}
}
