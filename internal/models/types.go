package models

// ChatMessage is one role-tagged message as it travels over the wire.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant" or "system"
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat and of NATS chat requests.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Model    string        `json:"model,omitempty"`
	Stream   *bool         `json:"stream,omitempty"` // defaults to true over HTTP
}

// ChatResponse is the non-streaming completion returned to the caller.
type ChatResponse struct {
	Model   string      `json:"model"`
	Message ChatMessage `json:"message"`
	Usage   *Usage      `json:"usage,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamChunk is the payload of one SSE frame: data: {"content":"..."}
type StreamChunk struct {
	Content string `json:"content"`
}

// Document is one unit of knowledge-base ingestion.
type Document struct {
	ID       string         `json:"id,omitempty"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IngestRequest is the body of POST /api/ingest.
type IngestRequest struct {
	Documents []Document `json:"documents"`
}

// IngestResponse reports how many documents were ingested.
type IngestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// HistoryResponse is the body of GET /api/chat/history.
type HistoryResponse struct {
	UserID   string        `json:"user_id"`
	Messages []ChatMessage `json:"messages"`
}

// SessionsResponse is the body of GET /api/sessions.
type SessionsResponse struct {
	ActiveSessions int `json:"active_sessions"`
}

// ErrorResponse is the body of any non-2xx HTTP response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NATSChatRequest carries the user identity inline because request/reply
// has no transport headers to put it in.
type NATSChatRequest struct {
	UserID   string        `json:"user_id"`
	Messages []ChatMessage `json:"messages"`
	Model    string        `json:"model,omitempty"`
}

type NATSChatResponse struct {
	UserID       string      `json:"user_id"`
	Message      ChatMessage `json:"message"`
	Usage        *Usage      `json:"usage,omitempty"`
	ErrorCode    *string     `json:"error_code,omitempty"`
	ErrorMessage *string     `json:"error_message,omitempty"`
}

// Error codes
const (
	ErrorParseError    = "PARSE_ERROR"
	ErrorLLMFailed     = "LLM_API_FAILED"
	ErrorNotConfigured = "NOT_CONFIGURED"
)
