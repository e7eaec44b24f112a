package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/avvvet/chatrag/internal/assembler"
	"github.com/avvvet/chatrag/internal/llm"
	"github.com/avvvet/chatrag/internal/memory"
	"github.com/avvvet/chatrag/internal/metrics"
	"github.com/avvvet/chatrag/internal/models"
)

// ErrNotConfigured is returned when the completion provider credential is
// missing; every chat request fails with it until the key is set.
var ErrNotConfigured = errors.New("completion provider is not configured")

// userIDHeader carries the authenticated subject. Token verification happens
// upstream; this service only consumes the resulting identity.
const userIDHeader = "X-User-ID"

// ChatHandler serves the chat endpoints.
type ChatHandler struct {
	store        memory.Store
	assembler    *assembler.Assembler
	provider     llm.Provider // nil until OPENROUTER_API_KEY is configured
	defaultModel string
}

func NewChatHandler(store memory.Store, asm *assembler.Assembler, provider llm.Provider, defaultModel string) *ChatHandler {
	return &ChatHandler{
		store:        store,
		assembler:    asm,
		provider:     provider,
		defaultModel: defaultModel,
	}
}

// HandleChat serves POST /api/chat with optional SSE streaming.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "Messages array is required", "")
		return
	}
	if h.provider == nil {
		writeError(w, http.StatusInternalServerError, "OpenRouter API key not configured", "")
		return
	}

	userID := userID(r)
	model := req.Model
	if model == "" {
		model = h.defaultModel
	}
	stream := true
	if req.Stream != nil {
		stream = *req.Stream
	}

	msgs, desc, err := h.assembler.Assemble(r.Context(), userID, req.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	metrics.ChatRequests.WithLabelValues(string(desc.Path)).Inc()
	log.Printf("💬 User %s: %d assembled messages, path=%s", userID, len(msgs), desc.Path)

	if stream {
		h.streamChat(w, r, userID, msgs, model)
	} else {
		h.completeChat(w, r, userID, msgs, model)
	}
	metrics.ChatDuration.WithLabelValues(model, strconv.FormatBool(stream)).Observe(time.Since(start).Seconds())
}

// streamChat proxies the completion as Server-Sent Events and persists the
// exchanged turns only once the stream has fully completed.
func (h *ChatHandler) streamChat(w http.ResponseWriter, r *http.Request, userID string, msgs []models.ChatMessage, model string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	completion, err := h.provider.Stream(r.Context(), msgs, model, func(chunk string) error {
		payload, err := json.Marshal(models.StreamChunk{Content: chunk})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		log.Printf("⚠️ OpenRouter API error: %v", err)
		payload, _ := json.Marshal(models.ErrorResponse{Error: "AI API error", Details: err.Error()})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()

	h.persistExchange(r.Context(), userID, msgs, completion.Content)
}

// completeChat performs a non-streaming completion.
func (h *ChatHandler) completeChat(w http.ResponseWriter, r *http.Request, userID string, msgs []models.ChatMessage, model string) {
	completion, err := h.provider.Complete(r.Context(), msgs, model)
	if err != nil {
		log.Printf("⚠️ OpenRouter API error: %v", err)
		writeError(w, http.StatusBadGateway, "AI API error", err.Error())
		return
	}

	h.persistExchange(r.Context(), userID, msgs, completion.Content)

	writeJSON(w, http.StatusOK, models.ChatResponse{
		Model: model,
		Message: models.ChatMessage{
			Role:    memory.RoleAssistant,
			Content: completion.Content,
		},
		Usage: completion.Usage,
	})
}

// Chat runs one non-streaming chat turn end to end. The NATS transport uses
// it directly, bypassing the HTTP layer.
func (h *ChatHandler) Chat(ctx context.Context, userID string, incoming []models.ChatMessage, model string) (*models.ChatResponse, error) {
	if len(incoming) == 0 {
		return nil, errors.New("messages array is required")
	}
	if h.provider == nil {
		return nil, ErrNotConfigured
	}
	if userID == "" {
		userID = "anonymous"
	}
	if model == "" {
		model = h.defaultModel
	}

	msgs, desc, err := h.assembler.Assemble(ctx, userID, incoming)
	if err != nil {
		return nil, err
	}
	metrics.ChatRequests.WithLabelValues(string(desc.Path)).Inc()

	completion, err := h.provider.Complete(ctx, msgs, model)
	if err != nil {
		return nil, err
	}

	h.persistExchange(ctx, userID, msgs, completion.Content)

	return &models.ChatResponse{
		Model: model,
		Message: models.ChatMessage{
			Role:    memory.RoleAssistant,
			Content: completion.Content,
		},
		Usage: completion.Usage,
	}, nil
}

// persistExchange appends the user anchor turn and the assistant reply to
// the session, after the completion finished.
func (h *ChatHandler) persistExchange(ctx context.Context, userID string, msgs []models.ChatMessage, assistant string) {
	if anchor, ok := lastUserContent(msgs); ok {
		if err := h.store.Append(ctx, userID, memory.RoleUser, anchor); err != nil {
			log.Printf("⚠️ Failed to persist user turn for %s: %v", userID, err)
		}
	}
	if assistant != "" {
		if err := h.store.Append(ctx, userID, memory.RoleAssistant, assistant); err != nil {
			log.Printf("⚠️ Failed to persist assistant turn for %s: %v", userID, err)
		}
	}
}

func lastUserContent(msgs []models.ChatMessage) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == memory.RoleUser {
			return msgs[i].Content, true
		}
	}
	return "", false
}

func userID(r *http.Request) string {
	if id := r.Header.Get(userIDHeader); id != "" {
		return id
	}
	return "anonymous"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️ Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg, Details: details})
}
