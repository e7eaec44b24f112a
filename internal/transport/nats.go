package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/avvvet/chatrag/internal/config"
	"github.com/avvvet/chatrag/internal/handlers"
	"github.com/avvvet/chatrag/internal/models"
)

// NATSTransport serves non-streaming chat over NATS request/reply, for
// callers inside the cluster that do not speak HTTP.
type NATSTransport struct {
	conn    *nats.Conn
	config  *config.Config
	handler *handlers.ChatHandler
}

func NewNATSTransport(cfg *config.Config, handler *handlers.ChatHandler) (*NATSTransport, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // Infinite reconnects
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Printf("Connected to NATS server: %s", cfg.NatsURL)

	return &NATSTransport{
		conn:    conn,
		config:  cfg,
		handler: handler,
	}, nil
}

func (nt *NATSTransport) Start() error {
	_, err := nt.conn.Subscribe(nt.config.NatsChatSubject, nt.handleChatRequest)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.config.NatsChatSubject, err)
	}

	log.Printf("Subscribed to subject: %s", nt.config.NatsChatSubject)
	return nil
}

func (nt *NATSTransport) handleChatRequest(msg *nats.Msg) {
	var request models.NATSChatRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Printf("Error parsing chat request: %v", err)
		nt.sendErrorResponse(msg, &request, models.ErrorParseError, "Invalid request format")
		return
	}

	log.Printf("Processing chat request for user: %s", request.UserID)

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.OpenRouterTimeout)
	defer cancel()

	response, err := nt.handler.Chat(ctx, request.UserID, request.Messages, request.Model)
	if err != nil {
		log.Printf("Error processing chat: %v", err)
		code := models.ErrorLLMFailed
		if errors.Is(err, handlers.ErrNotConfigured) {
			code = models.ErrorNotConfigured
		}
		nt.sendErrorResponse(msg, &request, code, err.Error())
		return
	}

	if err := nt.sendResponse(msg, &models.NATSChatResponse{
		UserID:  request.UserID,
		Message: response.Message,
		Usage:   response.Usage,
	}); err != nil {
		log.Printf("Error sending response: %v", err)
	}
}

func (nt *NATSTransport) sendResponse(msg *nats.Msg, response *models.NATSChatResponse) error {
	responseData, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err := msg.Respond(responseData); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Printf("Response sent for user: %s", response.UserID)
	return nil
}

func (nt *NATSTransport) sendErrorResponse(msg *nats.Msg, request *models.NATSChatRequest, errorCode, errorMessage string) {
	response := &models.NATSChatResponse{
		UserID: request.UserID,
		Message: models.ChatMessage{
			Role:    "assistant",
			Content: "I'm sorry, I encountered an error processing your request. Please try again.",
		},
		ErrorCode:    &errorCode,
		ErrorMessage: &errorMessage,
	}

	if err := nt.sendResponse(msg, response); err != nil {
		log.Printf("Failed to send error response: %v", err)
	}
}

func (nt *NATSTransport) Close() error {
	if nt.conn != nil {
		nt.conn.Close()
		log.Println("NATS connection closed")
	}
	return nil
}
