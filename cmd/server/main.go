package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/avvvet/chatrag/internal/assembler"
	"github.com/avvvet/chatrag/internal/config"
	"github.com/avvvet/chatrag/internal/handlers"
	"github.com/avvvet/chatrag/internal/knowledge"
	"github.com/avvvet/chatrag/internal/llm"
	"github.com/avvvet/chatrag/internal/memory"
	"github.com/avvvet/chatrag/internal/tools"
	"github.com/avvvet/chatrag/internal/transport"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("🚀 Starting ChatRAG service...")

	cfg := config.Load()
	log.Printf("📋 Service: %s", cfg.ServiceName)
	log.Printf("🤖 OpenRouter Model: %s", cfg.OpenRouterModel)

	// Session store
	var store memory.Store
	switch cfg.SessionStore {
	case "redis":
		log.Println("🔌 Connecting to Redis...")
		redisStore, err := memory.NewRedisStore(cfg.RedisURL, cfg.SessionMaxAge, cfg.SessionMaxTurns)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		log.Println("✅ Redis connected")
		store = redisStore
	default:
		store = memory.NewInMemoryStore(cfg.SessionMaxTurns)
		log.Println("🧠 Using in-memory session store")
	}
	defer store.Close()

	// Idle session sweeper; the Redis store expires keys by TTL instead.
	var sweeper *memory.Sweeper
	if cfg.SessionStore != "redis" {
		sweeper = memory.NewSweeper(store, cfg.SessionSweepInterval, cfg.SessionMaxAge)
		sweeper.Start()
		defer sweeper.Stop()
	}

	// Completion provider. A missing key keeps the service up; chat requests
	// fail individually until it is configured.
	var provider llm.Provider
	var openRouter *llm.OpenRouterProvider
	if cfg.OpenRouterAPIKey == "" {
		log.Println("⚠️ OPENROUTER_API_KEY not set, chat requests will fail")
	} else {
		p, err := llm.NewOpenRouterProvider(llm.Options{
			APIKey:         cfg.OpenRouterAPIKey,
			BaseURL:        cfg.OpenRouterBaseURL,
			Model:          cfg.OpenRouterModel,
			Timeout:        cfg.OpenRouterTimeout,
			Referer:        cfg.FrontendURL,
			Title:          cfg.ServiceName,
			EmbeddingModel: cfg.EmbeddingModel,
		})
		if err != nil {
			log.Fatalf("❌ Failed to initialize OpenRouter provider: %v", err)
		}
		openRouter = p
		provider = p
		log.Println("✅ OpenRouter provider initialized")
	}

	// Knowledge base. Embeddings reuse the OpenRouter client, so both the
	// provider and Qdrant must be configured.
	var kb *knowledge.Store
	if openRouter != nil && cfg.QdrantURL != "" {
		embedder, err := embeddings.NewEmbedder(openRouter.Client())
		if err != nil {
			log.Fatalf("❌ Failed to create embedder: %v", err)
		}
		kb, err = knowledge.New(knowledge.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Dim:        cfg.EmbeddingDim,
		}, embedder)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Qdrant: %v", err)
		}
		defer kb.Close()
		log.Printf("✅ Qdrant connected, collection: %s", cfg.QdrantCollection)
	} else {
		log.Println("⚠️ Knowledge base disabled (requires OpenRouter key and Qdrant URL)")
	}

	// A nil *Store must not become a non-nil Searcher interface value.
	var searcher knowledge.Searcher
	var ingester handlers.Ingester
	if kb != nil {
		searcher = kb
		ingester = kb
	}

	registry := tools.NewDefaultRegistry(searcher, cfg.OpenRouterTimeout)
	asm := assembler.New(store, registry, searcher)

	chatHandler := handlers.NewChatHandler(store, asm, provider, cfg.OpenRouterModel)
	ingestHandler := handlers.NewIngestHandler(ingester)

	// Optional NATS transport for in-cluster callers.
	if cfg.NatsURL != "" {
		log.Println("📡 Connecting to NATS...")
		natsTransport, err := transport.NewNATSTransport(cfg, chatHandler)
		if err != nil {
			log.Fatalf("❌ Failed to initialize NATS transport: %v", err)
		}
		defer natsTransport.Close()

		if err := natsTransport.Start(); err != nil {
			log.Fatalf("❌ Failed to start NATS transport: %v", err)
		}
		log.Printf("👂 Listening on subject: %s", cfg.NatsChatSubject)
	}

	httpTransport := transport.NewHTTPTransport(cfg, chatHandler, ingestHandler)
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- httpTransport.Start()
	}()

	log.Println("✅ ChatRAG service is running!")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("🛑 Received signal: %v", sig)
	case err := <-httpErr:
		if err != nil {
			log.Printf("❌ HTTP server error: %v", err)
		}
	}

	log.Println("🔄 Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpTransport.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Error shutting down HTTP server: %v", err)
	}

	log.Println("👋 ChatRAG service stopped")
}
