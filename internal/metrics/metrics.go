// Package metrics exposes prometheus instruments for the chat pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatRequests counts chat turns by the augmentation path taken.
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatrag_chat_requests_total",
		Help: "Chat requests by augmentation path (none, tool, knowledge).",
	}, []string{"path"})

	// ChatDuration observes end-to-end chat handling time.
	ChatDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chatrag_chat_duration_seconds",
		Help:    "Chat request duration by model and streaming mode.",
		Buckets: prometheus.DefBuckets,
	}, []string{"model", "stream"})

	// ToolExecutions counts tool invocations by tool name and outcome.
	ToolExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatrag_tool_executions_total",
		Help: "Tool executions by tool name and status (success, failure).",
	}, []string{"tool", "status"})

	// KnowledgeSearches counts RAG lookups by outcome.
	KnowledgeSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatrag_knowledge_searches_total",
		Help: "Knowledge searches by status (success, empty, failure).",
	}, []string{"status"})

	// DocumentsIngested counts documents written to the knowledge base.
	DocumentsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatrag_documents_ingested_total",
		Help: "Documents ingested into the knowledge base.",
	})
)

// Status labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusEmpty   = "empty"
)
