package assembler

import (
	"regexp"
	"strings"
)

// ActionKind tags the side path an incoming message selects.
type ActionKind int

const (
	// ActionNone selects no side path at all.
	ActionNone ActionKind = iota

	// ActionTool runs one tool and injects its result.
	ActionTool

	// ActionKnowledge runs a knowledge-base similarity search.
	ActionKnowledge
)

// Action is the classified side path for one anchor message.
type Action struct {
	Kind  ActionKind
	Tool  string         // tool name when Kind == ActionTool
	Args  map[string]any // tool arguments when Kind == ActionTool
	Query string         // search query when Kind == ActionKnowledge
}

// Open-Meteo current weather for Hanoi (21.0285, 105.8542).
const hanoiWeatherURL = "https://api.open-meteo.com/v1/forecast?latitude=21.0285&longitude=105.8542&current_weather=true&timezone=Asia/Ho_Chi_Minh"

var searchKnowledgePrefix = regexp.MustCompile(`(?i)search knowledge (for|about)?`)

// Classify maps a user message onto at most one side path. Predicates are
// evaluated in order against the lower-cased text; the first match wins:
// profile/email/user lookups hit the database tool, explicit knowledge
// requests hit the knowledge tool, weather questions hit the external API
// tool, and everything else falls back to the implicit knowledge search.
// "news" is treated like any other text: there is no API wired for it.
func Classify(text string) Action {
	query := strings.ToLower(text)

	switch {
	case strings.Contains(query, "my profile") ||
		strings.Contains(query, "my email") ||
		strings.Contains(query, "my user"):
		return Action{
			Kind: ActionTool,
			Tool: "query_database",
			Args: map[string]any{"query": text},
		}

	case strings.Contains(query, "search knowledge") ||
		strings.Contains(query, "find in knowledge"):
		return Action{
			Kind: ActionTool,
			Tool: "search_knowledge",
			Args: map[string]any{"query": stripSearchPrefix(text)},
		}

	case strings.Contains(query, "weather"):
		return Action{
			Kind: ActionTool,
			Tool: "call_api",
			Args: map[string]any{"url": hanoiWeatherURL, "method": "GET"},
		}

	default:
		return Action{Kind: ActionKnowledge, Query: text}
	}
}

// stripSearchPrefix removes the first "search knowledge (for|about)" phrase
// so the tool receives only the subject of the search.
func stripSearchPrefix(text string) string {
	loc := searchKnowledgePrefix.FindStringIndex(text)
	if loc == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
}
