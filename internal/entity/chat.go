package entity

import "time"

// Message roles understood by every provider adapter.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the provider-ready unit passed to the dispatcher.
type ChatRequest struct {
	Provider    string    `json:"provider"`
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Context     string    `json:"context,omitempty"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	SkipCache   bool      `json:"-"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is what an adapter extracts from a successful upstream payload.
type Completion struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// DispatchOutcome describes how a dispatch was served so callers can log it.
type DispatchOutcome struct {
	DispatchID   string        `json:"dispatch_id"`
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	Stage        DispatchStage `json:"stage"`
	Attempts     int           `json:"attempts"`
	CacheHit     bool          `json:"cache_hit"`
	FallbackUsed bool          `json:"fallback_used"`
	Duration     time.Duration `json:"duration"`
}

// ChatResponse is the result of a successful dispatch.
type ChatResponse struct {
	ID        string          `json:"id"`
	Text      string          `json:"text"`
	Usage     Usage           `json:"usage"`
	Outcome   DispatchOutcome `json:"outcome"`
	CreatedAt time.Time       `json:"created_at"`
}

// ChatReply pairs a dispatcher answer with the passages that grounded it.
type ChatReply struct {
	ChatResponse
	Sources []RetrievalResult `json:"sources"`
}

type ResultFormat string

const (
	FormatJSON     ResultFormat = "json"
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatJSON, FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

// ChatTurn is one user message handled by the chat orchestrator.
type ChatTurn struct {
	Message     string   `json:"message"`
	Provider    string   `json:"provider"`
	Model       string   `json:"model,omitempty"`
	Persona     string   `json:"persona,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	SkipCache   bool     `json:"skip_cache,omitempty"`
}
