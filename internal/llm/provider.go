package llm

import "context"

// Chat roles understood by every provider
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn passed to a provider
type Message struct {
	Role    string
	Content string
}

// Request contains chat generation parameters
type Request struct {
	System  string
	History []Message
	Prompt  string
}

// Messages flattens the request into system, history and prompt turns
func (r Request) Messages() []Message {
	msgs := make([]Message, 0, len(r.History)+2)
	if r.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: r.System})
	}
	msgs = append(msgs, r.History...)
	msgs = append(msgs, Message{Role: RoleUser, Content: r.Prompt})
	return msgs
}

// Response contains LLM generation result
type Response struct {
	Text       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Generate produces the assistant reply for a conversation
	Generate(ctx context.Context, req Request, model string) (*Response, error)

	// GenerateTitle produces a short session title from the first prompt
	GenerateTitle(ctx context.Context, prompt string, model string) (string, error)
}
