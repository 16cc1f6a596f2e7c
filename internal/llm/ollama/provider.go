package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/shaman-chat/internal/config"
	"github.com/Rrens/shaman-chat/internal/llm"
)

// Provider implements llm.Provider for Ollama
type Provider struct {
	host         string
	defaultModel string
	client       *http.Client
}

// NewProvider creates a new Ollama provider
func NewProvider(cfg config.OllamaConfig, timeout time.Duration) llm.Provider {
	model := cfg.DefaultModel
	if model == "" {
		model = "llama3"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Provider{
		host:         strings.TrimRight(cfg.Host, "/"),
		defaultModel: model,
		client:       &http.Client{Timeout: timeout},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "ollama"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"llama3",
		"llama3.1",
		"llama3.2",
		"mistral",
		"mixtral",
		"phi3",
		"qwen2.5",
		"gemma2",
	}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has a host to talk to
func (p *Provider) IsConfigured() bool {
	return p.host != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message   chatMessage `json:"message"`
	Done      bool        `json:"done"`
	EvalCount int         `json:"eval_count"`
}

// Generate produces the assistant reply for a conversation
func (p *Provider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if model == "" {
		model = p.defaultModel
	}

	msgs := req.Messages()
	ollamaReq := ollamaRequest{
		Model:    model,
		Messages: make([]chatMessage, len(msgs)),
		Stream:   false,
		Options: map[string]any{
			"temperature": 0.7,
			"num_predict": 2048,
		},
	}
	for i, m := range msgs {
		ollamaReq.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	start := time.Now()
	ollamaResp, err := p.chat(ctx, ollamaReq)
	if err != nil {
		return nil, err
	}

	return &llm.Response{
		Text:       strings.TrimSpace(ollamaResp.Message.Content),
		Model:      model,
		TokensUsed: ollamaResp.EvalCount,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// GenerateTitle produces a short session title from the first prompt
func (p *Provider) GenerateTitle(ctx context.Context, prompt string, model string) (string, error) {
	if model == "" {
		model = p.defaultModel
	}

	ollamaResp, err := p.chat(ctx, ollamaRequest{
		Model:    model,
		Messages: []chatMessage{{Role: llm.RoleUser, Content: llm.BuildTitlePrompt(prompt)}},
		Stream:   false,
		Options: map[string]any{
			"temperature": 0.3,
			"num_predict": 32,
		},
	})
	if err != nil {
		return "", err
	}
	return llm.CleanTitle(ollamaResp.Message.Content), nil
}

func (p *Provider) chat(ctx context.Context, ollamaReq ollamaRequest) (*ollamaResponse, error) {
	body, err := json.Marshal(ollamaReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &ollamaResp, nil
}
