package llm_test

import (
	"context"
	"testing"

	"github.com/Rrens/shaman-chat/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name       string
	configured bool
}

func (s stubProvider) Name() string              { return s.name }
func (s stubProvider) AvailableModels() []string { return []string{"m1"} }
func (s stubProvider) DefaultModel() string      { return "m1" }
func (s stubProvider) IsConfigured() bool        { return s.configured }
func (s stubProvider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	return &llm.Response{Text: "ok", Model: model}, nil
}
func (s stubProvider) GenerateTitle(ctx context.Context, prompt string, model string) (string, error) {
	return "title", nil
}

func TestRouter_GetProvider(t *testing.T) {
	r := llm.NewRouter("ollama")
	r.RegisterProvider(stubProvider{name: "ollama", configured: true})
	r.RegisterProvider(stubProvider{name: "gemini", configured: false})

	p, err := r.GetProvider("")
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	_, err = r.GetProvider("gemini")
	assert.ErrorContains(t, err, "not configured")

	_, err = r.GetProvider("openai")
	assert.ErrorContains(t, err, "not found")
}

func TestRouter_GetProvidersInfo(t *testing.T) {
	r := llm.NewRouter("ollama")
	r.RegisterProvider(stubProvider{name: "ollama", configured: true})
	r.RegisterProvider(stubProvider{name: "gemini", configured: false})

	infos := r.GetProvidersInfo()
	require.Len(t, infos, 2)
	assert.Equal(t, "gemini", infos[0].Name)
	assert.False(t, infos[0].Default)
	assert.Equal(t, "ollama", infos[1].Name)
	assert.True(t, infos[1].Default)
	assert.True(t, infos[1].Configured)
}
