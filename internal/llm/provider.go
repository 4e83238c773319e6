package llm

import (
	"context"

	"github.com/dkovalov/papermine/internal/model"
)

// Provider defines the interface for language-model providers. Ask returns
// free text; AskTool forces a structured tool invocation. Both fail with an
// error on transport or service problems (the consensus loop retries) and
// may return empty output, which callers treat as a soft failure.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Ask sends a system instruction plus conversation turns and returns
	// the model's free-text answer
	Ask(ctx context.Context, req AskRequest) (string, error)

	// AskTool sends the same conversation with a tool schema the model is
	// required to invoke, returning the structured call
	AskTool(ctx context.Context, req AskRequest, tools []ToolSpec) (*ToolCall, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Message is one conversation turn.
type Message struct {
	Role    string
	Content string
}

// UserMessage builds a user turn.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AskRequest contains the input for one model call.
type AskRequest struct {
	// System is the task instruction prepended as the system turn
	System string

	// Messages are the conversation turns
	Messages []Message

	// Model overrides the configured model when non-empty
	Model string

	// MaxTokens limits the response length (0 uses the configured default)
	MaxTokens int

	// Temperature overrides the configured sampling temperature when >= 0
	Temperature float32
}

// ToolSpec describes one invocable function in provider-neutral form.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is the structured invocation returned by AskTool; Arguments is
// the raw JSON argument object.
type ToolCall struct {
	Name      string
	Arguments string
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Model:       "",
		Timeout:     120,
		MaxTokens:   4096,
		Temperature: 0.3,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:    modelConfig.Provider,
		Model:       modelConfig.Model,
		APIKey:      modelConfig.APIKey,
		BaseURL:     modelConfig.BaseURL,
		Timeout:     modelConfig.Timeout,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
	}
}
