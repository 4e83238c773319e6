package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a provider based on configuration.
// Returns nil if the provider is disabled (empty provider name).
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "":
		return nil, nil // disabled
	case "openai":
		return NewOpenAIProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: openai, ollama)", config.Provider)
	}
}
