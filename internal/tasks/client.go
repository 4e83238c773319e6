// Package tasks holds the model-facing task instantiations that run through
// the consensus engine: per-paper metric extraction, taxonomy induction,
// per-paper categorization, in-depth claim analysis, guidance synthesis, and
// guidance-support attribution, plus the topic-relevance screen.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/dkovalov/papermine/internal/llm"
	"github.com/dkovalov/papermine/internal/model"
)

// maxContentBytes caps how much paper content goes into a single prompt.
// Oversized papers are clipped rather than rejected.
const maxContentBytes = 60000

// Client wraps a provider with the run's model parameters.
type Client struct {
	provider llm.Provider
	cfg      model.LLMConfig
}

// NewClient builds a task client.
func NewClient(provider llm.Provider, cfg model.LLMConfig) *Client {
	return &Client{provider: provider, cfg: cfg}
}

func (c *Client) ask(ctx context.Context, system, user string) (string, error) {
	return c.provider.Ask(ctx, llm.AskRequest{
		System:      system,
		Messages:    []llm.Message{llm.UserMessage(clampContent(user))},
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
}

func (c *Client) askTool(ctx context.Context, system, user string, tools []llm.ToolSpec) (*llm.ToolCall, error) {
	return c.provider.AskTool(ctx, llm.AskRequest{
		System:      system,
		Messages:    []llm.Message{llm.UserMessage(clampContent(user))},
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}, tools)
}

// clampContent truncates user content to the per-call byte budget. A cut
// landing inside a multibyte rune backs up to the rune's start so the clipped
// string stays valid UTF-8.
func clampContent(s string) string {
	if len(s) <= maxContentBytes {
		return s
	}
	cut := maxContentBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// mustJSON renders v for prompt embedding; the inputs are our own validated
// structures so a marshal failure is a programming error.
func mustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
