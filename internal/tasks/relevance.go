package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkovalov/papermine/internal/llm"
	"github.com/dkovalov/papermine/internal/model"
)

// relevanceRetries bounds the screen's own retry loop; the screen does not
// go through the consensus engine because there is no candidate to verify,
// only a forced yes/no tool call.
const relevanceRetries = 3

var relevanceTool = llm.ToolSpec{
	Name:        "report_relevance",
	Description: "Report whether the paper is about the target research topic.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_relevant": map[string]any{
				"type":        "boolean",
				"description": "true when the paper's subject matches the target topic",
			},
		},
		"required": []string{"is_relevant"},
	},
}

// ScreenRelevance asks the model, through a required tool call, whether the
// paper belongs to the target topic. Soft failures (no tool call, bad
// arguments) are retried a few times; persistent failure screens the paper
// out rather than aborting the run.
func ScreenRelevance(ctx context.Context, client *Client, topic, paper string) (model.RelevanceArtifact, error) {
	var lastErr error
	for attempt := 0; attempt < relevanceRetries; attempt++ {
		call, err := client.askTool(ctx, relevanceSystem, relevancePrompt(topic, paper), []llm.ToolSpec{relevanceTool})
		if err != nil {
			lastErr = err
			continue
		}
		if call == nil {
			lastErr = fmt.Errorf("model answered without a tool call")
			continue
		}

		var args struct {
			IsRelevant *bool `json:"is_relevant"`
		}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || args.IsRelevant == nil {
			lastErr = fmt.Errorf("bad tool arguments %q", call.Arguments)
			continue
		}
		return model.RelevanceArtifact{IsRelevant: *args.IsRelevant}, nil
	}
	return model.RelevanceArtifact{}, fmt.Errorf("relevance screen failed: %w", lastErr)
}
