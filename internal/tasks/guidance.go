package tasks

import (
	"context"
	"fmt"

	"github.com/dkovalov/papermine/internal/model"
	"github.com/dkovalov/papermine/internal/sample"
	"github.com/dkovalov/papermine/internal/schema"
)

// GuidanceTask synthesizes design guidance from the verified findings of the
// filtered paper subset. A single unit covers the whole subset.
type GuidanceTask struct {
	client     *Client
	key        string
	statements map[string]string // finding key -> statement text

	candidate []model.GuidanceItem
	pairs     []model.ContrastivePair
	verdicts  []model.GuidanceVerdict
}

// NewGuidanceTask builds the synthesis unit over the accepted findings.
func NewGuidanceTask(client *Client, key string, statements map[string]string) *GuidanceTask {
	return &GuidanceTask{
		client:     client,
		key:        key,
		statements: statements,
	}
}

func (t *GuidanceTask) Key() string { return t.key }

func (t *GuidanceTask) Kind() schema.TaskKind { return schema.KindGuidance }

func (t *GuidanceTask) Generate(ctx context.Context) (string, error) {
	return t.client.ask(ctx, guidanceSystem, guidancePrompt(t.statements))
}

func (t *GuidanceTask) Validate(raw string) error {
	items, err := schema.ValidateGuidance(raw, t.statements)
	if err != nil {
		return err
	}
	t.candidate = items
	return nil
}

func (t *GuidanceTask) BuildPairs() error {
	if len(t.candidate) == 0 {
		return sample.ErrNotAvailable
	}
	pairs := make([]model.ContrastivePair, 0, len(t.candidate))
	for _, item := range t.candidate {
		pair, err := sample.KeyedPairs(item.PositiveKeys, item.NegativeKeys, t.statements, item.GuidanceKey)
		if err != nil {
			return err
		}
		pairs = append(pairs, pair)
	}
	t.pairs = pairs
	return nil
}

func (t *GuidanceTask) Verify(ctx context.Context) (bool, error) {
	verdicts := make([]model.GuidanceVerdict, 0, len(t.candidate))
	for i, item := range t.candidate {
		raw, err := t.client.ask(ctx, guidanceVerifySystem, guidanceVerifyPrompt(item.Guidance, t.pairs[i]))
		if err != nil {
			return false, err
		}
		verdict, err := schema.CheckGuidanceVerdict(raw)
		if err != nil {
			return false, fmt.Errorf("verdict for %s: %w", item.GuidanceKey, err)
		}
		verdict.Guidance = item.Guidance
		verdict.GuidanceKey = item.GuidanceKey
		verdicts = append(verdicts, *verdict)
	}

	for _, verdict := range verdicts {
		if !verdict.Accepted() {
			return false, nil
		}
	}
	t.verdicts = verdicts
	return true, nil
}

func (t *GuidanceTask) Artifact() any {
	return model.GuidanceArtifact{
		Items:         t.candidate,
		ReflectResult: t.verdicts,
	}
}

func (t *GuidanceTask) NullArtifact() any {
	return model.GuidanceArtifact{
		Items:         []model.GuidanceItem{},
		ReflectResult: []model.GuidanceVerdict{},
	}
}
