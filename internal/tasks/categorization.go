package tasks

import (
	"context"

	"github.com/dkovalov/papermine/internal/model"
	"github.com/dkovalov/papermine/internal/sample"
	"github.com/dkovalov/papermine/internal/schema"
)

// CategorizationTask assigns one paper's accepted best-performance statement
// to an induced category and reads out the numeric value. One unit per
// (paper, metric family).
type CategorizationTask struct {
	client     *Client
	key        string
	info       model.ValidMetricInfo
	categories map[string]model.MetricCategory

	candidate *model.CategoryAnalysis
	pair      model.ContrastivePair
	verdict   *model.CategoryVerdict
}

// NewCategorizationTask builds the unit; key is the paper stem.
func NewCategorizationTask(client *Client, key string, info model.ValidMetricInfo, categories map[string]model.MetricCategory) *CategorizationTask {
	return &CategorizationTask{
		client:     client,
		key:        key,
		info:       info,
		categories: categories,
	}
}

func (t *CategorizationTask) Key() string { return t.key }

func (t *CategorizationTask) Kind() schema.TaskKind { return schema.KindCategorization }

func (t *CategorizationTask) Generate(ctx context.Context) (string, error) {
	return t.client.ask(ctx, categorizeSystem, categorizePrompt(t.info, t.categories))
}

func (t *CategorizationTask) Validate(raw string) error {
	candidate, err := schema.ValidateCategorization(raw, t.categories)
	if err != nil {
		return err
	}
	t.candidate = candidate
	return nil
}

func (t *CategorizationTask) BuildPairs() error {
	pair, err := sample.CategorizationPair(t.candidate, t.info)
	if err != nil {
		return err
	}
	t.pair = pair
	return nil
}

func (t *CategorizationTask) Verify(ctx context.Context) (bool, error) {
	raw, err := t.client.ask(ctx, categorizeVerifySystem, categorizeVerifyPrompt(t.pair))
	if err != nil {
		return false, err
	}
	verdict, err := schema.CheckCategoryVerdict(raw)
	if err != nil {
		return false, err
	}
	t.verdict = verdict
	return verdict.Accepted(), nil
}

func (t *CategorizationTask) Artifact() any {
	return model.CategoryArtifact{
		MetricAnalyzeResult:        t.candidate,
		MetricAnalyzeReflectResult: t.verdict,
	}
}

func (t *CategorizationTask) NullArtifact() any {
	return model.CategoryArtifact{}
}
