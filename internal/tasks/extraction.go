package tasks

import (
	"context"
	"fmt"
	"sort"

	"github.com/dkovalov/papermine/internal/corpus"
	"github.com/dkovalov/papermine/internal/model"
	"github.com/dkovalov/papermine/internal/sample"
	"github.com/dkovalov/papermine/internal/schema"
)

// ExtractionTask finds, per metric family, the sentence reporting one
// paper's best performance and the better direction. One unit per paper.
type ExtractionTask struct {
	client    *Client
	key       string
	metrics   []string
	paper     string
	sentences corpus.Corpus

	candidate *model.PaperExtraction
	pairs     map[string]model.ContrastivePair
	verdicts  map[string]model.ExtractionVerdict
}

// NewExtractionTask builds the unit for one paper. The paper argument is the
// rendered sentence listing shown to the model.
func NewExtractionTask(client *Client, key string, metrics []string, paper string, sentences corpus.Corpus) *ExtractionTask {
	return &ExtractionTask{
		client:    client,
		key:       key,
		metrics:   metrics,
		paper:     paper,
		sentences: sentences,
	}
}

func (t *ExtractionTask) Key() string { return t.key }

func (t *ExtractionTask) Kind() schema.TaskKind { return schema.KindExtraction }

func (t *ExtractionTask) Generate(ctx context.Context) (string, error) {
	return t.client.ask(ctx, extractionSystem, extractionPrompt(t.metrics, t.paper))
}

func (t *ExtractionTask) Validate(raw string) error {
	candidate, err := schema.ValidateExtraction(raw, t.metrics, t.sentences)
	if err != nil {
		return err
	}
	t.candidate = candidate
	return nil
}

func (t *ExtractionTask) BuildPairs() error {
	pairs, err := sample.ExtractionPairs(t.candidate, t.sentences)
	if err != nil {
		return err
	}
	t.pairs = pairs
	return nil
}

// Verify judges each metric family's pair independently; the unit is
// accepted only when every family's verdict picks group A.
func (t *ExtractionTask) Verify(ctx context.Context) (bool, error) {
	metrics := make([]string, 0, len(t.pairs))
	for metric := range t.pairs {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)

	verdicts := make(map[string]model.ExtractionVerdict, len(metrics))
	for _, metric := range metrics {
		raw, err := t.client.ask(ctx, extractionVerifySystem, extractionVerifyPrompt(metric, t.pairs[metric]))
		if err != nil {
			return false, err
		}
		verdict, err := schema.CheckExtractionVerdict(raw)
		if err != nil {
			return false, fmt.Errorf("verdict for %s: %w", metric, err)
		}
		verdicts[metric] = *verdict
	}

	for _, verdict := range verdicts {
		if !verdict.Accepted() {
			return false, nil
		}
	}
	t.verdicts = verdicts
	return true, nil
}

func (t *ExtractionTask) Artifact() any {
	return model.PaperExtractionArtifact{
		ExtractedInfo: t.candidate,
		ReflectResult: t.verdicts,
	}
}

func (t *ExtractionTask) NullArtifact() any {
	return model.PaperExtractionArtifact{}
}
