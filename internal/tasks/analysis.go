package tasks

import (
	"context"
	"fmt"

	"github.com/dkovalov/papermine/internal/corpus"
	"github.com/dkovalov/papermine/internal/model"
	"github.com/dkovalov/papermine/internal/sample"
	"github.com/dkovalov/papermine/internal/schema"
)

// AnalysisTask extracts one paper's in-depth findings: mechanism and
// structure-activity claims tied to the sentences that support them. One
// unit per filtered paper.
type AnalysisTask struct {
	client    *Client
	key       string
	paper     string
	sentences corpus.Corpus

	candidate []model.AnalysisStatement
	pairs     []model.ContrastivePair
	verdicts  []model.AnalysisVerdict
}

// NewAnalysisTask builds the unit for one paper.
func NewAnalysisTask(client *Client, key string, paper string, sentences corpus.Corpus) *AnalysisTask {
	return &AnalysisTask{
		client:    client,
		key:       key,
		paper:     paper,
		sentences: sentences,
	}
}

func (t *AnalysisTask) Key() string { return t.key }

func (t *AnalysisTask) Kind() schema.TaskKind { return schema.KindAnalysis }

func (t *AnalysisTask) Generate(ctx context.Context) (string, error) {
	return t.client.ask(ctx, analysisSystem, analysisPrompt(t.paper))
}

func (t *AnalysisTask) Validate(raw string) error {
	statements, err := schema.ValidateAnalysis(raw, t.sentences)
	if err != nil {
		return err
	}
	t.candidate = statements
	return nil
}

func (t *AnalysisTask) BuildPairs() error {
	if len(t.candidate) == 0 {
		return sample.ErrNotAvailable
	}
	pairs := make([]model.ContrastivePair, 0, len(t.candidate))
	for _, statement := range t.candidate {
		pair, err := sample.KeyedPairs(statement.PositiveKeys, statement.NegativeKeys, t.sentences, statement.StatementKey)
		if err != nil {
			return err
		}
		pairs = append(pairs, pair)
	}
	t.pairs = pairs
	return nil
}

func (t *AnalysisTask) Verify(ctx context.Context) (bool, error) {
	verdicts := make([]model.AnalysisVerdict, 0, len(t.candidate))
	for i, statement := range t.candidate {
		raw, err := t.client.ask(ctx, analysisVerifySystem, analysisVerifyPrompt(statement.Statement, t.pairs[i]))
		if err != nil {
			return false, err
		}
		verdict, err := schema.CheckAnalysisVerdict(raw)
		if err != nil {
			return false, fmt.Errorf("verdict for %s: %w", statement.StatementKey, err)
		}
		verdict.Statement = statement.Statement
		verdict.StatementKey = statement.StatementKey
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

func (t *AnalysisTask) Artifact() any {
	return model.AnalysisArtifact{
		Statements:  t.candidate,
		Reflections: t.verdicts,
	}
}

func (t *AnalysisTask) NullArtifact() any {
	return model.AnalysisArtifact{
		Statements:  []model.AnalysisStatement{},
		Reflections: []model.AnalysisVerdict{},
	}
}
