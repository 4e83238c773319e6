package tasks

import (
	"context"

	"github.com/dkovalov/papermine/internal/model"
	"github.com/dkovalov/papermine/internal/sample"
	"github.com/dkovalov/papermine/internal/schema"
)

// SupportTask attributes one guidance statement to the findings of one
// paper: which verified findings actually back the guidance. One unit per
// (guidance item, paper).
type SupportTask struct {
	client     *Client
	key        string
	guidance   string
	statements map[string]string // finding key -> statement text

	candidate *model.GuidanceSupport
	pair      model.ContrastivePair
	verdict   *model.SupportVerdict
}

// NewSupportTask builds the attribution unit.
func NewSupportTask(client *Client, key string, guidance string, statements map[string]string) *SupportTask {
	return &SupportTask{
		client:     client,
		key:        key,
		guidance:   guidance,
		statements: statements,
	}
}

func (t *SupportTask) Key() string { return t.key }

func (t *SupportTask) Kind() schema.TaskKind { return schema.KindSupport }

func (t *SupportTask) Generate(ctx context.Context) (string, error) {
	return t.client.ask(ctx, supportSystem, supportPrompt(t.guidance, t.statements))
}

func (t *SupportTask) Validate(raw string) error {
	support, err := schema.ValidateSupport(raw, t.statements)
	if err != nil {
		return err
	}
	t.candidate = support
	return nil
}

func (t *SupportTask) BuildPairs() error {
	pair, err := sample.SupportPair(t.candidate, t.statements)
	if err != nil {
		return err
	}
	t.pair = pair
	return nil
}

func (t *SupportTask) Verify(ctx context.Context) (bool, error) {
	raw, err := t.client.ask(ctx, supportVerifySystem, supportVerifyPrompt(t.guidance, t.pair))
	if err != nil {
		return false, err
	}
	verdict, err := schema.CheckSupportVerdict(raw)
	if err != nil {
		return false, err
	}
	t.verdict = verdict
	return verdict.Accepted(), nil
}

func (t *SupportTask) Artifact() any {
	return model.SupportArtifact{
		Support:       t.candidate,
		ReflectResult: t.verdict,
	}
}

func (t *SupportTask) NullArtifact() any {
	return model.SupportArtifact{}
}
