package tasks

import (
	"context"
	"fmt"
	"sort"

	"github.com/dkovalov/papermine/internal/model"
	"github.com/dkovalov/papermine/internal/sample"
	"github.com/dkovalov/papermine/internal/schema"
)

// TaxonomyTask induces the category set for one metric family from a sample
// of accepted statements across papers. One unit per metric family; the
// induced categories are fixed for every downstream categorization run.
type TaxonomyTask struct {
	client  *Client
	family  string
	sampled map[string]model.ValidMetricInfo // four-digit key -> statement
	doiKeys map[string]string                // four-digit key -> real DOI

	candidate map[string]model.MetricCategory
	pairs     map[string]model.ContrastivePair
	verdicts  map[string]model.TaxonomyVerdict
}

// NewTaxonomyTask builds the induction unit for one family. sampled holds
// the statements shown to the model under stable four-digit paper keys and
// doiKeys maps those back to real identifiers.
func NewTaxonomyTask(client *Client, family string, sampled map[string]model.ValidMetricInfo, doiKeys map[string]string) *TaxonomyTask {
	return &TaxonomyTask{
		client:  client,
		family:  family,
		sampled: sampled,
		doiKeys: doiKeys,
	}
}

func (t *TaxonomyTask) Key() string { return t.family }

func (t *TaxonomyTask) Kind() schema.TaskKind { return schema.KindTaxonomy }

func (t *TaxonomyTask) Generate(ctx context.Context) (string, error) {
	return t.client.ask(ctx, taxonomySystem, taxonomyPrompt(t.family, t.sampled))
}

func (t *TaxonomyTask) Validate(raw string) error {
	categories, err := schema.ValidateTaxonomy(raw, t.doiKeys)
	if err != nil {
		return err
	}
	t.candidate = categories
	return nil
}

func (t *TaxonomyTask) BuildPairs() error {
	// Exemplar pairs are built against the sampled statements, keyed the
	// same way the model cited them.
	pairs, err := sample.TaxonomyPairs(t.rekeyedCandidate(), t.sampled)
	if err != nil {
		return err
	}
	t.pairs = pairs
	return nil
}

// rekeyedCandidate undoes the doi-key resolution for pair building: the
// persisted artifact carries real DOIs, the verification sample needs the
// four-digit keys the statements are indexed by.
func (t *TaxonomyTask) rekeyedCandidate() map[string]model.MetricCategory {
	back := make(map[string]string, len(t.doiKeys))
	for short, doi := range t.doiKeys {
		back[doi] = short
	}
	out := make(map[string]model.MetricCategory, len(t.candidate))
	for name, cat := range t.candidate {
		cat.Sample.Positive = back[cat.Sample.Positive]
		cat.Sample.Negative = back[cat.Sample.Negative]
		out[name] = cat
	}
	return out
}

func (t *TaxonomyTask) Verify(ctx context.Context) (bool, error) {
	names := make([]string, 0, len(t.pairs))
	for name := range t.pairs {
		names = append(names, name)
	}
	sort.Strings(names)

	verdicts := make(map[string]model.TaxonomyVerdict, len(names))
	for _, name := range names {
		raw, err := t.client.ask(ctx, taxonomyVerifySystem, taxonomyVerifyPrompt(name, t.candidate[name], t.pairs[name]))
		if err != nil {
			return false, err
		}
		verdict, err := schema.CheckTaxonomyVerdict(raw)
		if err != nil {
			return false, fmt.Errorf("verdict for %s: %w", name, err)
		}
		verdicts[name] = *verdict
	}

	for _, verdict := range verdicts {
		if !verdict.Accepted() {
			return false, nil
		}
	}
	t.verdicts = verdicts
	return true, nil
}

func (t *TaxonomyTask) Artifact() any {
	return model.TaxonomyArtifact{
		GeneratedMetrics: t.candidate,
		ReflectResult:    t.verdicts,
	}
}

func (t *TaxonomyTask) NullArtifact() any {
	return model.TaxonomyArtifact{}
}
