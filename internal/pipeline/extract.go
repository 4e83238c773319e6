package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/dkovalov/papermine/internal/artifact"
	"github.com/dkovalov/papermine/internal/corpus"
	"github.com/dkovalov/papermine/internal/model"
	"github.com/dkovalov/papermine/internal/tasks"
)

// RunExtract executes the extraction stage: topic-relevance screening,
// per-paper metric extraction, metric-taxonomy induction per family, and
// per-paper categorization under the induced taxonomy.
func (p *Pipeline) RunExtract(ctx context.Context) error {
	if err := p.requireClient(); err != nil {
		return err
	}

	stems, err := corpus.Stems(p.paths.SentenceRoot)
	if err != nil {
		return err
	}
	p.log.Info("extraction stage starting", zap.Int("papers", len(stems)))

	if err := p.screenRelevance(ctx, stems); err != nil {
		return err
	}

	relevant, err := p.relevantStems(stems)
	if err != nil {
		return err
	}
	p.log.Info("relevance screen done",
		zap.Int("relevant", len(relevant)),
		zap.Int("total", len(stems)))

	if err := p.extractPapers(ctx, relevant); err != nil {
		return err
	}

	infoByFamily, err := p.gatherValidMetricInfo(relevant)
	if err != nil {
		return err
	}
	for _, family := range p.cfg.Mining.Metrics {
		if err := artifact.SaveJSON(p.extractDir("valid_metric_info", family+".json"), infoByFamily[family]); err != nil {
			return err
		}
	}

	if err := p.induceTaxonomies(ctx, infoByFamily); err != nil {
		return err
	}

	return p.categorizePapers(ctx, infoByFamily)
}

func (p *Pipeline) screenRelevance(ctx context.Context, stems []string) error {
	store := artifact.NewStore(p.extractDir("relevance"))

	failures := p.sched.Run(ctx, stems, func(ctx context.Context, stem string) error {
		if store.Completed(stem) {
			return nil
		}

		paper, err := corpus.LoadPaper(filepath.Join(p.paths.PaperRoot, stem+".json"))
		if err != nil {
			return fmt.Errorf("paper %s: %w", stem, err)
		}

		if err := p.limiter.Acquire(ctx); err != nil {
			return err
		}
		screened, err := tasks.ScreenRelevance(ctx, p.client, p.cfg.Mining.Topic, string(paper))
		p.limiter.Release()
		if err != nil {
			// A paper the screen cannot judge is recorded as off-topic.
			// Deleting its artifact rejudges it on a later run.
			p.log.Warn("relevance screen failed, marking off-topic",
				zap.String("paper", stem), zap.Error(err))
			screened = model.RelevanceArtifact{}
		}
		return store.Save(stem, screened)
	})

	return firstError(failures)
}

func (p *Pipeline) relevantStems(stems []string) ([]string, error) {
	store := artifact.NewStore(p.extractDir("relevance"))

	var relevant []string
	for _, stem := range stems {
		if !store.Completed(stem) {
			continue
		}
		var screened model.RelevanceArtifact
		if err := store.Load(stem, &screened); err != nil {
			return nil, err
		}
		if screened.IsRelevant {
			relevant = append(relevant, stem)
		}
	}
	return relevant, nil
}

func (p *Pipeline) extractPapers(ctx context.Context, stems []string) error {
	engine := p.engine(p.extractDir("metrics_info"))
	policy := p.policy(p.cfg.Consensus.ExtractCeiling)

	failures := p.sched.Run(ctx, stems, func(ctx context.Context, stem string) error {
		sentences, err := p.loader.Sentences(stem)
		if err != nil {
			return fmt.Errorf("sentences %s: %w", stem, err)
		}
		task := tasks.NewExtractionTask(p.client, stem, p.cfg.Mining.Metrics, renderSentences(sentences), sentences)
		return engine.Run(ctx, task, policy)
	})
	return firstError(failures)
}

// gatherValidMetricInfo reads the accepted extraction artifacts and keeps,
// per metric family, the papers whose verdict passed every gate: group A,
// relevant, numerical, and a supported best-performance claim. The better
// direction is kept only when the verifier confirmed it.
func (p *Pipeline) gatherValidMetricInfo(stems []string) (map[string]map[string]model.ValidMetricInfo, error) {
	store := artifact.NewStore(p.extractDir("metrics_info"))

	infoByFamily := make(map[string]map[string]model.ValidMetricInfo)
	for _, family := range p.cfg.Mining.Metrics {
		infoByFamily[family] = make(map[string]model.ValidMetricInfo)
	}

	for _, stem := range stems {
		if !store.Completed(stem) {
			continue
		}
		var art model.PaperExtractionArtifact
		if err := store.Load(stem, &art); err != nil {
			return nil, err
		}
		if art.ExtractedInfo == nil {
			continue
		}

		sentences, err := p.loader.Sentences(stem)
		if err != nil {
			return nil, fmt.Errorf("sentences %s: %w", stem, err)
		}

		for family, verdict := range art.ReflectResult {
			if !verdict.Accepted() || !verdict.BestPerformance.IsRelevant ||
				!verdict.BestPerformance.HasNumericalResult ||
				verdict.BestPerformance.SupportBestPerformance != "yes" {
				continue
			}
			extraction, ok := art.ExtractedInfo.Positive[family]
			if !ok || extraction.BestPerformance.Key == model.NotAvailable {
				continue
			}
			statement, ok := sentences.Resolve(extraction.BestPerformance.Key)
			if !ok {
				continue
			}

			direction := model.NotAvailable
			if verdict.BetterDirection.SupportBetterDirection == "yes" {
				direction = extraction.BetterDirection.Direction
			}
			infoByFamily[family][stem] = model.ValidMetricInfo{
				Statement:       statement,
				BetterDirection: direction,
			}
		}
	}
	return infoByFamily, nil
}

func (p *Pipeline) induceTaxonomies(ctx context.Context, infoByFamily map[string]map[string]model.ValidMetricInfo) error {
	engine := p.engine(p.extractDir("overall_metrics"))
	policy := p.policy(p.cfg.Consensus.TaxonomyCeiling)

	for _, family := range p.cfg.Mining.Metrics {
		info := infoByFamily[family]
		if len(info) == 0 {
			p.log.Warn("no accepted statements for family, skipping taxonomy",
				zap.String("family", family))
			continue
		}

		sampled, doiKeys := sampleForTaxonomy(info, p.cfg.Consensus.TaxonomySampleCap)
		task := tasks.NewTaxonomyTask(p.client, family, sampled, doiKeys)
		if err := engine.Run(ctx, task, policy); err != nil {
			return err
		}
	}
	return nil
}

// sampleForTaxonomy draws up to cap papers in randomized order and indexes
// them under stable four-digit keys so the prompt never leaks raw DOIs.
func sampleForTaxonomy(info map[string]model.ValidMetricInfo, limit int) (map[string]model.ValidMetricInfo, map[string]string) {
	stems := make([]string, 0, len(info))
	for stem := range info {
		stems = append(stems, stem)
	}
	sort.Strings(stems)
	rand.Shuffle(len(stems), func(i, j int) { stems[i], stems[j] = stems[j], stems[i] })
	if limit > 0 && len(stems) > limit {
		stems = stems[:limit]
	}

	sampled := make(map[string]model.ValidMetricInfo, len(stems))
	doiKeys := make(map[string]string, len(stems))
	for i, stem := range stems {
		short := fmt.Sprintf("%04d", i)
		entry := info[stem]
		entry.DOIKey = short
		sampled[short] = entry
		doiKeys[short] = stem
	}
	return sampled, doiKeys
}

func (p *Pipeline) categorizePapers(ctx context.Context, infoByFamily map[string]map[string]model.ValidMetricInfo) error {
	taxonomyStore := artifact.NewStore(p.extractDir("overall_metrics"))
	policy := p.policy(p.cfg.Consensus.CategorizeCeiling)

	for _, family := range p.cfg.Mining.Metrics {
		if !taxonomyStore.Completed(family) {
			continue
		}
		var taxonomy model.TaxonomyArtifact
		if err := taxonomyStore.Load(family, &taxonomy); err != nil {
			return err
		}
		if len(taxonomy.GeneratedMetrics) == 0 {
			p.log.Warn("family induced no categories, skipping categorization",
				zap.String("family", family))
			continue
		}

		engine := p.engine(p.extractDir("individual_metrics", family))
		info := infoByFamily[family]

		stems := make([]string, 0, len(info))
		for stem := range info {
			stems = append(stems, stem)
		}
		sort.Strings(stems)

		failures := p.sched.Run(ctx, stems, func(ctx context.Context, stem string) error {
			task := tasks.NewCategorizationTask(p.client, stem, info[stem], taxonomy.GeneratedMetrics)
			return engine.Run(ctx, task, policy)
		})
		if err := firstError(failures); err != nil {
			return err
		}
	}
	return nil
}

func firstError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%d units failed, first: %w", len(errs), errs[0])
}
