package pipeline

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/dkovalov/papermine/internal/artifact"
	"github.com/dkovalov/papermine/internal/model"
	"github.com/dkovalov/papermine/internal/tasks"
)

// guidanceUnitKey is the artifact stem of the single guidance-synthesis
// unit; the whole filtered subset is one unit of work.
const guidanceUnitKey = "guidance"

// RunGuidance executes the guidance stage over the filtering output:
// in-depth analysis of every selected paper, guidance synthesis across the
// verified findings, support attribution per (guidance, paper), and the
// per-guidance support summary.
func (p *Pipeline) RunGuidance(ctx context.Context) error {
	if err := p.requireClient(); err != nil {
		return err
	}

	var content map[string]map[string]model.ValidMetricInfo
	if err := artifact.LoadJSON(p.filterDir("to_process_content.json"), &content); err != nil {
		return fmt.Errorf("run the filter stage first: %w", err)
	}

	stems := make([]string, 0, len(content))
	for stem := range content {
		stems = append(stems, stem)
	}
	sort.Strings(stems)
	p.log.Info("guidance stage starting", zap.Int("papers", len(stems)))

	if err := p.analyzePapers(ctx, stems); err != nil {
		return err
	}

	byPaper, global, err := p.collectFindings(stems)
	if err != nil {
		return err
	}
	if len(global) == 0 {
		return fmt.Errorf("no verified findings survived in-depth analysis")
	}

	guidance, err := p.synthesizeGuidance(ctx, global)
	if err != nil {
		return err
	}

	if err := p.attributeSupport(ctx, guidance, byPaper); err != nil {
		return err
	}
	return p.summarizeSupport(guidance, byPaper)
}

func (p *Pipeline) analyzePapers(ctx context.Context, stems []string) error {
	engine := p.engine(p.guidanceDir("in_depth_analysis"))
	policy := p.policy(p.cfg.Consensus.AnalysisCeiling)

	failures := p.sched.Run(ctx, stems, func(ctx context.Context, stem string) error {
		sentences, err := p.loader.Sentences(stem)
		if err != nil {
			return fmt.Errorf("sentences %s: %w", stem, err)
		}
		task := tasks.NewAnalysisTask(p.client, stem, renderSentences(sentences), sentences)
		return engine.Run(ctx, task, policy)
	})
	return firstError(failures)
}

// collectFindings reads the accepted analysis artifacts. Per paper it keeps
// the local statement-key dictionary used by support attribution; globally
// it namespaces keys as "<paper>/<key>" so guidance synthesis can cite
// findings across papers without collisions.
func (p *Pipeline) collectFindings(stems []string) (map[string]map[string]string, map[string]string, error) {
	store := artifact.NewStore(p.guidanceDir("in_depth_analysis"))

	byPaper := make(map[string]map[string]string)
	global := make(map[string]string)
	for _, stem := range stems {
		if !store.Completed(stem) {
			continue
		}
		var art model.AnalysisArtifact
		if err := store.Load(stem, &art); err != nil {
			return nil, nil, err
		}
		if len(art.Statements) == 0 {
			continue
		}

		local := make(map[string]string, len(art.Statements))
		for _, statement := range art.Statements {
			local[statement.StatementKey] = statement.Statement
			global[stem+"/"+statement.StatementKey] = statement.Statement
		}
		byPaper[stem] = local
	}
	return byPaper, global, nil
}

func (p *Pipeline) synthesizeGuidance(ctx context.Context, findings map[string]string) (*model.GuidanceArtifact, error) {
	engine := p.engine(p.guidanceDir())
	policy := p.policy(p.cfg.Consensus.GuidanceCeiling)

	task := tasks.NewGuidanceTask(p.client, guidanceUnitKey, findings)
	if err := engine.Run(ctx, task, policy); err != nil {
		return nil, err
	}

	var guidance model.GuidanceArtifact
	if err := engine.Store().Load(guidanceUnitKey, &guidance); err != nil {
		return nil, err
	}
	return &guidance, nil
}

func (p *Pipeline) attributeSupport(ctx context.Context, guidance *model.GuidanceArtifact, byPaper map[string]map[string]string) error {
	policy := p.policy(p.cfg.Consensus.SupportCeiling)

	stems := make([]string, 0, len(byPaper))
	for stem := range byPaper {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	for _, item := range guidance.Items {
		engine := p.engine(p.guidanceDir("guidance_support", item.GuidanceKey))

		failures := p.sched.Run(ctx, stems, func(ctx context.Context, stem string) error {
			task := tasks.NewSupportTask(p.client, stem, item.Guidance, byPaper[stem])
			return engine.Run(ctx, task, policy)
		})
		if err := firstError(failures); err != nil {
			return err
		}
	}
	return nil
}

// summarizeSupport counts, per guidance item, the papers whose accepted
// attribution cites at least one supporting finding.
func (p *Pipeline) summarizeSupport(guidance *model.GuidanceArtifact, byPaper map[string]map[string]string) error {
	for _, item := range guidance.Items {
		store := artifact.NewStore(p.guidanceDir("guidance_support", item.GuidanceKey))

		count := 0
		for stem := range byPaper {
			if !store.Completed(stem) {
				continue
			}
			var art model.SupportArtifact
			if err := store.Load(stem, &art); err != nil {
				return err
			}
			if art.Support != nil && len(art.Support.PositiveKeys) > 0 {
				count++
			}
		}

		summary := model.SupportSummary{SupportCount: count}
		path := p.guidanceDir("support_summary", item.GuidanceKey+"_summary.json")
		if err := artifact.SaveJSON(path, summary); err != nil {
			return err
		}
		p.log.Info("guidance support summarized",
			zap.String("guidance", item.GuidanceKey),
			zap.Int("support_count", count))
	}
	return nil
}
