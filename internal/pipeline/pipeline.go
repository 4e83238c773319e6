// Package pipeline wires the consensus tasks, scheduler and filtering engine
// into the three runnable stages: extract, filter, guidance. Every stage
// writes one artifact file per unit of work under the output root, so a
// rerun picks up exactly where the previous run stopped.
package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dkovalov/papermine/internal/artifact"
	"github.com/dkovalov/papermine/internal/consensus"
	"github.com/dkovalov/papermine/internal/corpus"
	"github.com/dkovalov/papermine/internal/llm"
	"github.com/dkovalov/papermine/internal/model"
	"github.com/dkovalov/papermine/internal/tasks"
	"github.com/dkovalov/papermine/internal/worker"
)

// Paths holds the three roots every stage is invoked with.
type Paths struct {
	// PaperRoot holds the structured paper JSON files
	PaperRoot string

	// SentenceRoot holds the labeled-sentence files, one per paper
	SentenceRoot string

	// OutputRoot receives all artifacts
	OutputRoot string
}

// Pipeline runs the mining stages over one corpus.
type Pipeline struct {
	cfg     model.Config
	client  *tasks.Client
	loader  *corpus.Loader
	limiter *worker.Limiter
	sched   *worker.Scheduler
	paths   Paths
	log     *zap.Logger
}

// New assembles a pipeline. The provider may be nil only for the filter
// stage, which makes no model calls.
func New(cfg model.Config, provider llm.Provider, paths Paths, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}

	limiter, err := worker.NewLimiter(cfg.Limiter)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:     cfg,
		loader:  corpus.NewLoader(paths.SentenceRoot),
		limiter: limiter,
		sched:   worker.NewScheduler(cfg.Batch.Size, log),
		paths:   paths,
		log:     log,
	}
	if provider != nil {
		p.client = tasks.NewClient(provider, cfg.LLM)
	}
	return p, nil
}

func (p *Pipeline) requireClient() error {
	if p.client == nil {
		return fmt.Errorf("no LLM provider configured; set llm.provider")
	}
	return nil
}

// Output layout.

func (p *Pipeline) extractDir(sub ...string) string {
	return filepath.Join(append([]string{p.paths.OutputRoot, "extract_info"}, sub...)...)
}

func (p *Pipeline) filterDir(sub ...string) string {
	return filepath.Join(append([]string{p.paths.OutputRoot, "filtering"}, sub...)...)
}

func (p *Pipeline) guidanceDir(sub ...string) string {
	return filepath.Join(append([]string{p.paths.OutputRoot, "guidance"}, sub...)...)
}

func (p *Pipeline) engine(dir string) *consensus.Engine {
	return consensus.NewEngine(artifact.NewStore(dir), p.limiter, p.log)
}

func (p *Pipeline) policy(ceiling int) consensus.Policy {
	return consensus.Policy{
		RetryCeiling:    ceiling,
		GenerateRetries: p.cfg.Consensus.GenerateRetries,
		NullCap:         p.cfg.Consensus.NullCap,
	}
}

// renderSentences flattens a paper's labeled sentences into the key-per-line
// listing shown to the model.
func renderSentences(sentences corpus.Corpus) string {
	keys := make([]string, 0, len(sentences))
	for key := range sentences {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(sentences[key])
		b.WriteString("\n")
	}
	return b.String()
}
