// Package consensus drives the generate, verify, retry loop that every
// model-facing task runs through. A candidate only counts once a second,
// independently-framed call picks it over a deliberately wrong alternative;
// anything else is retried up to a ceiling and then persisted as a null
// result so the unit is never revisited.
package consensus

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dkovalov/papermine/internal/artifact"
	"github.com/dkovalov/papermine/internal/sample"
	"github.com/dkovalov/papermine/internal/schema"
	"github.com/dkovalov/papermine/internal/worker"
)

// State is one phase of the consensus loop.
type State int

const (
	StateGenerate State = iota
	StateValidate
	StateBuildPair
	StateVerify
	StateAccept
	StateRetry
	StateGiveUp
)

func (s State) String() string {
	switch s {
	case StateGenerate:
		return "GENERATE"
	case StateValidate:
		return "VALIDATE"
	case StateBuildPair:
		return "BUILD_PAIR"
	case StateVerify:
		return "VERIFY"
	case StateAccept:
		return "ACCEPT"
	case StateRetry:
		return "RETRY"
	case StateGiveUp:
		return "GIVE_UP"
	}
	return "UNKNOWN"
}

// Task is one unit of consensus work. Implementations are stateful: Generate
// produces raw model output, Validate parses it into a retained candidate,
// BuildPairs frames that candidate for verification, and Verify judges it.
type Task interface {
	// Key identifies the unit; it doubles as the artifact filename stem.
	Key() string

	// Kind names the task instantiation for logging and dispatch.
	Kind() schema.TaskKind

	// Generate asks the model for a fresh candidate and returns the raw text.
	Generate(ctx context.Context) (string, error)

	// Validate parses raw output into the retained candidate. Structural
	// problems surface as schema.ErrMalformed.
	Validate(raw string) error

	// BuildPairs frames the retained candidate as contrastive input for the
	// verifier. sample.ErrNotAvailable means the candidate legitimately
	// holds nothing to verify.
	BuildPairs() error

	// Verify asks the model to judge the framed pair. True means the
	// verifier picked the claimed-correct side and confirmed every
	// task-specific check.
	Verify(ctx context.Context) (bool, error)

	// Artifact is the value persisted on acceptance.
	Artifact() any

	// NullArtifact is the value persisted on give-up or an accepted null.
	NullArtifact() any
}

// Policy bounds one consensus run.
type Policy struct {
	// RetryCeiling caps full generate-verify attempts. Transport errors,
	// malformed output, and verifier disagreement all consume attempts.
	RetryCeiling int

	// GenerateRetries is how many times a malformed generation is redone
	// within a single attempt before the attempt is charged.
	GenerateRetries int

	// NullCap is how many consecutive not-available candidates it takes
	// before the null result is accepted as the answer.
	NullCap int
}

// Engine runs tasks to a persisted conclusion.
type Engine struct {
	store   *artifact.Store
	limiter *worker.Limiter
	log     *zap.Logger
}

// NewEngine builds an engine over a shared store and limiter.
func NewEngine(store *artifact.Store, limiter *worker.Limiter, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, limiter: limiter, log: log}
}

// Store returns the engine's artifact store.
func (e *Engine) Store() *artifact.Store {
	return e.store
}

// Run drives one task through the consensus loop until a result is
// persisted. Units whose artifact already exists and parses are skipped
// without any model call, which is what makes reruns resumable.
func (e *Engine) Run(ctx context.Context, task Task, policy Policy) error {
	key := task.Key()
	if e.store.Completed(key) {
		e.log.Debug("unit already completed",
			zap.Stringer("task", task.Kind()),
			zap.String("unit", key))
		return nil
	}

	attempts := 0
	nullStreak := 0
	generateTries := 0
	var raw string
	var lastErr error

	state := StateGenerate
	for {
		switch state {
		case StateGenerate:
			if err := ctx.Err(); err != nil {
				return err
			}
			var err error
			raw, err = e.throttledGenerate(ctx, task)
			if err != nil {
				lastErr = err
				state = StateRetry
				continue
			}
			state = StateValidate

		case StateValidate:
			if err := task.Validate(raw); err != nil {
				lastErr = err
				if errors.Is(err, schema.ErrMalformed) && generateTries < policy.GenerateRetries {
					generateTries++
					e.log.Debug("malformed candidate, regenerating",
						zap.String("unit", key),
						zap.Int("generate_try", generateTries))
					state = StateGenerate
					continue
				}
				state = StateRetry
				continue
			}
			generateTries = 0
			state = StateBuildPair

		case StateBuildPair:
			err := task.BuildPairs()
			switch {
			case err == nil:
				state = StateVerify
			case errors.Is(err, sample.ErrNotAvailable):
				nullStreak++
				e.log.Debug("candidate reports nothing extractable",
					zap.String("unit", key),
					zap.Int("null_streak", nullStreak))
				if nullStreak >= policy.NullCap {
					// Repeated agreement that there is nothing to find
					// is itself a consensus.
					return e.persistNull(task, "accepted null result")
				}
				state = StateGenerate
			default:
				lastErr = err
				state = StateRetry
			}

		case StateVerify:
			nullStreak = 0
			ok, err := e.throttledVerify(ctx, task)
			if err != nil {
				lastErr = err
				state = StateRetry
				continue
			}
			if ok {
				state = StateAccept
				continue
			}
			lastErr = fmt.Errorf("verifier rejected candidate for %s", key)
			state = StateRetry

		case StateRetry:
			attempts++
			generateTries = 0
			if attempts >= policy.RetryCeiling {
				state = StateGiveUp
				continue
			}
			e.log.Debug("retrying unit",
				zap.String("unit", key),
				zap.Int("attempt", attempts),
				zap.Error(lastErr))
			state = StateGenerate

		case StateAccept:
			if err := e.store.Save(key, task.Artifact()); err != nil {
				return err
			}
			e.log.Info("unit accepted",
				zap.Stringer("task", task.Kind()),
				zap.String("unit", key),
				zap.Int("attempts", attempts+1))
			return nil

		case StateGiveUp:
			e.log.Warn("giving up on unit",
				zap.Stringer("task", task.Kind()),
				zap.String("unit", key),
				zap.Int("attempts", attempts),
				zap.Error(lastErr))
			return e.persistNull(task, "exhausted retries")
		}
	}
}

func (e *Engine) persistNull(task Task, reason string) error {
	key := task.Key()
	if err := e.store.Save(key, task.NullArtifact()); err != nil {
		return err
	}
	e.log.Info("persisted null result",
		zap.String("unit", key),
		zap.String("reason", reason))
	return nil
}

func (e *Engine) throttledGenerate(ctx context.Context, task Task) (string, error) {
	if e.limiter != nil {
		if err := e.limiter.Acquire(ctx); err != nil {
			return "", err
		}
		defer e.limiter.Release()
	}
	return task.Generate(ctx)
}

func (e *Engine) throttledVerify(ctx context.Context, task Task) (bool, error) {
	if e.limiter != nil {
		if err := e.limiter.Acquire(ctx); err != nil {
			return false, err
		}
		defer e.limiter.Release()
	}
	return task.Verify(ctx)
}
