package consensus

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/dkovalov/papermine/internal/artifact"
	"github.com/dkovalov/papermine/internal/sample"
	"github.com/dkovalov/papermine/internal/schema"
)

// stubTask scripts each phase of the loop for testing.
type stubTask struct {
	key          string
	generateErr  error
	validateErrs []error // consumed one per Validate call; nil past the end
	buildErrs    []error // consumed one per BuildPairs call
	verdicts     []bool  // consumed one per Verify call; false past the end

	generateCalls int
	validateCalls int
	verifyCalls   int
}

func (t *stubTask) Key() string { return t.key }

func (t *stubTask) Kind() schema.TaskKind { return schema.KindExtraction }

func (t *stubTask) Generate(ctx context.Context) (string, error) {
	t.generateCalls++
	return "raw", t.generateErr
}

func (t *stubTask) Validate(raw string) error {
	i := t.validateCalls
	t.validateCalls++
	if i < len(t.validateErrs) {
		return t.validateErrs[i]
	}
	return nil
}

func (t *stubTask) BuildPairs() error {
	if len(t.buildErrs) == 0 {
		return nil
	}
	err := t.buildErrs[0]
	t.buildErrs = t.buildErrs[1:]
	return err
}

func (t *stubTask) Verify(ctx context.Context) (bool, error) {
	i := t.verifyCalls
	t.verifyCalls++
	if i < len(t.verdicts) {
		return t.verdicts[i], nil
	}
	return false, nil
}

func (t *stubTask) Artifact() any     { return map[string]string{"result": "accepted"} }
func (t *stubTask) NullArtifact() any { return map[string]string{} }

func testPolicy() Policy {
	return Policy{RetryCeiling: 3, GenerateRetries: 2, NullCap: 3}
}

func TestRunAcceptsOnFirstAgreement(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	engine := NewEngine(store, nil, zap.NewNop())

	task := &stubTask{key: "p1", verdicts: []bool{true}}
	if err := engine.Run(context.Background(), task, testPolicy()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if task.generateCalls != 1 {
		t.Errorf("generateCalls = %d, want 1", task.generateCalls)
	}
	var got map[string]string
	if err := store.Load("p1", &got); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got["result"] != "accepted" {
		t.Errorf("persisted artifact = %v, want the accepted candidate", got)
	}
}

func TestRunSkipsCompletedUnit(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	if err := store.Save("p1", map[string]string{"result": "prior"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	engine := NewEngine(store, nil, zap.NewNop())
	task := &stubTask{key: "p1", verdicts: []bool{true}}
	if err := engine.Run(context.Background(), task, testPolicy()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if task.generateCalls != 0 {
		t.Errorf("generateCalls = %d, want 0 for a completed unit", task.generateCalls)
	}
}

func TestRunBoundedRetryThenNull(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	engine := NewEngine(store, nil, zap.NewNop())

	// Verifier never agrees.
	task := &stubTask{key: "p1"}
	if err := engine.Run(context.Background(), task, testPolicy()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if task.generateCalls != 3 {
		t.Errorf("generateCalls = %d, want exactly RetryCeiling", task.generateCalls)
	}
	var got map[string]string
	if err := store.Load("p1", &got); err != nil {
		t.Fatalf("give-up must persist the null artifact: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("persisted %v, want the empty null artifact", got)
	}
}

func TestRunMalformedRegeneratesWithinAttempt(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	engine := NewEngine(store, nil, zap.NewNop())

	task := &stubTask{
		key:          "p1",
		validateErrs: []error{schema.ErrMalformed, schema.ErrMalformed},
		verdicts:     []bool{true},
	}
	if err := engine.Run(context.Background(), task, testPolicy()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Two regenerations plus the successful one, still within one attempt.
	if task.generateCalls != 3 {
		t.Errorf("generateCalls = %d, want 3", task.generateCalls)
	}
	if !store.Completed("p1") {
		t.Error("unit should be accepted after the regenerated candidate passes")
	}
}

func TestRunRegenerationBudgetRenewsPerAttempt(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	engine := NewEngine(store, nil, zap.NewNop())

	// Attempt one burns its full regeneration budget and gets charged;
	// attempt two must start with a fresh budget and reach acceptance.
	task := &stubTask{
		key: "p1",
		validateErrs: []error{
			schema.ErrMalformed, schema.ErrMalformed, schema.ErrMalformed,
			schema.ErrMalformed, schema.ErrMalformed,
		},
		verdicts: []bool{true},
	}
	if err := engine.Run(context.Background(), task, testPolicy()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if task.generateCalls != 6 {
		t.Errorf("generateCalls = %d, want 6 (three per attempt across two attempts)", task.generateCalls)
	}
	var got map[string]string
	if err := store.Load("p1", &got); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got["result"] != "accepted" {
		t.Errorf("persisted %v, want the accepted candidate", got)
	}
}

func TestRunNullCapAcceptsNull(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	engine := NewEngine(store, nil, zap.NewNop())

	task := &stubTask{
		key:       "p1",
		buildErrs: []error{sample.ErrNotAvailable, sample.ErrNotAvailable, sample.ErrNotAvailable},
	}
	if err := engine.Run(context.Background(), task, testPolicy()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if task.verifyCalls != 0 {
		t.Errorf("verifyCalls = %d, want 0 (nulls never reach the verifier)", task.verifyCalls)
	}
	if task.generateCalls != 3 {
		t.Errorf("generateCalls = %d, want NullCap consecutive nulls", task.generateCalls)
	}
	if !store.Completed("p1") {
		t.Error("accepted null must be persisted")
	}
}

func TestRunVerifierAgreementResetsNullStreak(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	engine := NewEngine(store, nil, zap.NewNop())

	// null, null, verified-reject, then accept. The reject passes through
	// VERIFY and resets the streak, so no null is ever persisted.
	task := &stubTask{
		key:       "p1",
		buildErrs: []error{sample.ErrNotAvailable, sample.ErrNotAvailable, nil, nil},
		verdicts:  []bool{false, true},
	}
	if err := engine.Run(context.Background(), task, testPolicy()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var got map[string]string
	if err := store.Load("p1", &got); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got["result"] != "accepted" {
		t.Errorf("persisted %v, want the accepted candidate", got)
	}
}

func TestRunTransportErrorConsumesAttempts(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	engine := NewEngine(store, nil, zap.NewNop())

	task := &stubTask{key: "p1", generateErr: context.DeadlineExceeded}
	if err := engine.Run(context.Background(), task, testPolicy()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if task.generateCalls != 3 {
		t.Errorf("generateCalls = %d, want RetryCeiling", task.generateCalls)
	}
	if !store.Completed("p1") {
		t.Error("give-up after transport failures must still persist a null artifact")
	}
}
