package tasks

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dkovalov/papermine/internal/corpus"
	"github.com/dkovalov/papermine/internal/llm"
	"github.com/dkovalov/papermine/internal/model"
	"github.com/dkovalov/papermine/internal/schema"
)

// fakeProvider replays scripted answers in order.
type fakeProvider struct {
	answers []string
	calls   int

	toolCalls []*llm.ToolCall
	toolIdx   int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeProvider) Ask(ctx context.Context, req llm.AskRequest) (string, error) {
	if f.calls >= len(f.answers) {
		return "", nil
	}
	answer := f.answers[f.calls]
	f.calls++
	return answer, nil
}

func (f *fakeProvider) AskTool(ctx context.Context, req llm.AskRequest, tools []llm.ToolSpec) (*llm.ToolCall, error) {
	if f.toolIdx >= len(f.toolCalls) {
		return nil, nil
	}
	call := f.toolCalls[f.toolIdx]
	f.toolIdx++
	return call, nil
}

var testSentences = corpus.Corpus{
	"C_0010": "The catalyst reached 500 mA/cm2.",
	"C_0011": "Higher current density indicates better activity.",
	"C_0012": "Stability degraded after 10 hours.",
}

const extractionAnswer = `{
	"positive": {"activity": {
		"best_performance": {"key": "C_0010", "supporting_statement_key": "C_0011"},
		"better_direction": {"direction": "higher", "supporting_statement_key": "C_0011"}}},
	"negative": {"activity": {
		"best_performance": {"key": "C_0012", "supporting_statement_key": "not_available"},
		"better_direction": {"direction": "lower", "supporting_statement_key": "not_available"}}}
}`

const extractionVerdictA = `{"valid_group": "A",
	"best_performance": {"is_relevant": true, "has_numerical_result": true, "support_best_performance": "yes"},
	"better_direction": {"support_better_direction": "yes"}}`

func TestExtractionTaskFullRound(t *testing.T) {
	provider := &fakeProvider{answers: []string{extractionAnswer, extractionVerdictA}}
	client := NewClient(provider, model.LLMConfig{})
	task := NewExtractionTask(client, "paper1", []string{"activity"}, "C_0010: ...", testSentences)

	raw, err := task.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if err := task.Validate(raw); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if err := task.BuildPairs(); err != nil {
		t.Fatalf("BuildPairs failed: %v", err)
	}

	ok, err := task.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Fatal("verdict A with all gates should accept")
	}

	artifact, ok := task.Artifact().(model.PaperExtractionArtifact)
	if !ok {
		t.Fatalf("Artifact has type %T", task.Artifact())
	}
	if artifact.ExtractedInfo == nil || len(artifact.ReflectResult) != 1 {
		t.Errorf("artifact must carry both extraction and verdicts, got %+v", artifact)
	}
}

func TestExtractionTaskRejectedVerdict(t *testing.T) {
	verdictB := strings.Replace(extractionVerdictA, `"A"`, `"B"`, 1)
	provider := &fakeProvider{answers: []string{extractionAnswer, verdictB}}
	client := NewClient(provider, model.LLMConfig{})
	task := NewExtractionTask(client, "paper1", []string{"activity"}, "C_0010: ...", testSentences)

	raw, _ := task.Generate(context.Background())
	if err := task.Validate(raw); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if err := task.BuildPairs(); err != nil {
		t.Fatalf("BuildPairs failed: %v", err)
	}

	ok, err := task.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Error("verdict B must not accept")
	}
}

func TestCategorizationTaskRound(t *testing.T) {
	categories := map[string]model.MetricCategory{
		"current density": {Unit: "mA/cm2", BetterDirection: model.DirectionHigher},
	}
	provider := &fakeProvider{answers: []string{
		`{"positive": {"metric_type": "current density", "metric_value": 500},
		  "negative": {"metric_type": "current density", "metric_value": 5}}`,
		`{"valid_group": "A", "metric_value": true}`,
	}}
	client := NewClient(provider, model.LLMConfig{})
	task := NewCategorizationTask(client, "paper1", model.ValidMetricInfo{Statement: "reached 500 mA/cm2"}, categories)

	raw, _ := task.Generate(context.Background())
	if err := task.Validate(raw); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if err := task.BuildPairs(); err != nil {
		t.Fatalf("BuildPairs failed: %v", err)
	}
	ok, err := task.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Error("accepted verdict expected")
	}
}

func TestScreenRelevance(t *testing.T) {
	provider := &fakeProvider{toolCalls: []*llm.ToolCall{
		{Name: "report_relevance", Arguments: `{"is_relevant": true}`},
	}}
	client := NewClient(provider, model.LLMConfig{})

	screened, err := ScreenRelevance(context.Background(), client, "oxygen evolution", "paper text")
	if err != nil {
		t.Fatalf("ScreenRelevance failed: %v", err)
	}
	if !screened.IsRelevant {
		t.Error("IsRelevant should be true")
	}
}

func TestScreenRelevanceRetriesSoftFailures(t *testing.T) {
	provider := &fakeProvider{toolCalls: []*llm.ToolCall{
		nil, // model answered without a tool call
		{Name: "report_relevance", Arguments: `{"is_relevant": false}`},
	}}
	client := NewClient(provider, model.LLMConfig{})

	screened, err := ScreenRelevance(context.Background(), client, "topic", "paper text")
	if err != nil {
		t.Fatalf("ScreenRelevance failed: %v", err)
	}
	if screened.IsRelevant {
		t.Error("IsRelevant should be false")
	}
}

func TestScreenRelevanceGivesUp(t *testing.T) {
	provider := &fakeProvider{} // never produces a tool call
	client := NewClient(provider, model.LLMConfig{})

	if _, err := ScreenRelevance(context.Background(), client, "topic", "paper text"); err == nil {
		t.Error("persistent soft failure should surface an error")
	}
}

func TestClampContent(t *testing.T) {
	short := "hello"
	if got := clampContent(short); got != short {
		t.Errorf("short content must pass through, got %q", got)
	}

	long := strings.Repeat("a", maxContentBytes+100)
	if got := clampContent(long); len(got) != maxContentBytes {
		t.Errorf("clamped length = %d, want %d", len(got), maxContentBytes)
	}

	// The cut never splits a multi-byte rune.
	runes := strings.Repeat("é", maxContentBytes/2+60)
	clipped := clampContent(runes)
	if len(clipped) != maxContentBytes {
		t.Errorf("clipped length = %d, want %d", len(clipped), maxContentBytes)
	}
	if !utf8.ValidString(clipped) {
		t.Error("clamp produced invalid UTF-8")
	}

	// Cut landing inside a rune drops the incomplete rune.
	midRune := strings.Repeat("a", maxContentBytes-1) + "日本語"
	clipped = clampContent(midRune)
	if len(clipped) != maxContentBytes-1 {
		t.Errorf("mid-rune clip length = %d, want %d", len(clipped), maxContentBytes-1)
	}
	if !utf8.ValidString(clipped) {
		t.Error("mid-rune clip produced invalid UTF-8")
	}

	// Cut landing exactly on a boundary keeps the final complete rune.
	onBoundary := strings.Repeat("a", maxContentBytes-3) + "日本語"
	clipped = clampContent(onBoundary)
	if !strings.HasSuffix(clipped, "日") {
		t.Errorf("boundary clip must keep the final complete rune, got tail %q", clipped[len(clipped)-4:])
	}
	if len(clipped) != maxContentBytes || !utf8.ValidString(clipped) {
		t.Errorf("boundary clip length = %d valid = %v", len(clipped), utf8.ValidString(clipped))
	}
}

// Every verify prompt advertises a response schema; a verifier that follows
// it to the letter must parse through the matching verdict checker.
func TestVerifyPromptSchemasParse(t *testing.T) {
	extraction := `{"valid_group": "A",
		"best_performance": {"is_relevant": true, "has_numerical_result": false, "support_best_performance": "yes"},
		"better_direction": {"support_better_direction": "not_available"}}`
	if _, err := schema.CheckExtractionVerdict(extraction); err != nil {
		t.Errorf("extraction verdict shaped as prompted must parse: %v", err)
	}

	taxonomy := `{"valid_group": "A", "clarity_assessment": true, "effectiveness_assessment": false}`
	if _, err := schema.CheckTaxonomyVerdict(taxonomy); err != nil {
		t.Errorf("taxonomy verdict shaped as prompted must parse: %v", err)
	}

	category := `{"valid_group": "B", "metric_value": false}`
	if _, err := schema.CheckCategoryVerdict(category); err != nil {
		t.Errorf("categorization verdict shaped as prompted must parse: %v", err)
	}

	analysis := `{"valid_group": "A", "experiment_data_support": true,
		"calculation_data_support": false, "mechanism_analysis_support": true}`
	if _, err := schema.CheckAnalysisVerdict(analysis); err != nil {
		t.Errorf("analysis verdict shaped as prompted must parse: %v", err)
	}

	guidance := `{"valid_group": "A", "feasible": true}`
	if _, err := schema.CheckGuidanceVerdict(guidance); err != nil {
		t.Errorf("guidance verdict shaped as prompted must parse: %v", err)
	}

	support := `{"valid_group": "None"}`
	if _, err := schema.CheckSupportVerdict(support); err != nil {
		t.Errorf("support verdict shaped as prompted must parse: %v", err)
	}
}
