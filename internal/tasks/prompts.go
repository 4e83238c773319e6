package tasks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dkovalov/papermine/internal/model"
)

const extractionSystem = `You are an expert in heterogeneous catalysis reading one scientific paper.
For each requested performance metric, find the single sentence that reports the paper's best result for that metric, and the sentence stating which direction of the metric is better.
Cite sentences only by their keys (e.g. "C_0042"). Use "not_available" when the paper reports nothing for a metric.
Answer with one JSON object of the form:
{
  "positive": {"<metric>": {"best_performance": {"key": "...", "supporting_statement_key": "..."}, "better_direction": {"direction": "higher|lower|not_available", "supporting_statement_key": "..."}}},
  "negative": { same shape, but deliberately wrong: cite a sentence that does NOT report the best result and claim the opposite direction }
}
The "negative" branch must be plausible but incorrect. Cover every requested metric in both branches. Output only the JSON object.`

func extractionPrompt(metrics []string, paper string) string {
	return fmt.Sprintf("Metrics to extract: %s\n\nLabeled sentences of the paper:\n%s",
		strings.Join(metrics, ", "), paper)
}

const extractionVerifySystem = `You are reviewing two candidate extractions, group A and group B, taken from the same paper. Exactly one group may be correct, or neither.
Judge which group correctly reports the paper's best performance and better direction for the metric.
Answer with one JSON object:
{"valid_group": "A|B|None",
 "best_performance": {"is_relevant": true|false, "has_numerical_result": true|false, "support_best_performance": "yes|no"},
 "better_direction": {"support_better_direction": "yes|no|not_available"}}
Output only the JSON object.`

func extractionVerifyPrompt(metric string, pair model.ContrastivePair) string {
	return fmt.Sprintf("Metric: %s\n\nCandidate extractions:\n%s", metric, mustJSON(pair))
}

const taxonomySystem = `You are organizing performance statements from many papers into a metric taxonomy.
Group the statements into a small set of concrete metric categories. For each category give a name, a one-sentence description, the measurement unit, the better direction, a short abbreviation, and one positive exemplar paper (clearly reporting this category) plus one negative exemplar (clearly not).
Cite papers only by their four-digit keys. Answer with one JSON object mapping category name to:
{"description": "...", "unit": "...", "better_direction": "higher|lower", "abbreviation": "...", "sample": {"positive": "<paper key>", "negative": "<paper key>"}}
Output only the JSON object.`

func taxonomyPrompt(family string, statements map[string]model.ValidMetricInfo) string {
	keys := make([]string, 0, len(statements))
	for k := range statements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Metric family: %s\n\nAccepted statements by paper key:\n", family)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, statements[k].Statement)
	}
	return b.String()
}

const taxonomyVerifySystem = `You are reviewing one induced metric category against two exemplar papers' statements, group A and group B.
Group A is claimed to report this category, group B is claimed not to.
Answer with one JSON object:
{"valid_group": "A|B|None", "clarity_assessment": true|false, "effectiveness_assessment": true|false}
clarity_assessment: is the category definition unambiguous? effectiveness_assessment: does it usefully separate the exemplars? Output only the JSON object.`

func taxonomyVerifyPrompt(category string, def model.MetricCategory, pair model.ContrastivePair) string {
	return fmt.Sprintf("Category: %s\nDefinition:\n%s\n\nExemplar statements:\n%s",
		category, mustJSON(def), mustJSON(pair))
}

const categorizeSystem = `You are assigning one paper's best-performance statement to a metric category.
Pick the single best-fitting category from the list and read the numeric value of the metric out of the statement, converted to the category's unit. Use "not_available" as the category when none fits, with a null value.
Answer with one JSON object:
{"positive": {"metric_type": "...", "metric_value": <number or null>},
 "negative": {"metric_type": "...", "metric_value": <number or null>}}
The "negative" branch must name a plausible but wrong category or value. Output only the JSON object.`

func categorizePrompt(info model.ValidMetricInfo, categories map[string]model.MetricCategory) string {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Categories:\n")
	for _, name := range names {
		cat := categories[name]
		fmt.Fprintf(&b, "- %s (%s, unit %s, better %s): %s\n",
			name, cat.Abbreviation, cat.Unit, cat.BetterDirection, cat.Description)
	}
	fmt.Fprintf(&b, "\nStatement:\n%s\n", info.Statement)
	return b.String()
}

const categorizeVerifySystem = `You are reviewing two candidate categorizations of the same statement, group A and group B.
Answer with one JSON object:
{"valid_group": "A|B|None", "metric_value": true|false}
metric_value: does the chosen group's numeric value match what the statement reports, in the category's unit? Output only the JSON object.`

func categorizeVerifyPrompt(pair model.ContrastivePair) string {
	return fmt.Sprintf("Candidate categorizations:\n%s", mustJSON(pair))
}

const analysisSystem = `You are reading one scientific paper in depth.
Extract the paper's substantive findings about why its catalyst performs the way it does: mechanisms, structure-activity relations, and experimentally supported causal claims.
For each finding give the claim as one sentence, the keys of the sentences that support it, and the keys of sentences that look related but do NOT support it.
Answer with one JSON array of objects:
[{"statement": "...", "positive_keys": ["..."], "negative_keys": ["..."]}]
Cite sentences only by their keys. Output only the JSON array.`

func analysisPrompt(paper string) string {
	return fmt.Sprintf("Labeled sentences of the paper:\n%s", paper)
}

const analysisVerifySystem = `You are reviewing one extracted claim against two groups of sentences from the paper. Group A is claimed to support it, group B is claimed not to.
Answer with one JSON object:
{"valid_group": "A|B|None",
 "experiment_data_support": true|false,
 "calculation_data_support": true|false,
 "mechanism_analysis_support": true|false}
The booleans record which kind of evidence the supporting group actually contains. Output only the JSON object.`

func analysisVerifyPrompt(statement string, pair model.ContrastivePair) string {
	return fmt.Sprintf("Claim:\n%s\n\nSentence groups:\n%s", statement, mustJSON(pair))
}

const guidanceSystem = `You are synthesizing design guidance for catalyst development from verified findings across many high-performing papers.
Write a short list of actionable guidance statements. For each one cite the keys of the findings that support it and the keys of findings that look related but do NOT.
Answer with one JSON array of objects:
[{"guidance": "...", "positive_keys": ["..."], "negative_keys": ["..."]}]
Cite findings only by their keys. Output only the JSON array.`

func guidancePrompt(statements map[string]string) string {
	keys := make([]string, 0, len(statements))
	for k := range statements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Verified findings by key:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, statements[k])
	}
	return b.String()
}

const guidanceVerifySystem = `You are reviewing one guidance statement against two groups of findings. Group A is claimed to support it, group B is claimed not to.
Answer with one JSON object:
{"valid_group": "A|B|None", "feasible": true|false}
feasible: could a catalysis lab act on this guidance as written? Output only the JSON object.`

func guidanceVerifyPrompt(guidance string, pair model.ContrastivePair) string {
	return fmt.Sprintf("Guidance:\n%s\n\nFinding groups:\n%s", guidance, mustJSON(pair))
}

const supportSystem = `You are checking which of one paper's verified findings support a given guidance statement.
Answer with one JSON object:
{"positive_keys": ["<keys of findings that support the guidance>"],
 "negative_statements": ["<short statements of why other findings do not>"]}
Cite findings only by their keys. Use empty lists when nothing applies. Output only the JSON object.`

func supportPrompt(guidance string, statements map[string]string) string {
	keys := make([]string, 0, len(statements))
	for k := range statements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Guidance:\n%s\n\nFindings by key:\n", guidance)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, statements[k])
	}
	return b.String()
}

const supportVerifySystem = `You are reviewing a support attribution for a guidance statement. Group A holds the findings claimed to support it, group B holds counterstatements claiming they do not.
Answer with one JSON object:
{"valid_group": "A|B|None"}
Output only the JSON object.`

func supportVerifyPrompt(guidance string, pair model.ContrastivePair) string {
	return fmt.Sprintf("Guidance:\n%s\n\nGroups:\n%s", guidance, mustJSON(pair))
}

const relevanceSystem = `You are screening whether one scientific paper is about the target research topic.
Report your judgement through the provided tool.`

func relevancePrompt(topic, paper string) string {
	return fmt.Sprintf("Target topic: %s\n\nPaper content:\n%s", topic, paper)
}
