package schema

// TaskKind enumerates the six consensus-loop task instantiations plus the
// relevance screen. Validation and verdict checking dispatch on it.
type TaskKind int

const (
	KindExtraction TaskKind = iota
	KindTaxonomy
	KindCategorization
	KindAnalysis
	KindGuidance
	KindSupport
	KindRelevance
)

func (k TaskKind) String() string {
	switch k {
	case KindExtraction:
		return "extraction"
	case KindTaxonomy:
		return "taxonomy"
	case KindCategorization:
		return "categorization"
	case KindAnalysis:
		return "analysis"
	case KindGuidance:
		return "guidance"
	case KindSupport:
		return "support"
	case KindRelevance:
		return "relevance"
	default:
		return "unknown"
	}
}
