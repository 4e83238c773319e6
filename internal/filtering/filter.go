// Package filtering computes per-category percentile thresholds over the
// accepted per-paper metric values and intersects the qualifying paper sets
// across every combination of categories, one choice per metric family.
package filtering

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/dkovalov/papermine/internal/model"
)

// Value is one paper's accepted numeric result under a category.
type Value struct {
	Paper string
	Value float64
}

// Category is one induced metric variant with every value reported under it.
// Index is the category's 1-based position in its family's induced ordering
// and is what combination keys are built from.
type Category struct {
	Index           int
	Name            string
	BetterDirection string
	Values          []Value
}

// Family groups the categories induced for one metric axis.
type Family struct {
	Name       string
	Categories []Category
}

// Stats summarizes the value distribution of one category.
type Stats struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
}

// Result is the full filtering output.
type Result struct {
	// Combinations maps a combination key ("2_1" means category 2 of the
	// first family and category 1 of the second) to the sorted papers that
	// qualify under every chosen category. Empty lists are legitimate.
	Combinations map[string][]string

	// Families lists the family names in combination-key field order.
	// Families whose every category was dropped do not appear.
	Families []string

	// Stats holds per-category value summaries keyed "family/category".
	Stats map[string]Stats
}

// Select runs the filtering engine. Ratio positions the cutoff rank in the
// ascending value ordering; minCount drops categories too thin to threshold
// meaningfully (a category survives only with strictly more reporting papers).
func Select(families []Family, ratio float64, minCount int) (*Result, error) {
	if ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("retention ratio %v outside [0, 1]", ratio)
	}

	result := &Result{
		Combinations: make(map[string][]string),
		Stats:        make(map[string]Stats),
	}

	// Per family, the surviving categories with their qualifying paper sets.
	type survivor struct {
		index      int
		qualifying map[string]bool
	}
	var perFamily [][]survivor

	for _, family := range families {
		var survivors []survivor
		for _, category := range family.Categories {
			if len(category.Values) <= minCount {
				continue
			}
			statKey := family.Name + "/" + category.Name
			result.Stats[statKey] = summarize(category)
			survivors = append(survivors, survivor{
				index:      category.Index,
				qualifying: qualify(category, ratio),
			})
		}
		if len(survivors) > 0 {
			result.Families = append(result.Families, family.Name)
			perFamily = append(perFamily, survivors)
		}
	}

	if len(perFamily) == 0 {
		return result, nil
	}

	// Cartesian product over family choices, intersecting as we go.
	var walk func(depth int, key string, papers map[string]bool)
	walk = func(depth int, key string, papers map[string]bool) {
		if depth == len(perFamily) {
			result.Combinations[key] = sortedPapers(papers)
			return
		}
		for _, s := range perFamily[depth] {
			childKey := fmt.Sprintf("%d", s.index)
			if key != "" {
				childKey = key + "_" + childKey
			}
			walk(depth+1, childKey, intersect(papers, s.qualifying))
		}
	}
	walk(0, "", nil)

	return result, nil
}

// qualify computes the category's threshold and returns the papers on the
// high-performance side of it. The cutoff sits at rank floor(n*ratio) of the
// ascending ordering for "higher" categories (papers at-or-above qualify)
// and at rank floor(n*(1-ratio)) for "lower" ones (at-or-below qualify).
func qualify(category Category, ratio float64) map[string]bool {
	n := len(category.Values)
	values := make([]float64, n)
	for i, v := range category.Values {
		values[i] = v.Value
	}
	sort.Float64s(values)

	qualifying := make(map[string]bool)
	if category.BetterDirection == model.DirectionLower {
		idx := clampRank(int(float64(n)*(1-ratio)), n)
		threshold := values[idx]
		for _, v := range category.Values {
			if v.Value <= threshold {
				qualifying[v.Paper] = true
			}
		}
		return qualifying
	}

	idx := clampRank(int(float64(n)*ratio), n)
	threshold := values[idx]
	for _, v := range category.Values {
		if v.Value >= threshold {
			qualifying[v.Paper] = true
		}
	}
	return qualifying
}

func clampRank(idx, n int) int {
	if idx >= n {
		return n - 1
	}
	if idx < 0 {
		return 0
	}
	return idx
}

func summarize(category Category) Stats {
	values := make([]float64, len(category.Values))
	for i, v := range category.Values {
		values[i] = v.Value
	}
	sort.Float64s(values)

	mean, std := stat.MeanStdDev(values, nil)
	return Stats{
		Category: category.Name,
		Count:    len(values),
		Mean:     mean,
		StdDev:   std,
		Min:      values[0],
		Max:      values[len(values)-1],
		Median:   stat.Quantile(0.5, stat.Empirical, values, nil),
	}
}

// intersect narrows papers by next. A nil papers set means "everything so
// far", i.e. the first family in the walk.
func intersect(papers, next map[string]bool) map[string]bool {
	out := make(map[string]bool)
	if papers == nil {
		for p := range next {
			out[p] = true
		}
		return out
	}
	for p := range papers {
		if next[p] {
			out[p] = true
		}
	}
	return out
}

func sortedPapers(papers map[string]bool) []string {
	out := make([]string, 0, len(papers))
	for p := range papers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
