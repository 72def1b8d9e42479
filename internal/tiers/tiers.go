// Package tiers ranks functions into importance buckets from weighted call
// counts.
package tiers

import (
	"sort"

	"github.com/codegraph-hq/codegraph/internal/calls"
	"github.com/codegraph-hq/codegraph/internal/extractor"
)

// Tier is one of six ordinal importance buckets, S highest
type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
	TierF Tier = "F"
)

// score weights
const (
	exportedBonus   = 2.0
	entryPointBonus = 5.0
	hookMultiplier  = 1.2
	ctorBonus       = 1.0
)

// Item is one ranked function
type Item struct {
	Name          string  `json:"name"`
	QualifiedName string  `json:"qualified_name"`
	File          string  `json:"file"`
	NodeID        string  `json:"node_id,omitempty"`
	Kind          string  `json:"kind"`
	StartLine     int     `json:"start_line"`
	Score         float64 `json:"score"`
	Tier          Tier    `json:"tier"`
	Percentile    float64 `json:"percentile"`
	InternalCalls int     `json:"internal_calls"`
	ExternalCalls int     `json:"external_calls"`
}

// Stats summarizes one tiering run. TierCounts always sums to
// TotalFunctions.
type Stats struct {
	TotalFunctions int          `json:"total_functions"`
	TotalCalls     int          `json:"total_calls"`
	TierCounts     map[Tier]int `json:"tier_counts"`
	TopFunctions   []Item       `json:"top_functions"`
}

// Report is the full tiering output, computed fresh per analysis run
type Report struct {
	Items []Item `json:"items"`
	Stats Stats  `json:"stats"`
}

// Calculate scores every function, ranks by percentile and buckets into
// tiers. nodeIDs maps file paths to graph node ids and may be nil.
func Calculate(files []*extractor.FileFacts, resolved []calls.ResolvedCall, nodeIDs map[string]string) *Report {
	items := make([]Item, 0)
	// (file, simple name) -> item indexes; a name can repeat within a file
	byFileName := make(map[string][]int)
	// simple name -> item indexes across all files
	byName := make(map[string][]int)

	for _, f := range files {
		for _, fn := range f.Functions {
			idx := len(items)
			items = append(items, Item{
				Name:          fn.Name,
				QualifiedName: fn.QualifiedName,
				File:          fn.File,
				NodeID:        nodeIDs[fn.File],
				Kind:          string(fn.Kind),
				StartLine:     fn.StartLine,
			})
			byFileName[fn.File+"\x00"+fn.Name] = append(byFileName[fn.File+"\x00"+fn.Name], idx)
			byName[fn.Name] = append(byName[fn.Name], idx)
		}
	}

	// attribute calls: resolved calls count toward the target file's
	// definition; external calls with a matching name are tracked per
	// candidate but never scored
	for _, rc := range resolved {
		switch rc.Origin {
		case extractor.OriginLocal, extractor.OriginInternal:
			for _, idx := range byFileName[rc.TargetFile+"\x00"+rc.Site.Callee] {
				items[idx].InternalCalls++
			}
		case extractor.OriginExternal:
			for _, idx := range byName[rc.Site.Callee] {
				items[idx].ExternalCalls++
			}
		}
	}

	// scoring
	flagsByIndex := make([]extractor.FunctionDefinition, 0, len(items))
	for _, f := range files {
		flagsByIndex = append(flagsByIndex, f.Functions...)
	}
	for i := range items {
		fn := flagsByIndex[i]
		score := float64(items[i].InternalCalls)
		if fn.Exported {
			score += exportedBonus
		}
		if fn.EntryPoint {
			score += entryPointBonus
		}
		if fn.Kind == extractor.FunctionHook {
			score *= hookMultiplier
		}
		if fn.Kind == extractor.FunctionConstructor {
			score += ctorBonus
		}
		items[i].Score = score
	}

	// rank by score descending; stable sort keeps input order on ties
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].Score > items[order[b]].Score
	})

	total := len(items)
	for rank, idx := range order {
		denom := total - 1
		if denom < 1 {
			denom = 1
		}
		pct := 100.0 * float64(total-rank-1) / float64(denom)
		items[idx].Percentile = pct
		items[idx].Tier = tierFor(pct, items[idx].Score)
	}

	// emit in rank order
	ranked := make([]Item, 0, total)
	for _, idx := range order {
		ranked = append(ranked, items[idx])
	}

	stats := Stats{
		TotalFunctions: total,
		TotalCalls:     len(resolved),
		TierCounts:     make(map[Tier]int),
	}
	for _, it := range ranked {
		stats.TierCounts[it.Tier]++
	}
	stats.TopFunctions = topByInternalCalls(items, 5)

	return &Report{Items: ranked, Stats: stats}
}

// tierFor buckets a percentile, with the zero-score floor: a score of
// exactly zero is always F, whatever the percentile says
func tierFor(percentile, score float64) Tier {
	if score == 0 {
		return TierF
	}
	switch {
	case percentile >= 95:
		return TierS
	case percentile >= 80:
		return TierA
	case percentile >= 50:
		return TierB
	case percentile >= 20:
		return TierC
	case percentile >= 5:
		return TierD
	default:
		return TierF
	}
}

// topByInternalCalls returns the n items with the most internal calls, ties
// broken by input order
func topByInternalCalls(items []Item, n int) []Item {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].InternalCalls > items[order[b]].InternalCalls
	})
	if n > len(order) {
		n = len(order)
	}
	top := make([]Item, 0, n)
	for _, idx := range order[:n] {
		top = append(top, items[idx])
	}
	return top
}
