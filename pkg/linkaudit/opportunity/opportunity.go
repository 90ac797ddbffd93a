package opportunity

import (
	"sort"

	"github.com/cognicore/linkaudit/pkg/linkaudit/linkgraph"
	"github.com/cognicore/linkaudit/pkg/linkaudit/similarity"
)

// Kind classifies a missing link.
type Kind string

const (
	// Bidirectional: neither page links to the other.
	Bidirectional Kind = "bidirectional"
	// Unidirectional: the target already links back to the source.
	Unidirectional Kind = "unidirectional"
)

// Opportunity is a similar page pair lacking the source -> target link.
type Opportunity struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Score  float64 `json:"score"`
	Kind   Kind    `json:"kind"`
}

// Find lists, for each source (sourceFilter, or every source of relations),
// the similar targets scoring at least threshold that the source does not
// link to yet. Classification looks at the current adjacency only.
func Find(relations *similarity.Relations, adj linkgraph.Adjacency, threshold float64, sourceFilter []string) []Opportunity {
	sources := sourceFilter
	if len(sources) == 0 {
		sources = relations.Sources()
	}

	var out []Opportunity
	for _, src := range sources {
		rel, ok := relations.Get(src)
		if !ok {
			continue
		}
		for _, n := range rel {
			if n.Score < threshold || n.URL == src {
				continue
			}
			if adj.Has(src, n.URL) {
				continue
			}
			kind := Bidirectional
			if adj.Has(n.URL, src) {
				kind = Unidirectional
			}
			out = append(out, Opportunity{Source: src, Target: n.URL, Score: n.Score, Kind: kind})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// IncomingRow compares the links a page receives with those recommended.
type IncomingRow struct {
	URL         string `json:"url"`
	Existing    int    `json:"existing"` // distinct linking sources
	Recommended int    `json:"recommended"`
}

// AnalyzeIncoming counts, for every page of allURLs, its existing incoming
// links and how many links similarity suggests for it. A pair scoring at
// least threshold with no link in either direction adds one to both pages.
// Rows come back least linked first, then most recommended.
func AnalyzeIncoming(adj linkgraph.Adjacency, relations *similarity.Relations, allURLs []string, threshold float64) []IncomingRow {
	existing := linkgraph.CountIncoming(adj, allURLs)
	recommended := make(map[string]int, len(allURLs))
	for _, u := range allURLs {
		recommended[u] = 0
	}

	for _, src := range relations.Sources() {
		rel, _ := relations.Get(src)
		for _, n := range rel.Above(threshold) {
			if n.URL == src {
				continue
			}
			if adj.Linked(src, n.URL) {
				continue
			}
			for _, u := range [2]string{src, n.URL} {
				if _, ok := recommended[u]; ok {
					recommended[u]++
				}
			}
		}
	}

	rows := make([]IncomingRow, 0, len(existing))
	seen := make(map[string]struct{}, len(allURLs))
	for _, u := range allURLs {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		rows = append(rows, IncomingRow{URL: u, Existing: existing[u], Recommended: recommended[u]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Existing != rows[j].Existing {
			return rows[i].Existing < rows[j].Existing
		}
		if rows[i].Recommended != rows[j].Recommended {
			return rows[i].Recommended > rows[j].Recommended
		}
		return rows[i].URL < rows[j].URL
	})
	return rows
}
