package linkgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
)

// Defaults for PageRank.
const (
	DefaultDamping   = 0.85
	DefaultTolerance = 1e-6
)

// PageRank estimates internal link equity over the hyperlink adjacency.
// Every page of allURLs gets a score, linked or not; link targets outside
// the page set take part in the walk but are not reported.
func PageRank(adj Adjacency, allURLs []string, damping, tolerance float64) map[string]float64 {
	if damping <= 0 || damping >= 1 {
		damping = DefaultDamping
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	g := simple.NewDirectedGraph()
	ids := make(map[string]int64)
	node := func(u string) simple.Node {
		id, ok := ids[u]
		if !ok {
			id = int64(len(ids))
			ids[u] = id
			g.AddNode(simple.Node(id))
		}
		return simple.Node(id)
	}

	for _, u := range allURLs {
		node(u)
	}
	for _, src := range adj.Sources() {
		from := node(src)
		for _, dst := range adj.Targets(src) {
			if dst == src {
				continue
			}
			g.SetEdge(simple.Edge{F: from, T: node(dst)})
		}
	}

	out := make(map[string]float64, len(allURLs))
	if len(ids) == 0 {
		return out
	}
	ranks := network.PageRank(g, damping, tolerance)
	for _, u := range allURLs {
		out[u] = ranks[ids[u]]
	}
	return out
}

// PageScore is one page's PageRank.
type PageScore struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// RankPages orders ranks by descending score, then URL.
func RankPages(ranks map[string]float64) []PageScore {
	out := make([]PageScore, 0, len(ranks))
	for u, s := range ranks {
		out = append(out, PageScore{URL: u, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].URL < out[j].URL
	})
	return out
}
