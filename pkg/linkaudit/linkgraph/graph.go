package linkgraph

import (
	"sort"
)

// Adjacency maps a source page to the distinct pages it links to.
type Adjacency map[string]map[string]struct{}

// Build keeps hyperlinks only, drops self-loops and collapses duplicates.
func Build(edges []Edge) Adjacency {
	adj := make(Adjacency)
	for _, e := range edges {
		if !e.IsHyperlink() || e.SelfLoop() {
			continue
		}
		adj.Add(e.From, e.To)
	}
	return adj
}

// Add records a link from -> to.
func (a Adjacency) Add(from, to string) {
	set, ok := a[from]
	if !ok {
		set = make(map[string]struct{})
		a[from] = set
	}
	set[to] = struct{}{}
}

// Has reports whether from links to to.
func (a Adjacency) Has(from, to string) bool {
	_, ok := a[from][to]
	return ok
}

// Linked reports whether a link exists in either direction.
func (a Adjacency) Linked(x, y string) bool {
	return a.Has(x, y) || a.Has(y, x)
}

// Targets returns the sorted link targets of from.
func (a Adjacency) Targets(from string) []string {
	return sortedKeys(a[from])
}

// Sources returns the sorted pages that have outgoing links.
func (a Adjacency) Sources() []string {
	out := make([]string, 0, len(a))
	for src := range a {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

// CountIncoming counts distinct linking sources for each page of allURLs.
// Links to pages outside allURLs are ignored.
func CountIncoming(adj Adjacency, allURLs []string) map[string]int {
	counts := make(map[string]int, len(allURLs))
	for _, u := range allURLs {
		counts[u] = 0
	}
	for _, targets := range adj {
		for to := range targets {
			if _, ok := counts[to]; ok {
				counts[to]++
			}
		}
	}
	return counts
}

// OutgoingCount returns the number of distinct targets per source.
func OutgoingCount(adj Adjacency) map[string]int {
	out := make(map[string]int, len(adj))
	for src, targets := range adj {
		out[src] = len(targets)
	}
	return out
}

// PageCount pairs a page with a link count.
type PageCount struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// Distribution lists outgoing link counts, largest first.
func Distribution(adj Adjacency) []PageCount {
	out := make([]PageCount, 0, len(adj))
	for src, targets := range adj {
		out = append(out, PageCount{URL: src, Count: len(targets)})
	}
	sortPageCounts(out, false)
	return out
}

// OrphanPages returns pages of allURLs with no recorded outgoing links,
// preserving page order.
func OrphanPages(adj Adjacency, allURLs []string) []string {
	var out []string
	for _, u := range allURLs {
		if _, ok := adj[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}

func sortPageCounts(pcs []PageCount, ascending bool) {
	sort.Slice(pcs, func(i, j int) bool {
		if pcs[i].Count != pcs[j].Count {
			if ascending {
				return pcs[i].Count < pcs[j].Count
			}
			return pcs[i].Count > pcs[j].Count
		}
		return pcs[i].URL < pcs[j].URL
	})
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
