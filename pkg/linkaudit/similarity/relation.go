package similarity

import (
	"sort"
)

// Neighbor is one ranked entry of a relation.
type Neighbor struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// Relation is a source page's neighbors ordered by descending score.
type Relation []Neighbor

// NewRelation copies ns and orders it by descending score. Ties keep their
// input order, so callers that feed neighbors in page order get a
// deterministic ranking.
func NewRelation(ns []Neighbor) Relation {
	out := make(Relation, len(ns))
	copy(out, ns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Score returns the score of url within the relation.
func (r Relation) Score(url string) (float64, bool) {
	for _, n := range r {
		if n.URL == url {
			return n.Score, true
		}
	}
	return 0, false
}

// Above returns the prefix of neighbors scoring at least min.
func (r Relation) Above(min float64) Relation {
	for i, n := range r {
		if n.Score < min {
			return r[:i]
		}
	}
	return r
}

// Relations maps source URLs to their relation, remembering insertion order
// so every consumer iterates deterministically.
type Relations struct {
	order    []string
	bySource map[string]Relation
}

// NewRelations creates an empty relation set.
func NewRelations() *Relations {
	return &Relations{bySource: make(map[string]Relation)}
}

// Add sets the relation of source, ordering ns by descending score.
func (rs *Relations) Add(source string, ns ...Neighbor) {
	if _, ok := rs.bySource[source]; !ok {
		rs.order = append(rs.order, source)
	}
	rs.bySource[source] = NewRelation(ns)
}

// Get returns the relation of source.
func (rs *Relations) Get(source string) (Relation, bool) {
	r, ok := rs.bySource[source]
	return r, ok
}

// Sources returns source URLs in insertion order.
func (rs *Relations) Sources() []string {
	out := make([]string, len(rs.order))
	copy(out, rs.order)
	return out
}

// Len returns the number of sources.
func (rs *Relations) Len() int { return len(rs.order) }

// Pair is an unordered pair of similar pages, A < B.
type Pair struct {
	A     string  `json:"url_a"`
	B     string  `json:"url_b"`
	Score float64 `json:"score"`
}

// Pairs lists every related pair scoring at least minScore once, whichever
// direction it was seen from first, ordered by descending score.
func (rs *Relations) Pairs(minScore float64) []Pair {
	seen := make(map[[2]string]struct{})
	var out []Pair
	for _, src := range rs.order {
		for _, n := range rs.bySource[src].Above(minScore) {
			a, b := src, n.URL
			if a > b {
				a, b = b, a
			}
			key := [2]string{a, b}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, Pair{A: a, B: b, Score: n.Score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}
