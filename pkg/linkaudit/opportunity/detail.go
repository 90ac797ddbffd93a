package opportunity

import (
	"sort"

	"github.com/cognicore/linkaudit/pkg/linkaudit/anchors"
	"github.com/cognicore/linkaudit/pkg/linkaudit/linkgraph"
	"github.com/cognicore/linkaudit/pkg/linkaudit/similarity"
)

// Direction tells which relation suggested a detail opportunity.
type Direction string

const (
	// Incoming: the other page lists this URL among its similar pages.
	Incoming Direction = "incoming"
	// Outgoing: this URL lists the other page among its similar pages.
	Outgoing Direction = "outgoing"
)

// SourceLink is one page linking to the detailed URL.
type SourceLink struct {
	Source   string  `json:"source"`
	Anchor   string  `json:"anchor"`
	Score    float64 `json:"score"`
	HasScore bool    `json:"has_score"`
}

// Suggestion is a similar page around the detailed URL.
type Suggestion struct {
	URL       string    `json:"url"`
	Score     float64   `json:"score"`
	Direction Direction `json:"direction"`
	Exists    bool      `json:"exists"` // a link already exists in either direction
}

// URLDetail gathers everything known about one target page.
type URLDetail struct {
	URL             string           `json:"url"`
	TotalIncoming   int              `json:"total_incoming"` // raw incoming edges
	DistinctSources int              `json:"distinct_sources"`
	Anchors         []anchors.Anchor `json:"anchors"`
	CannibalAnchors []string         `json:"cannibal_anchors"`
	Sources         []SourceLink     `json:"sources"`
	Suggestions     []Suggestion     `json:"suggestions"`
}

// DistinctAnchors returns the number of distinct anchors reaching the URL.
func (d URLDetail) DistinctAnchors() int { return len(d.Anchors) }

// Detail aggregates incoming links, anchors and similarity suggestions for
// url. Suggestions come from both directions; when a page is suggested from
// both sides with different scores the higher score is kept.
func Detail(url string, edges []linkgraph.Edge, profiles map[string]*anchors.Profile,
	relations *similarity.Relations, adj linkgraph.Adjacency) URLDetail {
	d := URLDetail{URL: url}

	if p, ok := profiles[url]; ok {
		d.Anchors = append(d.Anchors, p.Anchors...)
		d.CannibalAnchors = p.Cannibalized()
	}

	type sourceKey struct{ from, anchor string }
	seenSource := make(map[sourceKey]struct{})
	distinct := make(map[string]struct{})
	for _, e := range edges {
		if e.To != url {
			continue
		}
		d.TotalIncoming++
		distinct[e.From] = struct{}{}
		k := sourceKey{e.From, e.Anchor}
		if _, ok := seenSource[k]; ok {
			continue
		}
		seenSource[k] = struct{}{}
		score, ok := pairScore(relations, e.From, url)
		d.Sources = append(d.Sources, SourceLink{Source: e.From, Anchor: e.Anchor, Score: score, HasScore: ok})
	}
	d.DistinctSources = len(distinct)
	sort.SliceStable(d.Sources, func(i, j int) bool {
		a, b := d.Sources[i], d.Sources[j]
		if a.HasScore != b.HasScore {
			return a.HasScore
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Anchor < b.Anchor
	})

	best := make(map[string]Suggestion)
	consider := func(other string, score float64, dir Direction) {
		if other == url {
			return
		}
		if cur, ok := best[other]; ok && cur.Score >= score {
			return
		}
		best[other] = Suggestion{URL: other, Score: score, Direction: dir, Exists: adj.Linked(url, other)}
	}
	for _, src := range relations.Sources() {
		if src == url {
			continue
		}
		rel, _ := relations.Get(src)
		if s, ok := rel.Score(url); ok {
			consider(src, s, Incoming)
		}
	}
	if rel, ok := relations.Get(url); ok {
		for _, n := range rel {
			consider(n.URL, n.Score, Outgoing)
		}
	}

	for _, s := range best {
		d.Suggestions = append(d.Suggestions, s)
	}
	sort.Slice(d.Suggestions, func(i, j int) bool {
		if d.Suggestions[i].Score != d.Suggestions[j].Score {
			return d.Suggestions[i].Score > d.Suggestions[j].Score
		}
		return d.Suggestions[i].URL < d.Suggestions[j].URL
	})
	return d
}

// pairScore looks the pair up in both directions, preferring the higher score.
func pairScore(relations *similarity.Relations, a, b string) (float64, bool) {
	var best float64
	found := false
	if rel, ok := relations.Get(a); ok {
		if s, ok := rel.Score(b); ok {
			best, found = s, true
		}
	}
	if rel, ok := relations.Get(b); ok {
		if s, ok := rel.Score(a); ok && (!found || s > best) {
			best, found = s, true
		}
	}
	return best, found
}
