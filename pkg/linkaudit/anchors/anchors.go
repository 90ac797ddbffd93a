package anchors

import (
	"sort"

	"github.com/cognicore/linkaudit/pkg/linkaudit/linkgraph"
)

// Anchor is one distinct anchor text pointing at a target.
type Anchor struct {
	Text     string `json:"text"`
	Sources  int    `json:"sources"`  // distinct pages using this anchor for the target
	Cannibal bool   `json:"cannibal"` // the same text reaches another target elsewhere
}

// Profile describes the anchors used to reach one target page.
type Profile struct {
	URL     string   `json:"url"`
	Anchors []Anchor `json:"anchors"` // sorted by text
}

// Distinct returns the number of distinct anchor texts.
func (p *Profile) Distinct() int { return len(p.Anchors) }

// Cannibalized returns the anchor texts flagged as cannibal.
func (p *Profile) Cannibalized() []string {
	var out []string
	for _, a := range p.Anchors {
		if a.Cannibal {
			out = append(out, a.Text)
		}
	}
	return out
}

// Annotate flags anchors present in the cannibal set.
func (p *Profile) Annotate(cannibals map[string]struct{}) {
	for i := range p.Anchors {
		_, p.Anchors[i].Cannibal = cannibals[p.Anchors[i].Text]
	}
}

type triple struct {
	from, to, anchor string
}

// BuildProfiles builds per-target anchor profiles from distinct (from, to, anchor)
// triples, so repeated identical edges count once.
func BuildProfiles(edges []linkgraph.Edge) map[string]*Profile {
	seen := make(map[triple]struct{})
	sources := make(map[string]map[string]map[string]struct{}) // to -> anchor -> from
	for _, e := range edges {
		k := triple{e.From, e.To, e.Anchor}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		if sources[e.To] == nil {
			sources[e.To] = make(map[string]map[string]struct{})
		}
		if sources[e.To][e.Anchor] == nil {
			sources[e.To][e.Anchor] = make(map[string]struct{})
		}
		sources[e.To][e.Anchor][e.From] = struct{}{}
	}

	profiles := make(map[string]*Profile, len(sources))
	for to, byAnchor := range sources {
		p := &Profile{URL: to, Anchors: make([]Anchor, 0, len(byAnchor))}
		for text, froms := range byAnchor {
			p.Anchors = append(p.Anchors, Anchor{Text: text, Sources: len(froms)})
		}
		sort.Slice(p.Anchors, func(i, j int) bool { return p.Anchors[i].Text < p.Anchors[j].Text })
		profiles[to] = p
	}
	return profiles
}

// CannibalAnchors returns anchor texts used, anywhere in the dataset, to
// reach more than one distinct target. Empty anchors are never flagged.
func CannibalAnchors(edges []linkgraph.Edge) map[string]struct{} {
	targets := make(map[string]map[string]struct{})
	for _, e := range edges {
		if e.Anchor == "" {
			continue
		}
		if targets[e.Anchor] == nil {
			targets[e.Anchor] = make(map[string]struct{})
		}
		targets[e.Anchor][e.To] = struct{}{}
	}
	out := make(map[string]struct{})
	for text, tos := range targets {
		if len(tos) > 1 {
			out[text] = struct{}{}
		}
	}
	return out
}

// Analyze builds the profiles and flags cannibal anchors in one pass.
func Analyze(edges []linkgraph.Edge) (map[string]*Profile, map[string]struct{}) {
	profiles := BuildProfiles(edges)
	cannibals := CannibalAnchors(edges)
	for _, p := range profiles {
		p.Annotate(cannibals)
	}
	return profiles, cannibals
}
