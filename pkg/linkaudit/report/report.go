package report

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/linkaudit/pkg/linkaudit"
	"github.com/cognicore/linkaudit/pkg/linkaudit/anchors"
	"github.com/cognicore/linkaudit/pkg/linkaudit/linkgraph"
	"github.com/cognicore/linkaudit/pkg/linkaudit/opportunity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/similarity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/theme"
)

// Limits on the lists copied into a report.
const (
	DefaultTopOpportunities = 20
	DefaultUnderLinked      = 10
)

// Params are the analysis parameters of a run
type Params struct {
	TopK          int      `json:"top_k"`
	Threshold     float64  `json:"threshold"`
	ThemeLevel    int      `json:"theme_level"`
	ThemeMinScore float64  `json:"theme_min_score"`
	Sources       []string `json:"sources,omitempty"`
}

// Input is everything a report summarises
type Input struct {
	Pages         int
	Edges         int
	Opportunities []opportunity.Opportunity
	Similarities  []similarity.Pair
	Incoming      []opportunity.IncomingRow
	BrokenCount   int
	Broken        []anchors.BrokenLink
	Anchors       linkaudit.AnchorReport
	Structure     linkgraph.Structure
	Themes        []opportunity.ThemeCluster
}

// Collect runs every analysis of the session with p.
func Collect(s *linkaudit.Session, p Params) (Input, error) {
	in := Input{Pages: len(s.URLs()), Edges: len(s.Edges())}
	var err error
	if in.Opportunities, err = s.Opportunities(p.TopK, p.Threshold, p.Sources); err != nil {
		return Input{}, fmt.Errorf("opportunities: %w", err)
	}
	if in.Similarities, err = s.Similarities(p.TopK, p.Threshold, p.Sources); err != nil {
		return Input{}, fmt.Errorf("similarities: %w", err)
	}
	if in.Incoming, err = s.Incoming(p.TopK, p.Threshold); err != nil {
		return Input{}, fmt.Errorf("incoming: %w", err)
	}
	themes, err := s.Themes(p.TopK, p.ThemeLevel, p.ThemeMinScore, p.Sources)
	if err != nil {
		return Input{}, fmt.Errorf("themes: %w", err)
	}
	in.Themes = themes.Clusters
	in.BrokenCount, in.Broken = s.Broken()
	in.Anchors = s.Anchors()
	in.Structure = s.Structure().Summary
	return in, nil
}

// Builder creates reports with monotonic ULID run ids
type Builder struct {
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New creates a report builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Report is the summary of one run
type Report struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Params    Params    `json:"params"`

	Pages     int                 `json:"pages"`
	Edges     int                 `json:"edges"`
	Structure linkgraph.Structure `json:"structure"`

	Opportunities    int                       `json:"opportunities"`
	Bidirectional    int                       `json:"bidirectional"`
	Unidirectional   int                       `json:"unidirectional"`
	TopOpportunities []opportunity.Opportunity `json:"top_opportunities"`
	UnderLinked      []opportunity.IncomingRow `json:"under_linked"`

	BrokenLinks     int                  `json:"broken_links"`
	Broken          []anchors.BrokenLink `json:"broken"`
	CannibalAnchors []string             `json:"cannibal_anchors"`
	AvgAnchors      float64              `json:"avg_distinct_anchors"`

	Themes     []ThemeSummary `json:"themes"`
	Highlights []string       `json:"highlights"`
}

// ThemeSummary is one theme cluster of the report
type ThemeSummary struct {
	Theme      string `json:"theme"`
	Pages      int    `json:"pages"`
	CrossTheme int    `json:"cross_theme"`
	Color      string `json:"color"`
}

// Build summarises in.
func (b *Builder) Build(in Input, p Params) Report {
	now := b.now().UTC()
	r := Report{
		ID:              ulid.MustNew(ulid.Timestamp(now), b.entropy).String(),
		CreatedAt:       now,
		Params:          p,
		Pages:           in.Pages,
		Edges:           in.Edges,
		Structure:       in.Structure,
		Opportunities:   len(in.Opportunities),
		BrokenLinks:     in.BrokenCount,
		Broken:          in.Broken,
		CannibalAnchors: in.Anchors.Cannibals,
		AvgAnchors:      in.Anchors.Distribution.AvgDistinct,
	}

	for _, o := range in.Opportunities {
		if o.Kind == opportunity.Bidirectional {
			r.Bidirectional++
		} else {
			r.Unidirectional++
		}
	}
	r.TopOpportunities = head(in.Opportunities, DefaultTopOpportunities)
	r.UnderLinked = head(in.Incoming, DefaultUnderLinked)

	for _, c := range in.Themes {
		r.Themes = append(r.Themes, ThemeSummary{
			Theme:      c.Theme,
			Pages:      c.Pages,
			CrossTheme: c.CrossTheme,
			Color:      theme.Color(c.Theme),
		})
	}

	r.Highlights = highlights(r)
	return r
}

func head[T any](xs []T, n int) []T {
	if len(xs) > n {
		xs = xs[:n]
	}
	return append([]T(nil), xs...)
}

func highlights(r Report) []string {
	out := []string{
		fmt.Sprintf("%d pages, %d links, %.2f links per page", r.Structure.TotalPages, r.Structure.TotalLinks, r.Structure.AvgLinksPerPage),
		fmt.Sprintf("%d missing links (%d bidirectional, %d unidirectional)", r.Opportunities, r.Bidirectional, r.Unidirectional),
	}
	if r.Structure.OrphanPages > 0 {
		out = append(out, fmt.Sprintf("%d pages without outgoing links", r.Structure.OrphanPages))
	}
	if r.BrokenLinks > 0 {
		out = append(out, fmt.Sprintf("%d broken links", r.BrokenLinks))
	}
	if n := len(r.CannibalAnchors); n > 0 {
		out = append(out, fmt.Sprintf("%d anchors point to several pages", n))
	}
	return out
}
