package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/linkaudit/pkg/linkaudit"
	"github.com/cognicore/linkaudit/pkg/linkaudit/embedding"
	"github.com/cognicore/linkaudit/pkg/linkaudit/linkgraph"
	"github.com/cognicore/linkaudit/pkg/linkaudit/opportunity"
)

func TestBuilderULIDUniqueness(t *testing.T) {
	builder := New()
	ids := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		r := builder.Build(Input{}, Params{TopK: 5})
		if ids[r.ID] {
			t.Fatalf("duplicate run id %s", r.ID)
		}
		ids[r.ID] = true
		if _, err := ulid.ParseStrict(r.ID); err != nil {
			t.Fatalf("run id %q is not a ULID: %v", r.ID, err)
		}
	}
}

func TestBuildCountsAndLimits(t *testing.T) {
	var ops []opportunity.Opportunity
	for i := 0; i < 30; i++ {
		kind := opportunity.Bidirectional
		if i%3 == 0 {
			kind = opportunity.Unidirectional
		}
		ops = append(ops, opportunity.Opportunity{Source: "s", Target: "t", Score: 1 - float64(i)/100, Kind: kind})
	}
	b := New()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	r := b.Build(Input{
		Opportunities: ops,
		BrokenCount:   4,
		Themes:        []opportunity.ThemeCluster{{Theme: "Blog", Pages: 3}},
	}, Params{TopK: 5, Threshold: 0.5})

	if r.Opportunities != 30 || r.Unidirectional != 10 || r.Bidirectional != 20 {
		t.Errorf("counts = %d/%d/%d", r.Opportunities, r.Bidirectional, r.Unidirectional)
	}
	if len(r.TopOpportunities) != DefaultTopOpportunities {
		t.Errorf("top opportunities = %d", len(r.TopOpportunities))
	}
	if !r.CreatedAt.Equal(fixed) {
		t.Errorf("created at = %v", r.CreatedAt)
	}
	if len(r.Themes) != 1 || !strings.HasPrefix(r.Themes[0].Color, "#") {
		t.Errorf("themes = %+v", r.Themes)
	}
	joined := strings.Join(r.Highlights, "\n")
	if !strings.Contains(joined, "30 missing links") || !strings.Contains(joined, "4 broken links") {
		t.Errorf("highlights = %v", r.Highlights)
	}
}

func TestCollect(t *testing.T) {
	pages := []embedding.Page{
		{URL: "https://s.test/blog/a", Vector: []float64{1, 0}},
		{URL: "https://s.test/blog/b", Vector: []float64{0.9, 0.1}},
		{URL: "https://s.test/shop/c", Vector: []float64{0, 1}},
	}
	edges := []linkgraph.Edge{
		{Type: linkgraph.TypeHyperlink, From: "https://s.test/blog/a", To: "https://s.test/shop/c", StatusCode: 200, Anchor: "shop"},
	}
	s, err := linkaudit.NewSession(context.Background(), pages, edges, linkaudit.Options{})
	if err != nil {
		t.Fatal(err)
	}
	p := Params{TopK: 1, Threshold: 0.9, ThemeLevel: 1, ThemeMinScore: 0.5}
	in, err := Collect(s, p)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if in.Pages != 3 || in.Edges != 1 || len(in.Opportunities) != 2 || len(in.Similarities) != 1 {
		t.Errorf("input = %+v", in)
	}

	if _, err := Collect(s, Params{TopK: 0}); err == nil {
		t.Error("expected error for top_k 0")
	}
}
