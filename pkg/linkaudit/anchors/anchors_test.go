package anchors

import (
	"reflect"
	"testing"

	"github.com/cognicore/linkaudit/pkg/linkaudit/linkgraph"
)

func edge(from, to, anchor string, code int) linkgraph.Edge {
	return linkgraph.Edge{Type: linkgraph.TypeHyperlink, From: from, To: to, Anchor: anchor, StatusCode: code}
}

func TestCannibalAnchors(t *testing.T) {
	edges := []linkgraph.Edge{
		edge("p1", "A", "home", 200),
		edge("p2", "B", "home", 200),
		edge("p3", "A", "shop", 200),
		edge("p4", "A", "shop", 200),
		edge("p5", "A", "", 200),
		edge("p6", "B", "", 200),
	}
	got := CannibalAnchors(edges)
	if _, ok := got["home"]; !ok {
		t.Error("home reaches 2 targets and should be cannibal")
	}
	if _, ok := got["shop"]; ok {
		t.Error("shop reaches 1 target and should not be cannibal")
	}
	if _, ok := got[""]; ok {
		t.Error("empty anchors are never cannibal")
	}
}

func TestProfilesCollapseDuplicates(t *testing.T) {
	edges := []linkgraph.Edge{
		edge("p1", "A", "home", 200),
		edge("p1", "A", "home", 200),
		edge("p2", "A", "home", 200),
		edge("p1", "A", "shop", 200),
		edge("p1", "B", "home", 200),
	}
	profiles, cannibals := Analyze(edges)

	a := profiles["A"]
	if a.Distinct() != 2 {
		t.Fatalf("expected 2 distinct anchors, got %+v", a.Anchors)
	}
	want := []Anchor{
		{Text: "home", Sources: 2, Cannibal: true},
		{Text: "shop", Sources: 1, Cannibal: false},
	}
	if !reflect.DeepEqual(a.Anchors, want) {
		t.Errorf("anchors = %+v, want %+v", a.Anchors, want)
	}
	if got := a.Cannibalized(); !reflect.DeepEqual(got, []string{"home"}) {
		t.Errorf("Cannibalized = %v", got)
	}
	if len(cannibals) != 1 {
		t.Errorf("cannibals = %v", cannibals)
	}
}

func TestBrokenLinks(t *testing.T) {
	edges := []linkgraph.Edge{
		edge("a", "X", "", 404),
		edge("b", "X", "", 404),
		edge("c", "X", "", 404),
		edge("d", "X", "", 500),
		edge("e", "Y", "", 301),
		edge("f", "Z", "", 200),
	}
	count, rows := BrokenLinks(edges)
	if count != 4 {
		t.Fatalf("count = %d, want 4", count)
	}
	want := []BrokenLink{
		{To: "X", StatusCode: 404, Count: 3, Description: "Page not found"},
		{To: "X", StatusCode: 500, Count: 1, Description: "Internal server error"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}
}

func TestStatusTextFallback(t *testing.T) {
	if got := StatusText(418); got != "Error 418" {
		t.Errorf("StatusText(418) = %q", got)
	}
}

func TestSummarizeDistribution(t *testing.T) {
	var edges []linkgraph.Edge
	for i := 0; i < 8; i++ {
		edges = append(edges, edge("p", "wide", string(rune('a'+i)), 200))
	}
	edges = append(edges, edge("p", "narrow", "only", 200))
	edges = append(edges, edge("q", "narrow2", "only", 200))

	d := Summarize(BuildProfiles(edges))
	if d.AvgDistinct != 10.0/3 {
		t.Errorf("AvgDistinct = %v", d.AvgDistinct)
	}
	if d.Buckets[BucketLow] != 2 || d.Buckets[BucketMedium] != 1 || d.Buckets[BucketHigh] != 0 {
		t.Errorf("Buckets = %v", d.Buckets)
	}
	wantHist := []DistinctCount{{1, 2, BucketLow}, {8, 1, BucketMedium}}
	if !reflect.DeepEqual(d.Histogram, wantHist) {
		t.Errorf("Histogram = %+v", d.Histogram)
	}
	if top := d.Top(1); len(top) != 1 || top[0].URL != "wide" {
		t.Errorf("Top(1) = %+v", top)
	}
	if DiversityBucket(11) != BucketHigh {
		t.Error("11 anchors should be in the 11+ bucket")
	}
}
