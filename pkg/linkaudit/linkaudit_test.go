package linkaudit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/linkaudit/pkg/linkaudit/filter"
	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/metrics"
	"github.com/cognicore/linkaudit/pkg/linkaudit/opportunity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/table"
)

const (
	pageA = "https://s.test/blog/a"
	pageB = "https://s.test/blog/b"
	pageC = "https://s.test/shop/c"
)

const embeddingsCSV = `URL,Embeddings
https://s.test/blog/a,"[1, 0]"
https://s.test/blog/b,"[0.9, 0.1]"
https://s.test/shop/c,"[0, 1]"
`

const linksCSV = `Type,From,To,Status Code,Anchor Text
Hyperlink,https://s.test/blog/a,https://s.test/shop/c,200,shop
Hyperlink,https://s.test/shop/c,https://s.test/blog/b,200,read
Hyperlink,https://s.test/shop/c,https://s.test/blog/a,200,read
Hyperlink,https://s.test/blog/b,https://s.test/gone,404,old
`

func openSession(t *testing.T) *Session {
	t.Helper()
	dir := t.TempDir()
	emb := filepath.Join(dir, "embeddings.csv")
	links := filepath.Join(dir, "links.csv")
	if err := os.WriteFile(emb, []byte(embeddingsCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(links, []byte(linksCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(context.Background(), emb, links, Options{Workers: 2, Metrics: metrics.New()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestSessionOpportunities(t *testing.T) {
	s := openSession(t)
	if got := len(s.URLs()); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}

	ops, err := s.Opportunities(1, 0.9, nil)
	if err != nil {
		t.Fatalf("Opportunities: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected the a/b pair in both directions, got %+v", ops)
	}
	for _, o := range ops {
		if o.Kind != opportunity.Bidirectional {
			t.Errorf("%s -> %s should be bidirectional", o.Source, o.Target)
		}
		if o.Source == pageC || o.Target == pageC {
			t.Errorf("unexpected opportunity involving c: %+v", o)
		}
	}

	only, err := s.Opportunities(1, 0.9, []string{pageA})
	if err != nil {
		t.Fatal(err)
	}
	if len(only) != 1 || only[0].Source != pageA || only[0].Target != pageB {
		t.Errorf("filtered opportunities = %+v", only)
	}
}

func TestSessionRelationCache(t *testing.T) {
	s := openSession(t)
	r1, err := s.Relations(2, nil)
	if err != nil {
		t.Fatal(err)
	}
	r2, _ := s.Relations(2, nil)
	if r1 != r2 {
		t.Error("expected cached relations for identical parameters")
	}
	f1, _ := s.Relations(2, []string{pageB, pageA})
	f2, _ := s.Relations(2, []string{pageA, pageB})
	if f1 != f2 {
		t.Error("filter order should not defeat the cache")
	}

	if _, err := s.Relations(0, nil); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("topK 0: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.Relations(1, []string{"https://s.test/nope"}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("unknown filter url: expected ErrInvalidInput, got %v", err)
	}
}

func TestSessionDetail(t *testing.T) {
	s := openSession(t)
	if _, err := s.Detail("https://s.test/unknown", 2); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	d, err := s.Detail("https://s.test/gone", 2)
	if err != nil {
		t.Fatalf("link targets are valid detail urls: %v", err)
	}
	if d.TotalIncoming != 1 {
		t.Errorf("gone incoming = %d", d.TotalIncoming)
	}

	d, err = s.Detail(pageA, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.CannibalAnchors) != 1 || d.CannibalAnchors[0] != "read" {
		t.Errorf("cannibal anchors = %v", d.CannibalAnchors)
	}
}

func TestSessionReports(t *testing.T) {
	s := openSession(t)

	count, broken := s.Broken()
	if count != 1 || len(broken) != 1 || broken[0].StatusCode != 404 {
		t.Errorf("broken = %d %+v", count, broken)
	}

	a := s.Anchors()
	if len(a.Cannibals) != 1 || a.Cannibals[0] != "read" {
		t.Errorf("cannibals = %v", a.Cannibals)
	}

	st := s.Structure()
	if st.Summary.TotalPages != 3 || st.Summary.PagesWithLinks != 3 {
		t.Errorf("summary = %+v", st.Summary)
	}
	if len(st.PageRank) != 3 {
		t.Errorf("pagerank = %+v", st.PageRank)
	}

	themes, err := s.Themes(2, 1, 0.5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(themes.Clusters) != 1 || themes.Clusters[0].Theme != "Blog" {
		t.Errorf("clusters = %+v", themes.Clusters)
	}

	rows, err := s.Incoming(1, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("incoming rows = %+v", rows)
	}
}

func TestRelationCacheIsBounded(t *testing.T) {
	s := openSession(t)
	clamped, err := s.Relations(5000, nil)
	if err != nil {
		t.Fatal(err)
	}
	if full, _ := s.Relations(2, nil); full != clamped {
		t.Error("topK above the page count should share the clamped entry")
	}
	for k := 1; k <= 5000; k++ {
		if _, err := s.Relations(k, nil); err != nil {
			t.Fatalf("Relations(%d): %v", k, err)
		}
	}
	if n := s.cache.Len(); n != 2 {
		t.Errorf("expected 2 cache entries (k=1, k=2), got %d", n)
	}

	small, err := NewSession(context.Background(), s.pages, s.edges, Options{CacheSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	for _, restrict := range [][]string{{pageA}, {pageB}, {pageC}, {pageA, pageB}, nil} {
		if _, err := small.Relations(1, restrict); err != nil {
			t.Fatal(err)
		}
	}
	if n := small.cache.Len(); n != 2 {
		t.Errorf("cache should hold at most 2 entries, got %d", n)
	}
}

func TestThemesFollowSourceFilter(t *testing.T) {
	s := openSession(t)
	report, err := s.Themes(2, 1, 0.5, []string{pageA})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Rows) != 1 || report.Rows[0].URL != pageA {
		t.Errorf("expected only the selected page, got %+v", report.Rows)
	}
}

func TestOpenWithoutLinks(t *testing.T) {
	emb := filepath.Join(t.TempDir(), "embeddings.csv")
	if err := os.WriteFile(emb, []byte(embeddingsCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(context.Background(), emb, "", Options{})
	if err != nil {
		t.Fatalf("Open without links: %v", err)
	}
	if len(s.Edges()) != 0 {
		t.Fatalf("expected no edges, got %d", len(s.Edges()))
	}

	ops, err := s.Opportunities(1, 0.9, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 2 {
		t.Errorf("expected A->B and B->A, got %+v", ops)
	}
	for _, o := range ops {
		if o.Kind != opportunity.Bidirectional {
			t.Errorf("unlinked pair should be bidirectional: %+v", o)
		}
	}
	if count, links := s.Broken(); count != 0 || len(links) != 0 {
		t.Errorf("broken = %d %v", count, links)
	}
	if a := s.Anchors(); len(a.Profiles) != 0 || len(a.Cannibals) != 0 {
		t.Errorf("anchors = %+v", a)
	}
	if st := s.Structure(); st.Summary.TotalPages != 3 || st.Summary.PagesWithLinks != 0 {
		t.Errorf("structure = %+v", st.Summary)
	}
	if _, err := s.Themes(2, 1, 0.5, nil); err != nil {
		t.Errorf("themes: %v", err)
	}
}

func TestSelectURLs(t *testing.T) {
	s := openSession(t)
	got, err := s.SelectURLs(filter.Criteria{IncludeExact: []string{"blog"}}, "")
	if err != nil || len(got) != 2 {
		t.Errorf("blog pages = %v, %v", got, err)
	}
	got, err = s.SelectURLs(filter.Criteria{}, "([")
	if !errors.Is(err, internalerr.ErrInvalidFilter) || len(got) != 3 {
		t.Errorf("invalid regex should keep all pages: %v, %v", got, err)
	}
}

func TestLoadEmbeddingsMissingColumn(t *testing.T) {
	tbl := table.New("embeddings", []string{"URL", "Vector"}, [][]string{{pageA, "[1]"}})
	_, err := LoadEmbeddings(tbl)
	var colErr *internalerr.ColumnError
	if !errors.As(err, &colErr) {
		t.Fatalf("expected ColumnError, got %v", err)
	}
}
