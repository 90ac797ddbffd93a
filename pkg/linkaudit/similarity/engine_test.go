package similarity

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/cognicore/linkaudit/pkg/linkaudit/embedding"
	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
)

func samplePages() []embedding.Page {
	return []embedding.Page{
		{URL: "A", Vector: []float64{1, 0}},
		{URL: "B", Vector: []float64{0.9, 0.1}},
		{URL: "C", Vector: []float64{0, 1}},
		{URL: "D", Vector: []float64{0.5, 0.5}},
	}
}

func mustEngine(t *testing.T, pages []embedding.Page) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background(), pages, Options{Workers: 2})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestMatrixSymmetric(t *testing.T) {
	e := mustEngine(t, samplePages())
	urls := e.URLs()
	for _, a := range urls {
		for _, b := range urls {
			ab, _ := e.Score(a, b)
			ba, _ := e.Score(b, a)
			if ab != ba {
				t.Errorf("score(%s,%s)=%v != score(%s,%s)=%v", a, b, ab, b, a, ba)
			}
			if ab < -1 || ab > 1 {
				t.Errorf("score out of range: %v", ab)
			}
		}
	}
}

func TestRelationsExcludeSelfAndOrder(t *testing.T) {
	e := mustEngine(t, samplePages())
	rs, err := e.Relations(10, nil)
	if err != nil {
		t.Fatalf("Relations: %v", err)
	}
	if rs.Len() != 4 {
		t.Fatalf("expected 4 sources, got %d", rs.Len())
	}
	for _, src := range rs.Sources() {
		rel, _ := rs.Get(src)
		if len(rel) != 3 {
			t.Errorf("%s: topK above n-1 should return all others, got %d", src, len(rel))
		}
		for i, n := range rel {
			if n.URL == src {
				t.Errorf("%s appears in its own relation", src)
			}
			if i > 0 && rel[i-1].Score < n.Score {
				t.Errorf("%s: relation not descending: %+v", src, rel)
			}
		}
	}
}

func TestRelationsTopKAndIdempotence(t *testing.T) {
	e := mustEngine(t, samplePages())
	first, err := e.Relations(1, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Relations(1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Relations should be idempotent")
	}

	rel, _ := first.Get("A")
	if len(rel) != 1 || rel[0].URL != "B" {
		t.Fatalf("A's nearest should be B, got %+v", rel)
	}
	want := 0.9 / math.Sqrt(0.82)
	if math.Abs(rel[0].Score-want) > 1e-12 {
		t.Errorf("score = %v, want %v", rel[0].Score, want)
	}
}

func TestRelationsRestrictTo(t *testing.T) {
	e := mustEngine(t, samplePages())
	rs, err := e.Relations(2, []string{"C"})
	if err != nil {
		t.Fatal(err)
	}
	if rs.Len() != 1 {
		t.Fatalf("expected only C as source, got %v", rs.Sources())
	}
	rel, _ := rs.Get("C")
	if rel[0].URL != "D" {
		t.Errorf("C's nearest should be D from the full set, got %+v", rel)
	}

	if _, err := e.Relations(2, []string{"missing"}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown source, got %v", err)
	}
	if _, err := e.Relations(0, nil); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for topK=0, got %v", err)
	}
}

func TestEngineRejectsDegenerateVectors(t *testing.T) {
	pages := []embedding.Page{
		{URL: "A", Vector: []float64{1, 0}},
		{URL: "Z", Vector: []float64{0, 0}},
	}
	_, err := NewEngine(context.Background(), pages, Options{})
	if !errors.Is(err, internalerr.ErrComputation) {
		t.Fatalf("expected ErrComputation, got %v", err)
	}

	ragged := []embedding.Page{
		{URL: "A", Vector: []float64{1, 0}},
		{URL: "B", Vector: []float64{1}},
	}
	if _, err := NewEngine(context.Background(), ragged, Options{}); !errors.Is(err, internalerr.ErrComputation) {
		t.Fatalf("expected ErrComputation for ragged vectors, got %v", err)
	}
}

func TestEngineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEngine(ctx, samplePages(), Options{Workers: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTiesFollowPageOrder(t *testing.T) {
	pages := []embedding.Page{
		{URL: "A", Vector: []float64{1, 0}},
		{URL: "B", Vector: []float64{0, 1}},
		{URL: "C", Vector: []float64{0, 2}},
	}
	e := mustEngine(t, pages)
	rs, _ := e.Relations(2, []string{"A"})
	rel, _ := rs.Get("A")
	if rel[0].URL != "B" || rel[1].URL != "C" {
		t.Errorf("tied neighbors should keep page order, got %+v", rel)
	}
}
