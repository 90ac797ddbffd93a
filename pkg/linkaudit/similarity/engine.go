package similarity

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/linkaudit/pkg/linkaudit/embedding"
	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
)

// Options tunes matrix construction.
type Options struct {
	// Workers bounds the number of rows computed concurrently.
	// Zero means GOMAXPROCS.
	Workers int
}

// Engine holds the all-pairs cosine similarity matrix of a page set.
// It is immutable once NewEngine returns.
type Engine struct {
	urls   []string
	index  map[string]int
	matrix [][]float64
}

// NewEngine computes the full similarity matrix. Rows are independent and
// built in parallel; the engine is only returned after every row completes.
func NewEngine(ctx context.Context, pages []embedding.Page, opts Options) (*Engine, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to compare: %w", internalerr.ErrInvalidInput)
	}
	if err := embedding.CheckDimensions(pages); err != nil {
		return nil, err
	}

	n := len(pages)
	e := &Engine{
		urls:   make([]string, n),
		index:  make(map[string]int, n),
		matrix: make([][]float64, n),
	}
	norms := make([]float64, n)
	for i, p := range pages {
		if _, dup := e.index[p.URL]; dup {
			return nil, fmt.Errorf("duplicate page %s: %w", p.URL, internalerr.ErrInvalidInput)
		}
		e.urls[i] = p.URL
		e.index[p.URL] = i
		norms[i] = norm(p.Vector)
		if norms[i] == 0 || math.IsNaN(norms[i]) || math.IsInf(norms[i], 0) {
			return nil, fmt.Errorf("embedding of %s has no usable magnitude: %w", p.URL, internalerr.ErrComputation)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := make([]float64, n)
			for j := range pages {
				s := dot(pages[i].Vector, pages[j].Vector) / (norms[i] * norms[j])
				if math.IsNaN(s) {
					return fmt.Errorf("similarity of %s and %s is NaN: %w",
						pages[i].URL, pages[j].URL, internalerr.ErrComputation)
				}
				row[j] = clamp(s)
			}
			e.matrix[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return e, nil
}

// Len returns the number of pages in the matrix.
func (e *Engine) Len() int { return len(e.urls) }

// URLs returns the page URLs in matrix order.
func (e *Engine) URLs() []string {
	out := make([]string, len(e.urls))
	copy(out, e.urls)
	return out
}

// Has reports whether url is part of the page set.
func (e *Engine) Has(url string) bool {
	_, ok := e.index[url]
	return ok
}

// Score returns the cosine similarity of two pages.
func (e *Engine) Score(a, b string) (float64, bool) {
	i, ok := e.index[a]
	if !ok {
		return 0, false
	}
	j, ok := e.index[b]
	if !ok {
		return 0, false
	}
	return e.matrix[i][j], true
}

// Relations ranks, for every source page (or only those in restrictTo),
// the topK most similar other pages. Targets always come from the full set.
func (e *Engine) Relations(topK int, restrictTo []string) (*Relations, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d: %w", topK, internalerr.ErrInvalidInput)
	}

	sources := e.urls
	if len(restrictTo) > 0 {
		for _, u := range restrictTo {
			if !e.Has(u) {
				return nil, fmt.Errorf("unknown source page %s: %w", u, internalerr.ErrInvalidInput)
			}
		}
		sources = restrictTo
	}

	rs := NewRelations()
	for _, src := range sources {
		i := e.index[src]
		row := e.matrix[i]
		ns := make([]Neighbor, 0, len(row)-1)
		for j, s := range row {
			if j == i {
				continue
			}
			ns = append(ns, Neighbor{URL: e.urls[j], Score: s})
		}
		rel := NewRelation(ns)
		if len(rel) > topK {
			rel = rel[:topK]
		}
		rs.Add(src, rel...)
	}
	return rs, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for k := range a {
		s += a[k] * b[k]
	}
	return s
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func clamp(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
