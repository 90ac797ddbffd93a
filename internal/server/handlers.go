package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cognicore/linkaudit/pkg/linkaudit"
	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/opportunity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/similarity"
)

// query reads typed parameters, keeping the first parse error.
type query struct {
	values url.Values
	err    error
}

func newQuery(r *http.Request) *query { return &query{values: r.URL.Query()} }

func (q *query) intParam(name string, def int) int {
	raw := strings.TrimSpace(q.values.Get(name))
	if raw == "" || q.err != nil {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		q.err = fmt.Errorf("invalid %s %q: %w", name, raw, internalerr.ErrInvalidInput)
		return def
	}
	return v
}

func (q *query) floatParam(name string, def float64) float64 {
	raw := strings.TrimSpace(q.values.Get(name))
	if raw == "" || q.err != nil {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		q.err = fmt.Errorf("invalid %s %q: %w", name, raw, internalerr.ErrInvalidInput)
		return def
	}
	return v
}

func (q *query) check(min, max float64, name string, v float64) {
	if q.err == nil && (v < min || v > max) {
		q.err = fmt.Errorf("%s must be within [%g, %g]: %w", name, min, max, internalerr.ErrInvalidInput)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"pages":  len(s.session.URLs()),
		"edges":  len(s.session.Edges()),
		"uptime": time.Since(s.started).Round(time.Second).String(),
		"time":   time.Now(),
	})
}

// sourcePages returns explicit ?source= pages, else the configured filter.
// ok is false when a filter is active and matched nothing.
func (s *Server) sourcePages(q *query) (sources []string, ok bool) {
	if explicit := q.values["source"]; len(explicit) > 0 {
		return explicit, true
	}
	if s.filtered && len(s.sources) == 0 {
		return nil, false
	}
	return s.sources, true
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	q := newQuery(r)
	topK := q.intParam("top_k", s.settings.TopK)
	threshold := q.floatParam("threshold", s.settings.Threshold)
	q.check(-1, 1, "threshold", threshold)
	if q.err != nil {
		s.respondErr(w, q.err)
		return
	}

	ops := []opportunity.Opportunity{}
	if sources, ok := s.sourcePages(q); ok {
		found, err := s.session.Opportunities(topK, threshold, sources)
		if err != nil {
			s.respondErr(w, err)
			return
		}
		ops = append(ops, found...)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":         len(ops),
		"top_k":         topK,
		"threshold":     threshold,
		"opportunities": ops,
	})
}

func (s *Server) handleSimilarities(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	q := newQuery(r)
	topK := q.intParam("top_k", s.settings.TopK)
	minScore := q.floatParam("min_score", s.settings.Threshold)
	q.check(-1, 1, "min_score", minScore)
	if q.err != nil {
		s.respondErr(w, q.err)
		return
	}

	pairs := []similarity.Pair{}
	if sources, ok := s.sourcePages(q); ok {
		found, err := s.session.Similarities(topK, minScore, sources)
		if err != nil {
			s.respondErr(w, err)
			return
		}
		pairs = append(pairs, found...)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(pairs),
		"pairs": pairs,
	})
}

func (s *Server) handleIncoming(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	q := newQuery(r)
	topK := q.intParam("top_k", s.settings.TopK)
	threshold := q.floatParam("threshold", s.settings.Threshold)
	q.check(-1, 1, "threshold", threshold)
	if q.err != nil {
		s.respondErr(w, q.err)
		return
	}
	rows, err := s.session.Incoming(topK, threshold)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"rows": rows})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	q := newQuery(r)
	target := strings.TrimSpace(q.values.Get("url"))
	if target == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	topK := q.intParam("top_k", s.settings.TopK)
	if q.err != nil {
		s.respondErr(w, q.err)
		return
	}
	d, err := s.session.Detail(target, topK)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	q := newQuery(r)
	topK := q.intParam("top_k", s.settings.TopK)
	level := q.intParam("level", s.settings.Theme.Level)
	minScore := q.floatParam("min_score", s.settings.Theme.MinScore)
	q.check(-1, 1, "min_score", minScore)
	if q.err != nil {
		s.respondErr(w, q.err)
		return
	}
	var report linkaudit.ThemeReport
	if sources, ok := s.sourcePages(q); ok {
		var err error
		if report, err = s.session.Themes(topK, level, minScore, sources); err != nil {
			s.respondErr(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleBroken(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	count, links := s.session.Broken()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": count,
		"links": links,
	})
}

func (s *Server) handleAnchors(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	respondJSON(w, http.StatusOK, s.session.Anchors())
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	respondJSON(w, http.StatusOK, s.session.Structure())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	if s.runs == nil {
		respondError(w, http.StatusNotFound, "run store not configured")
		return
	}
	runs, err := s.runs.ListRuns(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	if s.runs == nil {
		respondError(w, http.StatusNotFound, "run store not configured")
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/")
	id, sub, _ := strings.Cut(path, "/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "run id is required")
		return
	}

	switch sub {
	case "":
		rep, err := s.runs.GetRun(r.Context(), id)
		if err != nil {
			s.respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, rep)
	case "opportunities":
		ops, err := s.runs.Opportunities(r.Context(), id)
		if err != nil {
			s.respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"count": len(ops), "opportunities": ops})
	default:
		respondError(w, http.StatusNotFound, "unknown run resource")
	}
}
