package linkaudit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/cognicore/linkaudit/pkg/linkaudit/anchors"
	"github.com/cognicore/linkaudit/pkg/linkaudit/embedding"
	"github.com/cognicore/linkaudit/pkg/linkaudit/filter"
	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/linkgraph"
	"github.com/cognicore/linkaudit/pkg/linkaudit/metrics"
	"github.com/cognicore/linkaudit/pkg/linkaudit/opportunity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/similarity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/table"
)

// Session is one analysis run over a loaded page set and link table.
// It is safe for concurrent use.
type Session struct {
	pages     []embedding.Page
	edges     []linkgraph.Edge
	engine    *similarity.Engine
	adj       linkgraph.Adjacency
	profiles  map[string]*anchors.Profile
	cannibals map[string]struct{}
	opts      Options
	log       *zap.Logger

	mu    sync.Mutex
	cache *lru.Cache[relationKey, *similarity.Relations]
}

// DefaultRelationCacheSize bounds the relation sets a session keeps.
const DefaultRelationCacheSize = 32

// Options configures a Session
type Options struct {
	Workers          int // similarity workers, 0 = GOMAXPROCS
	LowLinkThreshold int
	MinClusterSize   int
	CacheSize        int // relation sets kept, 0 = DefaultRelationCacheSize
	Logger           *zap.Logger
	Metrics          *metrics.Collectors
}

type relationKey struct {
	topK     int
	restrict string
}

// LoadEmbeddings reads the embeddings table strictly.
func LoadEmbeddings(t *table.Table) ([]embedding.Page, error) {
	if err := t.Require(embedding.ColumnURL, embedding.ColumnEmbeddings); err != nil {
		return nil, err
	}
	return embedding.Load(t)
}

// LoadLinks reads the crawled links table.
func LoadLinks(t *table.Table) ([]linkgraph.Edge, error) {
	return linkgraph.LoadEdges(t)
}

// Open reads the CSV files and builds a session over them. The links file
// is optional: without it the session has no edges, so link-based reports
// are empty and every similar pair counts as unlinked.
func Open(ctx context.Context, embeddingsPath, linksPath string, opts Options) (*Session, error) {
	et, err := table.ReadFile("embeddings", embeddingsPath)
	if err != nil {
		return nil, err
	}
	pages, err := LoadEmbeddings(et)
	if err != nil {
		return nil, err
	}
	var edges []linkgraph.Edge
	if linksPath != "" {
		lt, err := table.ReadFile("links", linksPath)
		if err != nil {
			return nil, err
		}
		if edges, err = LoadLinks(lt); err != nil {
			return nil, err
		}
	}
	return NewSession(ctx, pages, edges, opts)
}

// NewSession computes the similarity matrix and the link graph. It fails
// without a partial session when the matrix cannot be built.
func NewSession(ctx context.Context, pages []embedding.Page, edges []linkgraph.Edge, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.LowLinkThreshold <= 0 {
		opts.LowLinkThreshold = linkgraph.DefaultLowLinkThreshold
	}
	if opts.MinClusterSize <= 0 {
		opts.MinClusterSize = 2
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultRelationCacheSize
	}
	cache, err := lru.New[relationKey, *similarity.Relations](opts.CacheSize)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	engine, err := similarity.NewEngine(ctx, pages, similarity.Options{Workers: opts.Workers})
	if err != nil {
		return nil, fmt.Errorf("similarity matrix: %w", err)
	}
	elapsed := time.Since(start)
	opts.Metrics.ObserveBuild(elapsed, len(pages), len(edges))

	profiles, cannibals := anchors.Analyze(edges)
	s := &Session{
		pages:     pages,
		edges:     edges,
		engine:    engine,
		adj:       linkgraph.Build(edges),
		profiles:  profiles,
		cannibals: cannibals,
		opts:      opts,
		log:       opts.Logger,
		cache:     cache,
	}
	s.log.Info("session ready",
		zap.Int("pages", len(pages)),
		zap.Int("edges", len(edges)),
		zap.Int("linking_pages", len(s.adj)),
		zap.Duration("matrix", elapsed))
	return s, nil
}

// URLs returns the page URLs in load order.
func (s *Session) URLs() []string { return s.engine.URLs() }

// Edges returns the raw link rows.
func (s *Session) Edges() []linkgraph.Edge { return s.edges }

// Adjacency returns the hyperlink graph. Callers must not modify it.
func (s *Session) Adjacency() linkgraph.Adjacency { return s.adj }

// SelectURLs applies the path criteria and then the regex. An invalid regex
// is logged and ignored; the returned error is a *internalerr.FilterError.
func (s *Session) SelectURLs(c filter.Criteria, pattern string) ([]string, error) {
	urls := filter.URLs(s.URLs(), c)
	out, err := filter.Regex(urls, pattern)
	if err != nil {
		s.opts.Metrics.FilterError()
		s.log.Warn("ignoring url filter", zap.String("pattern", pattern), zap.Error(err))
	}
	return out, err
}

// Relations returns the top-K relation of each page in urlFilter, or of
// every page when the filter is empty. Results are cached per (topK, filter)
// in a bounded LRU; topK beyond the number of other pages is clamped.
func (s *Session) Relations(topK int, urlFilter []string) (*similarity.Relations, error) {
	if maxK := s.engine.Len() - 1; maxK >= 1 && topK > maxK {
		topK = maxK
	}
	key := relationKey{topK: topK, restrict: restrictKey(urlFilter)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rel, ok := s.cache.Get(key); ok {
		s.opts.Metrics.CacheLookup(true)
		return rel, nil
	}
	s.opts.Metrics.CacheLookup(false)
	rel, err := s.engine.Relations(topK, urlFilter)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, rel)
	s.log.Debug("relations computed", zap.Int("top_k", topK), zap.Int("sources", rel.Len()))
	return rel, nil
}

func restrictKey(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	sorted := append([]string(nil), urls...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// Similarities returns the deduplicated similarity details table.
func (s *Session) Similarities(topK int, minScore float64, urlFilter []string) ([]similarity.Pair, error) {
	rel, err := s.Relations(topK, urlFilter)
	if err != nil {
		return nil, err
	}
	return rel.Pairs(minScore), nil
}

// Opportunities lists missing links from the pages of urlFilter (all pages
// when empty) to their similar pages scoring at least threshold.
func (s *Session) Opportunities(topK int, threshold float64, urlFilter []string) ([]opportunity.Opportunity, error) {
	rel, err := s.Relations(topK, urlFilter)
	if err != nil {
		return nil, err
	}
	ops := opportunity.Find(rel, s.adj, threshold, nil)
	s.opts.Metrics.ObserveOpportunities(len(ops))
	return ops, nil
}

// Incoming compares existing and recommended incoming links per page.
func (s *Session) Incoming(topK int, threshold float64) ([]opportunity.IncomingRow, error) {
	rel, err := s.Relations(topK, nil)
	if err != nil {
		return nil, err
	}
	return opportunity.AnalyzeIncoming(s.adj, rel, s.URLs(), threshold), nil
}

// Detail describes one page. The URL must be a loaded page or the target
// of a link.
func (s *Session) Detail(url string, topK int) (opportunity.URLDetail, error) {
	if !s.known(url) {
		return opportunity.URLDetail{}, fmt.Errorf("url %q: %w", url, internalerr.ErrNotFound)
	}
	rel, err := s.Relations(topK, nil)
	if err != nil {
		return opportunity.URLDetail{}, err
	}
	return opportunity.Detail(url, s.edges, s.profiles, rel, s.adj), nil
}

func (s *Session) known(url string) bool {
	if s.engine.Has(url) {
		return true
	}
	for _, e := range s.edges {
		if e.To == url {
			return true
		}
	}
	return false
}

// ThemeReport is the theme view of a run.
type ThemeReport struct {
	Rows     []opportunity.ThemeRow     `json:"rows"`
	Clusters []opportunity.ThemeCluster `json:"clusters"`
	Coverage opportunity.Coverage       `json:"coverage"`
}

// Themes groups the pages of urlFilter (all pages when empty) by their theme
// at level and measures cross-theme similarity above minScore.
func (s *Session) Themes(topK, level int, minScore float64, urlFilter []string) (ThemeReport, error) {
	rel, err := s.Relations(topK, urlFilter)
	if err != nil {
		return ThemeReport{}, err
	}
	rows := opportunity.AnalyzeThemes(rel, level, minScore)
	return ThemeReport{
		Rows:     rows,
		Clusters: opportunity.ThemeClusters(rows, s.opts.MinClusterSize),
		Coverage: opportunity.ThemeCoverage(s.URLs(), s.adj, rel, level, minScore),
	}, nil
}

// Broken groups links answering with a status of 400 or more.
func (s *Session) Broken() (int, []anchors.BrokenLink) {
	return anchors.BrokenLinks(s.edges)
}

// AnchorReport is the anchor view of a run.
type AnchorReport struct {
	Profiles     []anchors.Profile    `json:"profiles"` // by URL
	Cannibals    []string             `json:"cannibals"`
	Distribution anchors.Distribution `json:"distribution"`
}

// Anchors returns anchor profiles, cannibal anchors and their distribution.
func (s *Session) Anchors() AnchorReport {
	r := AnchorReport{Distribution: anchors.Summarize(s.profiles)}
	for _, p := range s.profiles {
		r.Profiles = append(r.Profiles, *p)
	}
	sort.Slice(r.Profiles, func(i, j int) bool { return r.Profiles[i].URL < r.Profiles[j].URL })
	for a := range s.cannibals {
		r.Cannibals = append(r.Cannibals, a)
	}
	sort.Strings(r.Cannibals)
	return r
}

// StructureReport is the link-structure view of a run.
type StructureReport struct {
	Summary  linkgraph.Structure      `json:"summary"`
	Outgoing []linkgraph.PageCount    `json:"outgoing"`
	Incoming linkgraph.IncomingReport `json:"incoming"`
	PageRank []linkgraph.PageScore    `json:"page_rank"`
}

// Structure summarises the link graph.
func (s *Session) Structure() StructureReport {
	urls := s.URLs()
	return StructureReport{
		Summary:  linkgraph.Summarize(s.edges, s.adj, urls),
		Outgoing: linkgraph.Distribution(s.adj),
		Incoming: linkgraph.IncomingStats(s.edges, s.opts.LowLinkThreshold),
		PageRank: linkgraph.RankPages(linkgraph.PageRank(s.adj, urls, 0, 0)),
	}
}
