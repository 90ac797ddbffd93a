package linkgraph

import "sort"

// DefaultLowLinkThreshold flags pages receiving fewer links than this.
const DefaultLowLinkThreshold = 7

// Structure summarises the hyperlink graph of a site.
type Structure struct {
	TotalPages      int     `json:"total_pages"`
	PagesWithLinks  int     `json:"pages_with_links"`
	TotalLinks      int     `json:"total_links"`        // distinct (from, to) hyperlinks
	AvgLinksPerPage float64 `json:"avg_links_per_page"` // TotalLinks / TotalPages
	OrphanPages     int     `json:"orphan_pages"`       // pages with no outgoing hyperlink
	ExternalLinks   int     `json:"external_links"`     // edges leaving the site's registrable domain
}

// Summarize computes the structure summary for the page set.
func Summarize(edges []Edge, adj Adjacency, allURLs []string) Structure {
	s := Structure{
		TotalPages:     len(allURLs),
		PagesWithLinks: len(adj),
		OrphanPages:    len(OrphanPages(adj, allURLs)),
		ExternalLinks:  len(ExternalEdges(edges)),
	}
	for _, targets := range adj {
		s.TotalLinks += len(targets)
	}
	if s.TotalPages > 0 {
		s.AvgLinksPerPage = float64(s.TotalLinks) / float64(s.TotalPages)
	}
	return s
}

// Bucket is one bar of a histogram: Count items share Value.
type Bucket struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

// IncomingReport describes raw incoming edge counts per target.
type IncomingReport struct {
	PerTarget       []PageCount `json:"per_target"` // sorted by count ascending
	AvgLinksPerPage float64     `json:"avg_links_per_page"`
	Threshold       int         `json:"threshold"`
	LowLinkPages    []PageCount `json:"low_link_pages"` // targets with Count < Threshold
	Histogram       []Bucket    `json:"histogram"`      // links received -> number of pages
}

// IncomingStats groups every edge by its target, whatever its type, the
// way crawl inlink exports count them.
func IncomingStats(edges []Edge, threshold int) IncomingReport {
	if threshold <= 0 {
		threshold = DefaultLowLinkThreshold
	}
	counts := make(map[string]int)
	for _, e := range edges {
		counts[e.To]++
	}

	rep := IncomingReport{Threshold: threshold}
	total := 0
	for to, c := range counts {
		rep.PerTarget = append(rep.PerTarget, PageCount{URL: to, Count: c})
		total += c
	}
	sortPageCounts(rep.PerTarget, true)
	if len(counts) > 0 {
		rep.AvgLinksPerPage = float64(total) / float64(len(counts))
	}

	hist := make(map[int]int)
	for _, pc := range rep.PerTarget {
		if pc.Count < threshold {
			rep.LowLinkPages = append(rep.LowLinkPages, pc)
		}
		hist[pc.Count]++
	}
	rep.Histogram = histogram(hist)
	return rep
}

// LowLinks re-filters the per-target counts under another threshold.
func (r IncomingReport) LowLinks(threshold int) []PageCount {
	var out []PageCount
	for _, pc := range r.PerTarget {
		if pc.Count < threshold {
			out = append(out, pc)
		}
	}
	return out
}

func histogram(counts map[int]int) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for v, c := range counts {
		out = append(out, Bucket{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
