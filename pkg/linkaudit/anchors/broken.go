package anchors

import (
	"fmt"
	"sort"

	"github.com/cognicore/linkaudit/pkg/linkaudit/linkgraph"
)

// BrokenLink groups broken edges sharing a target and status code.
type BrokenLink struct {
	To          string `json:"to"`
	StatusCode  int    `json:"status_code"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

var statusTexts = map[int]string{
	400: "Bad request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Page not found",
	410: "Gone",
	500: "Internal server error",
	502: "Bad gateway",
	503: "Service unavailable",
	504: "Gateway timeout",
}

// StatusText describes an HTTP error status.
func StatusText(code int) string {
	if s, ok := statusTexts[code]; ok {
		return s
	}
	return fmt.Sprintf("Error %d", code)
}

// BrokenLinks counts edges with a status code of 400 or more and groups them
// by (target, status), most frequent first.
func BrokenLinks(edges []linkgraph.Edge) (int, []BrokenLink) {
	type key struct {
		to   string
		code int
	}
	counts := make(map[key]int)
	total := 0
	for _, e := range edges {
		if e.StatusCode < 400 {
			continue
		}
		counts[key{e.To, e.StatusCode}]++
		total++
	}

	out := make([]BrokenLink, 0, len(counts))
	for k, c := range counts {
		out = append(out, BrokenLink{
			To:          k.to,
			StatusCode:  k.code,
			Count:       c,
			Description: StatusText(k.code),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].StatusCode < out[j].StatusCode
	})
	return total, out
}
