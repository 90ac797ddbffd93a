package linkgraph

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ExternalEdges returns edges whose target lies outside the source's
// registrable domain. Relative targets are internal.
func ExternalEdges(edges []Edge) []Edge {
	var out []Edge
	for _, e := range edges {
		from, ok := site(e.From)
		if !ok {
			continue
		}
		to, ok := site(e.To)
		if !ok {
			continue
		}
		if from != to {
			out = append(out, e)
		}
	}
	return out
}

// site returns the eTLD+1 of an absolute URL, or its bare host when the
// public suffix list has no answer (localhost, IPs).
func site(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d, true
	}
	return host, true
}
