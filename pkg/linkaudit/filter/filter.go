package filter

import (
	"regexp"
	"strings"

	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
)

// Criteria selects URLs by path terms. Exact terms must appear as a whole
// path segment ("/term/"); partial terms may appear anywhere. Matching is
// case-insensitive.
type Criteria struct {
	IncludeExact   []string
	IncludePartial []string
	ExcludeExact   []string
	ExcludePartial []string
}

// Empty reports whether no term is set.
func (c Criteria) Empty() bool {
	return len(c.IncludeExact) == 0 && len(c.IncludePartial) == 0 &&
		len(c.ExcludeExact) == 0 && len(c.ExcludePartial) == 0
}

// Terms splits a comma separated list, dropping blanks.
func Terms(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// URLs keeps the URLs that match at least one term of every non-empty
// include list and no exclude term. Order is preserved.
func URLs(urls []string, c Criteria) []string {
	if c.Empty() {
		return append([]string(nil), urls...)
	}
	incExact := exactNeedles(c.IncludeExact)
	incPartial := lower(c.IncludePartial)
	excExact := exactNeedles(c.ExcludeExact)
	excPartial := lower(c.ExcludePartial)

	out := make([]string, 0, len(urls))
	for _, u := range urls {
		lu := strings.ToLower(u)
		if len(incExact) > 0 && !containsAny(lu, incExact) {
			continue
		}
		if len(incPartial) > 0 && !containsAny(lu, incPartial) {
			continue
		}
		if containsAny(lu, excExact) || containsAny(lu, excPartial) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Regex keeps the URLs matching pattern, case-insensitively. An empty
// pattern keeps everything. An invalid pattern returns the input unchanged
// together with a *internalerr.FilterError.
func Regex(urls []string, pattern string) ([]string, error) {
	all := append([]string(nil), urls...)
	if strings.TrimSpace(pattern) == "" {
		return all, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return all, &internalerr.FilterError{Pattern: pattern, Err: err}
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if re.MatchString(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

func exactNeedles(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = "/" + strings.ToLower(strings.Trim(t, "/")) + "/"
	}
	return out
}

func lower(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
