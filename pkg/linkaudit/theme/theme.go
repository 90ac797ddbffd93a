package theme

import (
	"crypto/md5"
	"fmt"
	"math"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Other is the label of URLs without a usable path.
const Other = "Other"

// ignoredSegments are locale and TLD-like path segments that never name a theme.
var ignoredSegments = map[string]struct{}{
	"www": {},
	"fr":  {},
	"com": {},
	"net": {},
	"org": {},
}

// Label derives a topical label from the path segment at level (1-indexed),
// falling back to the deepest segment, then to Other. It never fails.
func Label(rawURL string, level int) string {
	segs := Segments(rawURL)
	if len(segs) == 0 {
		return Other
	}
	if level < 1 {
		level = 1
	}
	if len(segs) >= level {
		return humanize(segs[level-1])
	}
	return humanize(segs[len(segs)-1])
}

// Segments returns the meaningful path segments of an absolute URL.
// Schemeless or unparsable input yields nil.
func Segments(rawURL string) []string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s == "" {
			continue
		}
		if _, skip := ignoredSegments[strings.ToLower(s)]; skip {
			continue
		}
		segs = append(segs, s)
	}
	return segs
}

// ReadableLabel shortens a URL to its last segment, at most four words.
func ReadableLabel(rawURL string) string {
	trimmed := strings.TrimSuffix(rawURL, "/")
	last := trimmed
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		last = trimmed[i+1:]
	}
	words := strings.Fields(humanize(last))
	if len(words) > 4 {
		return strings.Join(words[:4], " ") + "..."
	}
	return strings.Join(words, " ")
}

// Color returns a stable #rrggbb colour for a theme.
func Color(theme string) string {
	sum := md5.Sum([]byte(theme))
	hue := float64(sum[0]) / 255
	r, g, b := hlsToRGB(hue, 0.5, 0.7)
	return fmt.Sprintf("#%02x%02x%02x", int(r*255), int(g*255), int(b*255))
}

func humanize(segment string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(segment, "-", " "))
}

func hlsToRGB(h, l, s float64) (float64, float64, float64) {
	if s == 0 {
		return l, l, l
	}
	var m2 float64
	if l <= 0.5 {
		m2 = l * (1 + s)
	} else {
		m2 = l + s - l*s
	}
	m1 := 2*l - m2
	return hueChannel(m1, m2, h+1.0/3), hueChannel(m1, m2, h), hueChannel(m1, m2, h-1.0/3)
}

func hueChannel(m1, m2, h float64) float64 {
	h = h - math.Floor(h)
	switch {
	case h < 1.0/6:
		return m1 + (m2-m1)*h*6
	case h < 0.5:
		return m2
	case h < 2.0/3:
		return m1 + (m2-m1)*(2.0/3-h)*6
	}
	return m1
}
