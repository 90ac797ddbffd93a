package opportunity

import (
	"fmt"
	"math"
	"sort"

	"github.com/cognicore/linkaudit/pkg/linkaudit/linkgraph"
	"github.com/cognicore/linkaudit/pkg/linkaudit/similarity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/theme"
)

// ThemeRow describes one source page within its theme.
type ThemeRow struct {
	Theme             string              `json:"theme"`
	URL               string              `json:"url"`
	Similar           int                 `json:"similar"`
	CrossTheme        int                 `json:"cross_theme"`
	CrossThemeDetails []string            `json:"cross_theme_details"` // "Theme (0.912)"
	AvgScore          float64             `json:"avg_score"`           // rounded to 3 decimals
	SimilarPages      similarity.Relation `json:"similar_pages"`
}

// AnalyzeThemes labels every source and counts how many of its similar pages
// (score >= minScore) sit in another theme.
func AnalyzeThemes(relations *similarity.Relations, level int, minScore float64) []ThemeRow {
	labels := make(map[string]string)
	label := func(u string) string {
		l, ok := labels[u]
		if !ok {
			l = theme.Label(u, level)
			labels[u] = l
		}
		return l
	}

	rows := make([]ThemeRow, 0, relations.Len())
	for _, src := range relations.Sources() {
		rel, _ := relations.Get(src)
		similar := rel.Above(minScore)
		row := ThemeRow{
			Theme:        label(src),
			URL:          src,
			Similar:      len(similar),
			SimilarPages: similar,
		}
		var sum float64
		for _, n := range similar {
			sum += n.Score
			if t := label(n.URL); t != row.Theme {
				row.CrossTheme++
				row.CrossThemeDetails = append(row.CrossThemeDetails, fmt.Sprintf("%s (%.3f)", t, n.Score))
			}
		}
		if len(similar) > 0 {
			row.AvgScore = math.Round(sum/float64(len(similar))*1000) / 1000
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Theme != b.Theme {
			return a.Theme < b.Theme
		}
		if a.CrossTheme != b.CrossTheme {
			return a.CrossTheme > b.CrossTheme
		}
		if a.AvgScore != b.AvgScore {
			return a.AvgScore > b.AvgScore
		}
		return a.URL < b.URL
	})
	return rows
}

// ThemeCluster summarises the pages of one theme.
type ThemeCluster struct {
	Theme      string     `json:"theme"`
	Pages      int        `json:"pages"`
	CrossTheme int        `json:"cross_theme"`
	Rows       []ThemeRow `json:"rows"`
}

// ThemeClusters groups theme rows, keeping themes with at least minSize pages.
func ThemeClusters(rows []ThemeRow, minSize int) []ThemeCluster {
	byTheme := make(map[string]*ThemeCluster)
	var order []string
	for _, r := range rows {
		c, ok := byTheme[r.Theme]
		if !ok {
			c = &ThemeCluster{Theme: r.Theme}
			byTheme[r.Theme] = c
			order = append(order, r.Theme)
		}
		c.Pages++
		c.CrossTheme += r.CrossTheme
		c.Rows = append(c.Rows, r)
	}

	var out []ThemeCluster
	for _, t := range order {
		if c := byTheme[t]; c.Pages >= minSize {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pages != out[j].Pages {
			return out[i].Pages > out[j].Pages
		}
		return out[i].Theme < out[j].Theme
	})
	return out
}

// Coverage compares existing links with similarity-suggested links between
// themes. Rows are source themes, columns target themes.
type Coverage struct {
	Themes    []string    `json:"themes"`
	Existing  [][]int     `json:"existing"`
	Potential [][]int     `json:"potential"`
	Ratio     [][]float64 `json:"ratio"` // Existing / Potential, 0 where nothing is suggested
}

// ThemeCoverage builds the theme-to-theme coverage matrices over the pages
// of allURLs.
func ThemeCoverage(allURLs []string, adj linkgraph.Adjacency, relations *similarity.Relations, level int, minScore float64) Coverage {
	labels := make(map[string]string, len(allURLs))
	set := make(map[string]struct{})
	for _, u := range allURLs {
		l := theme.Label(u, level)
		labels[u] = l
		set[l] = struct{}{}
	}

	cov := Coverage{}
	for t := range set {
		cov.Themes = append(cov.Themes, t)
	}
	sort.Strings(cov.Themes)
	idx := make(map[string]int, len(cov.Themes))
	for i, t := range cov.Themes {
		idx[t] = i
	}

	n := len(cov.Themes)
	cov.Existing = intMatrix(n)
	cov.Potential = intMatrix(n)
	cov.Ratio = make([][]float64, n)
	for i := range cov.Ratio {
		cov.Ratio[i] = make([]float64, n)
	}

	for src, targets := range adj {
		st, ok := labels[src]
		if !ok {
			continue
		}
		for dst := range targets {
			if tt, ok := labels[dst]; ok {
				cov.Existing[idx[st]][idx[tt]]++
			}
		}
	}
	for _, src := range relations.Sources() {
		st, ok := labels[src]
		if !ok {
			continue
		}
		rel, _ := relations.Get(src)
		for _, nb := range rel.Above(minScore) {
			if tt, ok := labels[nb.URL]; ok {
				cov.Potential[idx[st]][idx[tt]]++
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if cov.Potential[i][j] > 0 {
				cov.Ratio[i][j] = float64(cov.Existing[i][j]) / float64(cov.Potential[i][j])
			}
		}
	}
	return cov
}

func intMatrix(n int) [][]int {
	m := make([][]int, n)
	for i := range m {
		m[i] = make([]int, n)
	}
	return m
}
