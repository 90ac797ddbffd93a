// Package export writes audit tables as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cognicore/linkaudit/pkg/linkaudit/anchors"
	"github.com/cognicore/linkaudit/pkg/linkaudit/opportunity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/similarity"
)

// Format selects the output encoding.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// ParseFormat accepts "csv" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, JSON:
		return f, nil
	case "":
		return CSV, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

func score(f float64) string { return strconv.FormatFloat(f, 'f', 4, 64) }

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteJSON encodes v with two-space indentation.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Similarities writes the similarity details table.
func Similarities(w io.Writer, pairs []similarity.Pair) error {
	rows := make([][]string, len(pairs))
	for i, p := range pairs {
		rows[i] = []string{p.A, p.B, score(p.Score)}
	}
	return writeAll(w, []string{"URL A", "URL B", "Similarity"}, rows)
}

// Opportunities writes missing links.
func Opportunities(w io.Writer, ops []opportunity.Opportunity) error {
	rows := make([][]string, len(ops))
	for i, o := range ops {
		rows[i] = []string{o.Source, o.Target, score(o.Score), string(o.Kind)}
	}
	return writeAll(w, []string{"Source", "Target", "Similarity", "Kind"}, rows)
}

// Incoming writes the existing versus recommended incoming links table.
func Incoming(w io.Writer, in []opportunity.IncomingRow) error {
	rows := make([][]string, len(in))
	for i, r := range in {
		rows[i] = []string{r.URL, strconv.Itoa(r.Existing), strconv.Itoa(r.Recommended)}
	}
	return writeAll(w, []string{"URL", "Existing Incoming", "Recommended Incoming"}, rows)
}

// Themes writes one row per analysed source page.
func Themes(w io.Writer, in []opportunity.ThemeRow) error {
	rows := make([][]string, len(in))
	for i, r := range in {
		rows[i] = []string{
			r.Theme, r.URL,
			strconv.Itoa(r.Similar), strconv.Itoa(r.CrossTheme),
			strings.Join(r.CrossThemeDetails, "; "),
			strconv.FormatFloat(r.AvgScore, 'f', 3, 64),
		}
	}
	return writeAll(w, []string{"Theme", "URL", "Similar Pages", "Cross Theme", "Cross Theme Details", "Average Score"}, rows)
}

// Broken writes grouped broken links.
func Broken(w io.Writer, in []anchors.BrokenLink) error {
	rows := make([][]string, len(in))
	for i, b := range in {
		rows[i] = []string{b.To, strconv.Itoa(b.StatusCode), strconv.Itoa(b.Count), b.Description}
	}
	return writeAll(w, []string{"URL", "Status Code", "Count", "Description"}, rows)
}

// Anchors writes one row per (target, anchor).
func Anchors(w io.Writer, profiles []anchors.Profile) error {
	var rows [][]string
	for _, p := range profiles {
		for _, a := range p.Anchors {
			rows = append(rows, []string{p.URL, a.Text, strconv.Itoa(a.Sources), strconv.FormatBool(a.Cannibal)})
		}
	}
	return writeAll(w, []string{"URL", "Anchor Text", "Sources", "Cannibal"}, rows)
}
