package embedding

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/table"
)

// Column names of the embeddings export.
const (
	ColumnURL        = "URL"
	ColumnEmbeddings = "Embeddings"
)

// Page is a URL with its embedding vector.
type Page struct {
	URL    string
	Vector []float64
}

// ParseResult is the outcome of parsing one embedding cell.
// Vector is nil whenever Err is set.
type ParseResult struct {
	Vector []float64
	Err    error
}

// OK reports whether the cell parsed into a usable vector.
func (r ParseResult) OK() bool { return r.Err == nil && len(r.Vector) > 0 }

var errEmpty = errors.New("empty embedding")

// Parse decodes "[0.1, 0.2, ...]" (brackets optional) into a vector.
func Parse(s string) ParseResult {
	cleaned := strings.TrimSpace(s)
	if strings.HasPrefix(cleaned, "[") && strings.HasSuffix(cleaned, "]") {
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	var values []float64
	for _, tok := range strings.Split(cleaned, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return ParseResult{Err: fmt.Errorf("token %q is not a number", tok)}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ParseResult{Err: fmt.Errorf("token %q is not finite", tok)}
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return ParseResult{Err: errEmpty}
	}
	return ParseResult{Vector: values}
}

// Row is one parsed row of the embeddings table.
type Row struct {
	Line   int
	URL    string
	Result ParseResult
}

// ParseTable parses every row without failing on bad cells.
// Only a missing column is reported as an error.
func ParseTable(t *table.Table) ([]Row, error) {
	if err := t.Require(ColumnURL, ColumnEmbeddings); err != nil {
		return nil, err
	}
	urlCol, _ := t.Column(ColumnURL)
	embCol, _ := t.Column(ColumnEmbeddings)

	rows := make([]Row, t.Len())
	for i := range t.Rows {
		rows[i] = Row{
			Line:   t.Line(i),
			URL:    strings.TrimSpace(t.Value(i, urlCol)),
			Result: Parse(t.Value(i, embCol)),
		}
	}
	return rows, nil
}

// Load parses the table strictly: every row must carry a URL and a valid
// vector, URLs must be unique and all vectors must share one length.
func Load(t *table.Table) ([]Page, error) {
	rows, err := ParseTable(t)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s table has no rows: %w", t.Name, internalerr.ErrInvalidInput)
	}

	perr := &internalerr.ParseError{Table: t.Name}
	seen := make(map[string]int, len(rows))
	pages := make([]Page, 0, len(rows))
	for _, r := range rows {
		switch {
		case r.URL == "":
			perr.Failures = append(perr.Failures, internalerr.RowFailure{Line: r.Line, Reason: "empty URL"})
			continue
		case !r.Result.OK():
			perr.Failures = append(perr.Failures, internalerr.RowFailure{Line: r.Line, Key: r.URL, Reason: r.Result.Err.Error()})
			continue
		}
		if first, dup := seen[r.URL]; dup {
			perr.Failures = append(perr.Failures, internalerr.RowFailure{
				Line: r.Line, Key: r.URL, Reason: fmt.Sprintf("duplicate of line %d", first),
			})
			continue
		}
		seen[r.URL] = r.Line
		pages = append(pages, Page{URL: r.URL, Vector: r.Result.Vector})
	}
	if len(perr.Failures) > 0 {
		return nil, perr
	}

	if err := CheckDimensions(pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// CheckDimensions verifies that all vectors share the first page's length.
func CheckDimensions(pages []Page) error {
	if len(pages) == 0 {
		return nil
	}
	dim := len(pages[0].Vector)
	for _, p := range pages[1:] {
		if len(p.Vector) != dim {
			return fmt.Errorf("embedding of %s has %d dimensions, expected %d: %w",
				p.URL, len(p.Vector), dim, internalerr.ErrComputation)
		}
	}
	return nil
}

// URLs returns page URLs in table order.
func URLs(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.URL
	}
	return out
}
