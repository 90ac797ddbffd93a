package linkgraph

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/table"
)

// Column names of the crawl links export.
const (
	ColumnType       = "Type"
	ColumnFrom       = "From"
	ColumnTo         = "To"
	ColumnStatusCode = "Status Code"
	ColumnAnchor     = "Anchor Text"
)

// TypeHyperlink is the only link type that counts towards adjacency.
const TypeHyperlink = "Hyperlink"

// Edge is one crawled link.
type Edge struct {
	Type       string
	From       string
	To         string
	StatusCode int
	Anchor     string
}

// IsHyperlink reports whether the edge is a navigational hyperlink.
func (e Edge) IsHyperlink() bool { return e.Type == TypeHyperlink }

// SelfLoop reports whether the edge points back at its own page.
func (e Edge) SelfLoop() bool { return e.From == e.To }

// LoadEdges reads every row of a links table. A blank status code is kept
// as 0; anything else that is not an integer fails the load.
func LoadEdges(t *table.Table) ([]Edge, error) {
	if err := t.Require(ColumnType, ColumnFrom, ColumnTo, ColumnStatusCode, ColumnAnchor); err != nil {
		return nil, err
	}
	typeCol, _ := t.Column(ColumnType)
	fromCol, _ := t.Column(ColumnFrom)
	toCol, _ := t.Column(ColumnTo)
	statusCol, _ := t.Column(ColumnStatusCode)
	anchorCol, _ := t.Column(ColumnAnchor)

	perr := &internalerr.ParseError{Table: t.Name}
	edges := make([]Edge, 0, t.Len())
	for i := range t.Rows {
		from := strings.TrimSpace(t.Value(i, fromCol))
		code, err := parseStatus(t.Value(i, statusCol))
		if err != nil {
			perr.Failures = append(perr.Failures, internalerr.RowFailure{
				Line: t.Line(i), Key: from, Reason: err.Error(),
			})
			continue
		}
		edges = append(edges, Edge{
			Type:       strings.TrimSpace(t.Value(i, typeCol)),
			From:       from,
			To:         strings.TrimSpace(t.Value(i, toCol)),
			StatusCode: code,
			Anchor:     strings.TrimSpace(t.Value(i, anchorCol)),
		})
	}
	if len(perr.Failures) > 0 {
		return nil, perr
	}
	return edges, nil
}

func parseStatus(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	// Spreadsheet exports sometimes write integers as "404.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("status code %q is not an integer", s)
	}
	return int(f), nil
}
