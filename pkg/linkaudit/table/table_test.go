package table

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
)

func TestReadCSV(t *testing.T) {
	data := "\ufeffURL, Embeddings \nhttps://a.test/,\"[1, 2]\"\n\n,\nhttps://b.test/,\"[3, 4]\"\n"
	tbl, err := Read("embeddings", strings.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows (blank rows skipped), got %d", tbl.Len())
	}
	if err := tbl.Require("URL", "Embeddings"); err != nil {
		t.Fatalf("Require: %v", err)
	}
	col, _ := tbl.Column("Embeddings")
	if got := tbl.Value(1, col); got != "[3, 4]" {
		t.Errorf("unexpected cell %q", got)
	}
}

func TestLineSkipsBlankRows(t *testing.T) {
	data := "URL,Embeddings\na,\"[1]\"\n,,\n\nb,\"[2]\"\n"
	tbl, err := Read("embeddings", strings.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
	if got := tbl.Line(0); got != 2 {
		t.Errorf("row 0 line = %d, want 2", got)
	}
	if got := tbl.Line(1); got != 5 {
		t.Errorf("row 1 line = %d, want 5", got)
	}

	built := New("links", []string{"A"}, [][]string{{"x"}, {"y"}})
	if got := built.Line(1); got != 3 {
		t.Errorf("New table line = %d, want 3", got)
	}
}

func TestRequireReportsMissing(t *testing.T) {
	tbl := New("links", []string{"From", "To"}, nil)
	err := tbl.Require("Type", "From", "To", "Status Code")
	if !errors.Is(err, internalerr.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	var ce *internalerr.ColumnError
	if !errors.As(err, &ce) {
		t.Fatal("expected ColumnError")
	}
	if len(ce.Missing) != 2 || ce.Missing[0] != "Type" || ce.Missing[1] != "Status Code" {
		t.Errorf("unexpected missing list %v", ce.Missing)
	}
}

func TestReadEmpty(t *testing.T) {
	_, err := Read("embeddings", strings.NewReader(""))
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestShortRowValue(t *testing.T) {
	tbl := New("links", []string{"A", "B", "C"}, [][]string{{"x"}})
	if got := tbl.Value(0, 2); got != "" {
		t.Errorf("expected empty for short row, got %q", got)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.csv")
	if err := os.WriteFile(path, []byte("From,To\na,b\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tbl, err := ReadFile("links", path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if tbl.Len() != 1 {
		t.Errorf("expected 1 row, got %d", tbl.Len())
	}

	if _, err := ReadFile("links", "/nonexistent/links.csv"); err == nil {
		t.Error("should error on non-existent file")
	}
}
