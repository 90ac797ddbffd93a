package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/cognicore/linkaudit/pkg/linkaudit/report"
	"github.com/cognicore/linkaudit/pkg/linkaudit/store"
)

const embeddingsCSV = `URL,Embeddings
https://s.test/blog/a,"[1, 0]"
https://s.test/blog/b,"[0.9, 0.1]"
https://s.test/shop/c,"[0, 1]"
`

const linksCSV = `Type,From,To,Status Code,Anchor Text
Hyperlink,https://s.test/blog/a,https://s.test/shop/c,200,shop
Hyperlink,https://s.test/shop/c,https://s.test/blog/b,200,read
Hyperlink,https://s.test/blog/b,https://s.test/gone,404,old
`

func writeInputs(t *testing.T) (dir, emb, links string) {
	t.Helper()
	dir = t.TempDir()
	emb = filepath.Join(dir, "embeddings.csv")
	links = filepath.Join(dir, "links.csv")
	if err := os.WriteFile(emb, []byte(embeddingsCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(links, []byte(linksCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, emb, links
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCommand()
	cmd.SetArgs(append(args, "--log-level", "error"))
	return cmd.Execute()
}

func TestResolveSettingsPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "linkaudit.yaml")
	if err := os.WriteFile(cfg, []byte("top_k: 3\nthreshold: 0.7\ntheme:\n  level: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LINKAUDIT_THRESHOLD", "0.8")

	v := viper.New()
	v.Set("config", cfg)
	s, err := resolveSettings(v)
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if s.TopK != 3 || s.Theme.Level != 2 {
		t.Errorf("config file not applied: %+v", s)
	}
	if s.Threshold != 0.8 {
		t.Errorf("env should override file, threshold = %v", s.Threshold)
	}
	if s.Incoming.LowLinkThreshold != 7 {
		t.Errorf("defaults lost: %+v", s.Incoming)
	}
}

func TestResolveSettingsRejectsInvalid(t *testing.T) {
	t.Setenv("LINKAUDIT_TOP_K", "0")
	if _, err := resolveSettings(viper.New()); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestOpportunitiesCommand(t *testing.T) {
	dir, emb, links := writeInputs(t)
	out := filepath.Join(dir, "ops.json")
	err := run(t, "opportunities", "--embeddings", emb, "--links", links,
		"--top-k", "1", "--threshold", "0.9", "--format", "json", "--out", out)
	if err != nil {
		t.Fatalf("opportunities: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var ops []map[string]interface{}
	if err := json.Unmarshal(data, &ops); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected A->B and B->A, got %v", ops)
	}
	for _, o := range ops {
		if o["kind"] != "bidirectional" {
			t.Errorf("unexpected kind: %v", o)
		}
	}
}

func TestOpportunitiesCommandCSVFiltered(t *testing.T) {
	dir, emb, links := writeInputs(t)
	out := filepath.Join(dir, "ops.csv")
	err := run(t, "opportunities", "--embeddings", emb, "--links", links,
		"--top-k", "1", "--threshold", "0.9", "--include-exact", "nothing", "--out", out)
	if err != nil {
		t.Fatalf("opportunities: %v", err)
	}
	data, _ := os.ReadFile(out)
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 1 {
		t.Errorf("an empty selection should only write the header, got %q", data)
	}
}

func TestMissingEmbeddings(t *testing.T) {
	if err := run(t, "broken"); err == nil || !strings.Contains(err.Error(), "--embeddings is required") {
		t.Fatalf("expected missing input error, got %v", err)
	}
}

func TestEmbeddingsOnly(t *testing.T) {
	dir, emb, _ := writeInputs(t)

	out := filepath.Join(dir, "ops.json")
	err := run(t, "opportunities", "--embeddings", emb,
		"--top-k", "1", "--threshold", "0.9", "--format", "json", "--out", out)
	if err != nil {
		t.Fatalf("opportunities: %v", err)
	}
	data, _ := os.ReadFile(out)
	var ops []map[string]interface{}
	if err := json.Unmarshal(data, &ops); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ops) != 2 {
		t.Errorf("expected A->B and B->A without a links table, got %v", ops)
	}

	broken := filepath.Join(dir, "broken.json")
	if err := run(t, "broken", "--embeddings", emb, "--format", "json", "--out", broken); err != nil {
		t.Fatalf("broken: %v", err)
	}
	data, _ = os.ReadFile(broken)
	if got := strings.TrimSpace(string(data)); got != "[]" {
		t.Errorf("expected no broken links, got %s", got)
	}

	if err := run(t, "themes", "--embeddings", emb, "--format", "json", "--out", filepath.Join(dir, "themes.json")); err != nil {
		t.Errorf("themes: %v", err)
	}
}

func TestReportCommandStoresRun(t *testing.T) {
	dir, emb, links := writeInputs(t)
	db := filepath.Join(dir, "runs.db")
	out := filepath.Join(dir, "report.json")
	err := run(t, "report", "--embeddings", emb, "--links", links,
		"--top-k", "1", "--threshold", "0.9", "--db", db, "--out", out)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.ID == "" || rep.Pages != 3 || rep.BrokenLinks != 1 {
		t.Errorf("unexpected report: %+v", rep)
	}

	listOut := filepath.Join(dir, "runs.json")
	if err := run(t, "runs", "list", "--db", db, "--out", listOut); err != nil {
		t.Fatalf("runs list: %v", err)
	}
	data, _ = os.ReadFile(listOut)
	var runs []store.RunInfo
	if err := json.Unmarshal(data, &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != rep.ID {
		t.Errorf("runs = %+v", runs)
	}
}
