package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/opportunity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/report"
	"github.com/cognicore/linkaudit/pkg/linkaudit/similarity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/store"
)

func TestMemstoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := New()
	defer st.Close()

	ops := []opportunity.Opportunity{{Source: "a", Target: "b", Score: 0.9, Kind: opportunity.Bidirectional}}
	snap := store.Snapshot{
		Report:        report.Report{ID: "01A", Opportunities: 1},
		Opportunities: ops,
		Similarities:  []similarity.Pair{{A: "a", B: "b", Score: 0.9}, {A: "a", B: "c", Score: 0.1}},
	}
	if err := st.SaveRun(ctx, snap); err != nil {
		t.Fatal(err)
	}
	ops[0].Source = "mutated"

	got, err := st.Opportunities(ctx, "01A")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Source != "a" {
		t.Error("store should keep its own copy of the snapshot")
	}
	pairs, _ := st.Similarities(ctx, "01A", 0.5)
	if len(pairs) != 1 {
		t.Errorf("pairs = %+v", pairs)
	}

	if err := st.SaveRun(ctx, store.Snapshot{Report: report.Report{ID: "01B"}}); err != nil {
		t.Fatal(err)
	}
	runs, _ := st.ListRuns(ctx)
	if len(runs) != 2 || runs[0].ID != "01B" {
		t.Errorf("runs should be newest first: %+v", runs)
	}

	if err := st.DeleteRun(ctx, "01A"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.GetRun(ctx, "01A"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPruneCountsFailures(t *testing.T) {
	ctx := context.Background()
	st := New()
	for _, id := range []string{"01A", "01B", "01C"} {
		st.SaveRun(ctx, store.Snapshot{Report: report.Report{ID: id}})
	}
	res, err := store.Prune(ctx, st, 5)
	if err != nil || res.Kept != 3 || res.Deleted != 0 {
		t.Errorf("prune keep 5 = %+v, %v", res, err)
	}
	if _, err := store.Prune(ctx, nil, 1); err == nil {
		t.Error("expected error for nil store")
	}
}
