package store

import (
	"context"
	"errors"
)

// PruneResult summarizes a prune.
type PruneResult struct {
	Kept    int
	Deleted int
	Errors  int
}

// Prune keeps the newest keep runs and deletes the rest. Individual delete
// failures are counted, not fatal.
func Prune(ctx context.Context, st Store, keep int) (PruneResult, error) {
	var res PruneResult
	if st == nil || keep < 0 {
		return res, errors.New("prune: invalid configuration")
	}
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return res, err
	}
	for i, r := range runs {
		if i < keep {
			res.Kept++
			continue
		}
		if err := st.DeleteRun(ctx, r.ID); err != nil {
			res.Errors++
			continue
		}
		res.Deleted++
	}
	return res, nil
}
