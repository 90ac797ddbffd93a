package store

import (
	"context"
	"time"

	"github.com/cognicore/linkaudit/pkg/linkaudit/opportunity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/report"
	"github.com/cognicore/linkaudit/pkg/linkaudit/similarity"
)

// Store keeps snapshots of finished audit runs
type Store interface {
	Close() error

	SaveRun(ctx context.Context, s Snapshot) error
	ListRuns(ctx context.Context) ([]RunInfo, error)
	GetRun(ctx context.Context, id string) (report.Report, error)
	DeleteRun(ctx context.Context, id string) error

	Opportunities(ctx context.Context, runID string) ([]opportunity.Opportunity, error)
	Similarities(ctx context.Context, runID string, minScore float64) ([]similarity.Pair, error)
}

// Snapshot is what gets persisted for one run
type Snapshot struct {
	Report        report.Report
	Opportunities []opportunity.Opportunity
	Similarities  []similarity.Pair
}

// RunInfo is the listing entry of a stored run
type RunInfo struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	TopK          int       `json:"top_k"`
	Threshold     float64   `json:"threshold"`
	Pages         int       `json:"pages"`
	Edges         int       `json:"edges"`
	Opportunities int       `json:"opportunities"`
}

// Info derives the listing entry of a report.
func Info(r report.Report) RunInfo {
	return RunInfo{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt,
		TopK:          r.Params.TopK,
		Threshold:     r.Params.Threshold,
		Pages:         r.Pages,
		Edges:         r.Edges,
		Opportunities: r.Opportunities,
	}
}
