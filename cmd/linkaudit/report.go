package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/linkaudit/pkg/linkaudit/report"
	"github.com/cognicore/linkaudit/pkg/linkaudit/store"
	"github.com/cognicore/linkaudit/pkg/linkaudit/store/sqlite"
)

func newReportCommand() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run every analysis and write a summary report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			comp, err := a.load(ctx)
			if err != nil {
				return err
			}
			sources, ok := a.sources(comp)
			if !ok {
				return errNoSources
			}

			params := report.Params{
				TopK:          a.settings.TopK,
				Threshold:     a.settings.Threshold,
				ThemeLevel:    a.settings.Theme.Level,
				ThemeMinScore: a.settings.Theme.MinScore,
				Sources:       sources,
			}
			in, err := report.Collect(comp.Session, params)
			if err != nil {
				return err
			}
			rep := report.New().Build(in, params)
			a.log.Info("report built",
				zap.String("run_id", rep.ID),
				zap.Int("opportunities", rep.Opportunities),
				zap.Int("broken_links", rep.BrokenLinks))

			if dbPath != "" {
				st, err := sqlite.OpenSQLite(ctx, dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
				snap := store.Snapshot{Report: rep, Opportunities: in.Opportunities, Similarities: in.Similarities}
				if err := st.SaveRun(ctx, snap); err != nil {
					return err
				}
				a.metrics.RunSaved("sqlite")
				a.log.Info("run saved", zap.String("run_id", rep.ID), zap.String("db", dbPath))
			}
			return a.write(rep, nil)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file to store the run in")
	return cmd
}
